// plan prints the control panel topology without synthesizing a CDK app.
//
// The topology is the engine-neutral description of every resource, its
// configuration and its dependencies. It can be reviewed before a deploy or
// handed to another provisioning backend.
//
// Usage:
//
//	plan [flags]
//
// Examples:
//
//	plan                                   # Plan from environment variables
//	plan --config control-panel.yaml       # Plan from a config file
//	plan --format json --output plan.json  # Write JSON to a file
//	plan --nodes                           # Print only the dependency graph
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/envfile"
)

var (
	configFile = flag.String("config", "", "Path to a JSON or YAML stack config (default: environment variables)")
	envFile    = flag.String("env", "", "Path to a .env file loaded before reading the environment")
	format     = flag.String("format", "yaml", "Output format: yaml or json")
	output     = flag.String("output", "", "Write to this file instead of stdout")
	nodesOnly  = flag.Bool("nodes", false, "Print only resource nodes and their dependencies")
)

func main() {
	flag.Usage = func() {
		//nolint:gosec // G705: os.Args[0] in CLI usage text is safe
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the control panel deployment topology.\n\n")
		fmt.Fprintf(os.Stderr, "Without --config the same environment variables as the CDK app are read\n")
		fmt.Fprintf(os.Stderr, "(USE_TLS, ACM_CERT_ARN, VPC_ID, CREATE_CLUSTER, ...).\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	topology, err := controlpanel.Plan(config)
	if err != nil {
		return err
	}

	var doc any = topology
	if *nodesOnly {
		doc = topology.Nodes()
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := write(w, *format, doc); err != nil {
		return err
	}
	if *output != "" {
		fmt.Printf("Wrote %s topology of %s to %s\n", *format, topology.StackName, *output)
	}
	return nil
}

func loadConfig() (controlpanel.StackConfig, error) {
	if *configFile != "" {
		return controlpanel.LoadConfigFromFile(*configFile)
	}
	if *envFile != "" {
		path, err := envfile.Find(*envFile)
		if err != nil {
			return controlpanel.StackConfig{}, err
		}
		if _, err := envfile.Load(path); err != nil {
			return controlpanel.StackConfig{}, err
		}
	}
	return controlpanel.LoadConfigFromEnv(os.LookupEnv)
}

func write(w io.Writer, format string, doc any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}

// push-params writes the control panel secrets from a .env file to AWS
// Systems Manager Parameter Store.
//
// It reads NEXTAUTH_SECRET, GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET and
// GITHUB_ALLOWED_USERS and stores each as a SecureString under /artilleryio/,
// where the control panel task definition expects them.
//
// Usage:
//
//	push-params [flags] [env-file]
//
// Examples:
//
//	push-params                           # Auto-detect .env
//	push-params .env                      # Push from .env
//	push-params --region us-west-2 .env   # Push to specific region
//	push-params --dry-run .env            # Preview without writing
//
// Install:
//
//	go install github.com/artilleryio/control-panel-deploy-cdk/cmd/push-params@latest
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/envfile"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/params"
)

var (
	region  = flag.String("region", "", "AWS region (default: AWS_REGION or us-east-1)")
	dryRun  = flag.Bool("dry-run", false, "Preview changes without writing parameters")
	verbose = flag.Bool("verbose", false, "Show verbose output")
)

func main() {
	flag.Usage = func() {
		//nolint:gosec // G705: os.Args[0] in CLI usage text is safe
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [env-file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Push control panel secrets to AWS Parameter Store.\n\n")
		fmt.Fprintf(os.Stderr, "If env-file is not specified, searches in order:\n")
		fmt.Fprintf(os.Stderr, "  1. .env (current directory)\n")
		fmt.Fprintf(os.Stderr, "  2. ../.env (parent directory)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nParameters (SecureString):\n")
		for _, name := range controlpanel.SecretNames {
			fmt.Fprintf(os.Stderr, "  %s/%s\n", controlpanel.DefaultParameterNamespace, name)
		}
	}
	flag.Parse()

	envFile, err := envfile.Find(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(envFile, awsRegion(*region), *dryRun, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func awsRegion(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}

func run(envFile, region string, dryRun, verbose bool) error {
	fmt.Printf("Reading from: %s\n", envFile)
	values, err := envfile.Read(envFile)
	if err != nil {
		return err
	}

	found, missing := params.Select(values)
	if len(missing) > 0 {
		fmt.Printf("Warning: not set in %s: %s\n", envFile, strings.Join(missing, ", "))
	}
	if len(found) == 0 {
		return fmt.Errorf("no control panel secrets found in %s", envFile)
	}

	fmt.Printf("AWS Region: %s\n", region)
	if dryRun {
		fmt.Printf("Mode: DRY RUN (no changes will be made)\n")
	}
	fmt.Println()

	var client *ssm.Client
	if !dryRun {
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(region),
		)
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		client = ssm.NewFromConfig(cfg)
	}

	ctx := context.Background()
	for _, p := range found {
		if verbose {
			fmt.Printf("  Found %s\n", p.Key)
		}
		if dryRun {
			fmt.Printf("  [DRY RUN] Would write %s = %s\n", p.Name, params.Mask(p.Value))
			continue
		}
		version, err := params.Put(ctx, client, p)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (version %d)\n", p.Name, version)
	}

	fmt.Println()
	fmt.Println("Done!")
	fmt.Println()
	fmt.Printf("To verify:\n")
	fmt.Printf("  aws ssm get-parameters-by-path --path %s --region %s --no-cli-pager\n",
		controlpanel.DefaultParameterNamespace, region)

	return nil
}

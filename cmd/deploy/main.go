// deploy orchestrates the full control panel deployment.
//
// It handles:
//  1. Loading settings from .env and resolving the AWS account
//  2. Pushing the control panel secrets to Parameter Store
//  3. Checking that referenced resources exist
//  4. Bootstrapping AWS CDK
//  5. Deploying the CDK stack
//
// Usage:
//
//	deploy [flags]
//
// Examples:
//
//	deploy                              # Deploy from current directory
//	deploy --env ../.env                # Specify env file location
//	deploy --region us-west-2           # Deploy to specific region
//	deploy --dry-run                    # Preview with cdk diff
//	deploy --skip-params                # Parameters already in Parameter Store
//
// Install:
//
//	go install github.com/artilleryio/control-panel-deploy-cdk/cmd/deploy@latest
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/envfile"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/params"
	"github.com/artilleryio/control-panel-deploy-cdk/internal/preflight"
)

var (
	region        = flag.String("region", "", "AWS region (default: AWS_REGION or us-east-1)")
	envFile       = flag.String("env", "", "Path to .env file (default: auto-detect)")
	dryRun        = flag.Bool("dry-run", false, "Preview changes without deploying")
	skipParams    = flag.Bool("skip-params", false, "Skip pushing parameters")
	skipPreflight = flag.Bool("skip-preflight", false, "Skip checking the cluster and parameters")
	skipBootstrap = flag.Bool("skip-bootstrap", false, "Skip CDK bootstrap")
	verbose       = flag.Bool("verbose", false, "Show verbose output")
)

func main() {
	flag.Usage = func() {
		//nolint:gosec // G705: os.Args[0] in CLI usage text is safe
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Deploy the Artillery control panel.\n\n")
		fmt.Fprintf(os.Stderr, "Env file search order (if --env not specified):\n")
		fmt.Fprintf(os.Stderr, "  1. .env (current directory)\n")
		fmt.Fprintf(os.Stderr, "  2. ../.env (parent directory)\n\n")
		fmt.Fprintf(os.Stderr, "Variables already set in the environment take precedence.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSteps:\n")
		fmt.Fprintf(os.Stderr, "  1. Push secrets from .env to Parameter Store\n")
		fmt.Fprintf(os.Stderr, "  2. Check the ECS cluster and parameters exist\n")
		fmt.Fprintf(os.Stderr, "  3. Bootstrap AWS CDK (if needed)\n")
		fmt.Fprintf(os.Stderr, "  4. Deploy CDK stack\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envPath, err := envfile.Find(*envFile)
	switch {
	case err == nil:
		set, err := envfile.Load(envPath)
		if err != nil {
			return err
		}
		if *verbose {
			fmt.Printf("Loaded from %s: %v\n", envPath, set)
		}
	case errors.Is(err, envfile.ErrNotFound):
		fmt.Println("No .env file found, using the environment only")
	default:
		return err
	}

	awsRegion := *region
	if awsRegion == "" {
		awsRegion = os.Getenv("AWS_REGION")
	}
	if awsRegion == "" {
		awsRegion = os.Getenv("AWS_DEFAULT_REGION")
	}
	if awsRegion == "" {
		awsRegion = "us-east-1"
	}

	fmt.Println("=== Artillery Control Panel Deployment ===")
	fmt.Println()
	fmt.Printf("Region: %s\n", awsRegion)
	fmt.Printf("Working directory: %s\n", mustGetwd())
	if *dryRun {
		fmt.Println("Mode: DRY RUN (no changes will be made)")
	}
	fmt.Println()

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	stsClient := sts.NewFromConfig(cfg)
	identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("getting AWS identity: %w", err)
	}
	accountID := aws.ToString(identity.Account)
	fmt.Printf("AWS Account: %s\n", accountID)

	// The CDK app reads the target from these; the cdk CLI sets them too, but
	// validation below needs them first.
	setDefault(controlpanel.EnvCDKDefaultAccount, accountID)
	setDefault(controlpanel.EnvCDKDefaultRegion, awsRegion)

	stackConfig, err := controlpanel.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	printConfig(stackConfig)
	fmt.Println()

	if !*skipParams {
		fmt.Println("=== Step 1: Push Parameters ===")
		if err := pushParams(ctx, cfg, envPath, *dryRun); err != nil {
			return fmt.Errorf("pushing parameters: %w", err)
		}
		fmt.Println()
	} else {
		fmt.Println("=== Step 1: Skipping parameters (--skip-params) ===")
		fmt.Println()
	}

	if !*skipPreflight {
		fmt.Println("=== Step 2: Preflight ===")
		if err := preflight.New(cfg).Run(ctx, stackConfig); err != nil {
			return fmt.Errorf("preflight failed (use --skip-preflight to bypass):\n%w", err)
		}
		fmt.Println("  OK")
		fmt.Println()
	} else {
		fmt.Println("=== Step 2: Skipping preflight (--skip-preflight) ===")
		fmt.Println()
	}

	if !*skipBootstrap {
		fmt.Println("=== Step 3: Bootstrap CDK ===")
		bootstrapCDK(ctx, accountID, awsRegion, *dryRun)
		fmt.Println()
	} else {
		fmt.Println("=== Step 3: Skipping bootstrap (--skip-bootstrap) ===")
		fmt.Println()
	}

	fmt.Println("=== Step 4: Deploy ===")
	if err := deployCDK(ctx, *dryRun); err != nil {
		return fmt.Errorf("deploying: %w", err)
	}
	fmt.Println()

	fmt.Println("=== Deployment Complete ===")
	if !*dryRun {
		fmt.Println()
		fmt.Println("To get the dashboard address:")
		fmt.Printf("  aws cloudformation describe-stacks --stack-name %s --region %s --query 'Stacks[0].Outputs' --no-cli-pager\n",
			stackConfig.StackName, awsRegion)
	}

	return nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func setDefault(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		_ = os.Setenv(key, value)
	}
}

func printConfig(c controlpanel.StackConfig) {
	fmt.Printf("Stack: %s\n", c.StackName)
	if c.CreatesCluster() {
		fmt.Printf("Cluster: %s (will be created)\n", c.Cluster.Name)
	} else {
		fmt.Printf("Cluster: %s (expected to exist)\n", c.Cluster.Name)
	}
	if c.UsesDefaultVPC() {
		fmt.Println("VPC: default")
	} else {
		fmt.Printf("VPC: %s\n", c.Network.VPCID)
	}
	fmt.Printf("Scheme: %s (internet-facing: %t)\n", c.Scheme(), c.InternetFacing)
	if c.SecondaryRegion != "" {
		fmt.Printf("Secondary of backend in: %s\n", c.SecondaryRegion)
	}
}

// pushParams writes the control panel secrets found in the env file.
func pushParams(ctx context.Context, cfg aws.Config, envPath string, dryRun bool) error {
	if envPath == "" {
		fmt.Println("No .env file, skipping parameter push")
		return nil
	}

	values, err := envfile.Read(envPath)
	if err != nil {
		return err
	}
	found, missing := params.Select(values)
	for _, key := range missing {
		fmt.Printf("  %s not in %s, leaving Parameter Store as is\n", key, envPath)
	}

	client := ssm.NewFromConfig(cfg)
	for _, p := range found {
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
	return nil
}

// bootstrapCDK runs cdk bootstrap
func bootstrapCDK(ctx context.Context, accountID, region string, dryRun bool) {
	target := fmt.Sprintf("aws://%s/%s", accountID, region)
	fmt.Printf("Bootstrap target: %s\n", target)

	if dryRun {
		fmt.Println("[DRY RUN] Would run: cdk bootstrap " + target)
		return
	}

	//nolint:gosec // G702: target is built from AWS SDK values (accountID, region), not user input
	cmd := exec.CommandContext(ctx, "cdk", "bootstrap", target)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Bootstrap fails when already done.
		fmt.Println("  Bootstrap completed (or already bootstrapped)")
	}
}

// deployCDK runs cdk deploy, or cdk diff on a dry run.
func deployCDK(ctx context.Context, dryRun bool) error {
	if dryRun {
		fmt.Println("Running cdk diff...")
		cmd := exec.CommandContext(ctx, "cdk", "diff")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		_ = cmd.Run() // diff exits non-zero when there are differences
		return nil
	}

	fmt.Println("Running cdk deploy...")
	cmd := exec.CommandContext(ctx, "cdk", "deploy", "--require-approval", "never")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

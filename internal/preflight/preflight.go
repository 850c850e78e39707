// Package preflight checks, before deploying, the resources the control panel
// stack references but does not create.
//
// The stack itself never performs live lookups: a referenced cluster that does
// not exist only fails when CloudFormation applies the change set. The deploy
// command runs these checks first so that such failures surface early.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
)

var (
	// ErrClusterNotFound is returned when a referenced cluster does not exist.
	ErrClusterNotFound = errors.New("ECS cluster not found")

	// ErrClusterInactive is returned when a referenced cluster is not ACTIVE.
	ErrClusterInactive = errors.New("ECS cluster is not active")

	// ErrMissingParameters is returned when control panel secrets are absent
	// from Parameter Store.
	ErrMissingParameters = errors.New("missing Parameter Store parameters")
)

// ECSAPI is the subset of the ECS client used by the checker.
type ECSAPI interface {
	DescribeClusters(ctx context.Context, params *ecs.DescribeClustersInput, optFns ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error)
}

// SSMAPI is the subset of the SSM client used by the checker.
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// Checker runs the preflight checks.
type Checker struct {
	ECS ECSAPI
	SSM SSMAPI
}

// New creates a Checker from an AWS config.
func New(cfg aws.Config) *Checker {
	return &Checker{
		ECS: ecs.NewFromConfig(cfg),
		SSM: ssm.NewFromConfig(cfg),
	}
}

// Run checks everything config references. All checks run; their errors are
// joined.
func (c *Checker) Run(ctx context.Context, config controlpanel.StackConfig) error {
	var errs []error
	if !config.CreatesCluster() {
		if err := c.CheckCluster(ctx, config.Cluster.Name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.CheckParameters(ctx, ParameterNames()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CheckCluster verifies that the named cluster exists and is ACTIVE.
func (c *Checker) CheckCluster(ctx context.Context, name string) error {
	out, err := c.ECS.DescribeClusters(ctx, &ecs.DescribeClustersInput{
		Clusters: []string{name},
	})
	if err != nil {
		return fmt.Errorf("describing cluster %s: %w", name, describeAPIError(err))
	}

	for _, cluster := range out.Clusters {
		if aws.ToString(cluster.ClusterName) != name {
			continue
		}
		if status := aws.ToString(cluster.Status); status != "ACTIVE" {
			return fmt.Errorf("%w: %s is %s", ErrClusterInactive, name, status)
		}
		return nil
	}
	return fmt.Errorf("%w: %s (set CREATE_CLUSTER=true to create it)", ErrClusterNotFound, name)
}

// CheckParameters verifies that every named parameter exists.
func (c *Checker) CheckParameters(ctx context.Context, names []string) error {
	out, err := c.SSM.GetParameters(ctx, &ssm.GetParametersInput{
		Names: names,
	})
	if err != nil {
		return fmt.Errorf("reading parameters: %w", describeAPIError(err))
	}
	if len(out.InvalidParameters) == 0 {
		return nil
	}

	missing := append([]string(nil), out.InvalidParameters...)
	sort.Strings(missing)
	return fmt.Errorf("%w: %s (run push-params)", ErrMissingParameters, strings.Join(missing, ", "))
}

// ParameterNames returns the full Parameter Store names of the control panel
// secrets.
func ParameterNames() []string {
	names := make([]string, 0, len(controlpanel.SecretNames))
	for _, n := range controlpanel.SecretNames {
		names = append(names, controlpanel.DefaultParameterNamespace+"/"+n)
	}
	return names
}

// describeAPIError annotates AWS API errors with their error code.
func describeAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", apiErr.ErrorCode(), err)
	}
	return err
}

// Package controlpanel provides the AWS CDK stack that runs the Artillery
// control panel on ECS Fargate behind an Application Load Balancer.
package controlpanel

import (
	"errors"
	"fmt"
)

// Defaults used when the corresponding setting is not provided.
const (
	DefaultStackID            = "ControlPanelDeployCdkStack"
	DefaultStackName          = "artilleryio-dashboard"
	DefaultClusterName        = "artilleryio-cluster"
	DefaultAuthTableName      = "artillery-auth"
	DefaultImage              = "public.ecr.aws/s5k5j6u0/artillery-dashboard"
	DefaultParameterNamespace = "/artilleryio"
)

var (
	// ErrInternetFacingRequiresTLS is returned when a public load balancer is
	// requested without TLS.
	ErrInternetFacingRequiresTLS = errors.New("creating an internet-facing deployment requires USE_TLS and an ACM_CERT_ARN")

	// ErrCertificateRequired is returned when TLS is enabled without a certificate.
	ErrCertificateRequired = errors.New("an ACM certificate ARN must be provided with ACM_CERT_ARN")
)

// ClusterMode selects whether the ECS cluster is created by the stack or
// referenced by name.
type ClusterMode string

const (
	// ClusterReference expects a cluster with the configured name to exist.
	ClusterReference ClusterMode = "reference"
	// ClusterCreate creates the cluster with Fargate capacity providers.
	ClusterCreate ClusterMode = "create"
)

// NetworkMode selects how the VPC is resolved.
type NetworkMode string

const (
	// NetworkDefault looks up the account's default VPC.
	NetworkDefault NetworkMode = "default"
	// NetworkExplicit looks up the VPC by ID.
	NetworkExplicit NetworkMode = "explicit"
)

// ClusterConfig identifies the ECS cluster.
type ClusterConfig struct {
	Name string      `json:"name,omitempty" yaml:"name,omitempty"`
	Mode ClusterMode `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// NetworkConfig identifies the VPC.
type NetworkConfig struct {
	Mode  NetworkMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	VPCID string      `json:"vpcId,omitempty" yaml:"vpcId,omitempty"`
}

// TLSConfig controls HTTPS termination on the load balancer.
type TLSConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	CertificateARN string `json:"certificateArn,omitempty" yaml:"certificateArn,omitempty"`
}

// StackConfig is the complete, normalized input of the stack. It is built once
// at startup and passed by value; nothing downstream reads the environment.
type StackConfig struct {
	StackID   string `json:"stackId,omitempty" yaml:"stackId,omitempty"`
	StackName string `json:"stackName,omitempty" yaml:"stackName,omitempty"`

	// Account and Region are the deployment target. Either may be empty, in
	// which case CloudFormation pseudo parameters are used.
	Account string `json:"account,omitempty" yaml:"account,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`

	TLS            TLSConfig     `json:"tls" yaml:"tls"`
	InternetFacing bool          `json:"internetFacing" yaml:"internetFacing"`
	Network        NetworkConfig `json:"network" yaml:"network"`
	Cluster        ClusterConfig `json:"cluster" yaml:"cluster"`

	AuthTableName string `json:"authTableName,omitempty" yaml:"authTableName,omitempty"`
	Image         string `json:"image,omitempty" yaml:"image,omitempty"`

	// SecondaryRegion marks the deployment as a secondary of the backend in
	// that region (ARTILLERY_BACKEND).
	SecondaryRegion string `json:"secondaryRegion,omitempty" yaml:"secondaryRegion,omitempty"`

	// CLIUserPolicyARN overrides the derived artilleryio-cli-user policy ARN.
	CLIUserPolicyARN string `json:"cliUserPolicyArn,omitempty" yaml:"cliUserPolicyArn,omitempty"`

	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DefaultStackConfig returns a configuration with every default applied.
func DefaultStackConfig() StackConfig {
	c := StackConfig{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *StackConfig) ApplyDefaults() {
	if c.StackID == "" {
		c.StackID = DefaultStackID
	}
	if c.StackName == "" {
		c.StackName = DefaultStackName
	}
	if c.Cluster.Name == "" {
		c.Cluster.Name = DefaultClusterName
	}
	if c.Cluster.Mode == "" {
		c.Cluster.Mode = ClusterReference
	}
	if c.Network.Mode == "" {
		if c.Network.VPCID != "" {
			c.Network.Mode = NetworkExplicit
		} else {
			c.Network.Mode = NetworkDefault
		}
	}
	if c.AuthTableName == "" {
		c.AuthTableName = DefaultAuthTableName
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
}

// Validate checks the configuration. The internet-facing rule is checked
// before the certificate rule.
func (c StackConfig) Validate() error {
	if c.InternetFacing && !c.TLS.Enabled {
		return ErrInternetFacingRequiresTLS
	}
	if c.TLS.Enabled && c.TLS.CertificateARN == "" {
		return ErrCertificateRequired
	}

	switch c.Cluster.Mode {
	case ClusterCreate, ClusterReference:
	default:
		return fmt.Errorf("unknown cluster mode %q", c.Cluster.Mode)
	}
	if c.Cluster.Name == "" {
		return errors.New("cluster name is required")
	}

	switch c.Network.Mode {
	case NetworkDefault:
	case NetworkExplicit:
		if c.Network.VPCID == "" {
			return errors.New("explicit network mode requires a VPC ID")
		}
	default:
		return fmt.Errorf("unknown network mode %q", c.Network.Mode)
	}

	return nil
}

// CreatesCluster reports whether the stack owns the ECS cluster.
func (c StackConfig) CreatesCluster() bool {
	return c.Cluster.Mode == ClusterCreate
}

// UsesDefaultVPC reports whether the VPC is resolved by default-VPC lookup.
func (c StackConfig) UsesDefaultVPC() bool {
	return c.Network.Mode == NetworkDefault
}

// Scheme returns the URL scheme served by the load balancer.
func (c StackConfig) Scheme() string {
	if c.TLS.Enabled {
		return "https"
	}
	return "http"
}

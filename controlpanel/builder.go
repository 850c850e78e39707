package controlpanel

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
)

// StackBuilder provides a fluent interface for building control panel stacks.
type StackBuilder struct {
	config StackConfig
}

// NewStackBuilder creates a new stack builder with the default stack identity.
func NewStackBuilder() *StackBuilder {
	return &StackBuilder{
		config: StackConfig{
			StackID:   DefaultStackID,
			StackName: DefaultStackName,
			Tags:      make(map[string]string),
		},
	}
}

// WithStackName sets the CloudFormation stack name.
func (b *StackBuilder) WithStackName(name string) *StackBuilder {
	b.config.StackName = name
	return b
}

// WithEnvironment sets the target account and region.
func (b *StackBuilder) WithEnvironment(account, region string) *StackBuilder {
	b.config.Account = account
	b.config.Region = region
	return b
}

// WithTLS enables HTTPS termination with the given ACM certificate.
func (b *StackBuilder) WithTLS(certificateARN string) *StackBuilder {
	b.config.TLS = TLSConfig{
		Enabled:        true,
		CertificateARN: certificateARN,
	}
	return b
}

// InternetFacing makes the load balancer public. Requires TLS.
func (b *StackBuilder) InternetFacing() *StackBuilder {
	b.config.InternetFacing = true
	return b
}

// WithVPC looks up an existing VPC by ID.
func (b *StackBuilder) WithVPC(vpcID string) *StackBuilder {
	b.config.Network = NetworkConfig{Mode: NetworkExplicit, VPCID: vpcID}
	return b
}

// WithDefaultVPC uses the account's default VPC.
func (b *StackBuilder) WithDefaultVPC() *StackBuilder {
	b.config.Network = NetworkConfig{Mode: NetworkDefault}
	return b
}

// CreateCluster creates the ECS cluster. An empty name selects the default.
func (b *StackBuilder) CreateCluster(name string) *StackBuilder {
	b.config.Cluster = ClusterConfig{Mode: ClusterCreate, Name: name}
	return b
}

// ReferenceCluster uses an existing ECS cluster. An empty name selects the default.
func (b *StackBuilder) ReferenceCluster(name string) *StackBuilder {
	b.config.Cluster = ClusterConfig{Mode: ClusterReference, Name: name}
	return b
}

// WithAuthTable sets the DynamoDB auth table name.
func (b *StackBuilder) WithAuthTable(name string) *StackBuilder {
	b.config.AuthTableName = name
	return b
}

// WithImage overrides the control panel container image.
func (b *StackBuilder) WithImage(image string) *StackBuilder {
	b.config.Image = image
	return b
}

// WithSecondaryRegion configures the deployment as a secondary of the
// backend running in region.
func (b *StackBuilder) WithSecondaryRegion(region string) *StackBuilder {
	b.config.SecondaryRegion = region
	return b
}

// WithCLIUserPolicy overrides the CLI user policy ARN attached to the task role.
func (b *StackBuilder) WithCLIUserPolicy(policyARN string) *StackBuilder {
	b.config.CLIUserPolicyARN = policyARN
	return b
}

// WithTag adds a single tag.
func (b *StackBuilder) WithTag(key, value string) *StackBuilder {
	b.config.Tags[key] = value
	return b
}

// WithTags adds tags to all resources.
func (b *StackBuilder) WithTags(tags map[string]string) *StackBuilder {
	for k, v := range tags {
		b.config.Tags[k] = v
	}
	return b
}

// Config returns the current configuration with defaults applied.
func (b *StackBuilder) Config() StackConfig {
	c := b.config
	c.ApplyDefaults()
	return c
}

// Validate validates the current configuration.
func (b *StackBuilder) Validate() error {
	return b.Config().Validate()
}

// Build creates the control panel stack.
func (b *StackBuilder) Build(scope constructs.Construct, opts ...Option) (*ControlPanelStack, error) {
	return NewControlPanelStack(scope, b.Config(), opts...)
}

// NewApp creates a new CDK app.
func NewApp() awscdk.App {
	return awscdk.NewApp(nil)
}

// Synth synthesizes the CDK app to CloudFormation templates.
func Synth(app awscdk.App) {
	app.Synth(nil)
}

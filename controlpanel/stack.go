package controlpanel

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awselasticloadbalancingv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/rs/zerolog"
)

// ControlPanelStack is the CDK translation of a Topology.
type ControlPanelStack struct {
	awscdk.Stack

	// Config is the validated stack configuration.
	Config StackConfig

	// Topology is the resource graph the stack was built from.
	Topology *Topology

	// VPC is the looked-up VPC.
	VPC awsec2.IVpc

	// Cluster is the created or referenced ECS cluster.
	Cluster awsecs.ICluster

	// AuthTable is the DynamoDB table holding auth sessions.
	AuthTable awsdynamodb.Table

	// TaskRole is the IAM role assumed by the control panel task.
	TaskRole awsiam.Role

	TaskDefinition awsecs.FargateTaskDefinition
	Service        awsecs.FargateService

	LoadBalancer awselasticloadbalancingv2.ApplicationLoadBalancer

	// Certificate is set when TLS is enabled.
	Certificate awscertificatemanager.ICertificate

	Listeners    map[string]awselasticloadbalancingv2.ApplicationListener
	TargetGroups map[string]awselasticloadbalancingv2.ApplicationTargetGroup
	Rules        map[string]awselasticloadbalancingv2.ApplicationListenerRule

	logger zerolog.Logger
}

// Option configures NewControlPanelStack.
type Option func(*ControlPanelStack)

// WithLogger sets the logger used for deployment diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *ControlPanelStack) {
		s.logger = logger
	}
}

// NewControlPanelStack validates config and, only if it is valid, adds the
// control panel stack to scope.
func NewControlPanelStack(scope constructs.Construct, config StackConfig, opts ...Option) (*ControlPanelStack, error) {
	config.ApplyDefaults()
	topology, err := Plan(config)
	if err != nil {
		return nil, fmt.Errorf("invalid stack configuration: %w", err)
	}

	s := &ControlPanelStack{
		Config:       config,
		Topology:     topology,
		Listeners:    make(map[string]awselasticloadbalancingv2.ApplicationListener),
		TargetGroups: make(map[string]awselasticloadbalancingv2.ApplicationTargetGroup),
		Rules:        make(map[string]awselasticloadbalancingv2.ApplicationListenerRule),
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Stack = awscdk.NewStack(scope, jsii.String(topology.StackID), &awscdk.StackProps{
		StackName: jsii.String(topology.StackName),
		Env:       stackEnv(topology.Account, topology.Region),
		Tags:      convertTags(topology.Tags),
	})

	s.createNetwork()
	s.createCluster()
	s.createAuthTable()
	s.createLoadBalancer()
	s.createTaskRole()
	s.createTaskDefinition()
	s.createService()
	s.createRouting()
	s.addOutputs()

	s.logResolved()

	return s, nil
}

// MustNewControlPanelStack is like NewControlPanelStack but panics on error.
func MustNewControlPanelStack(scope constructs.Construct, config StackConfig, opts ...Option) *ControlPanelStack {
	s, err := NewControlPanelStack(scope, config, opts...)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// createNetwork looks up the VPC by ID or as the account default.
func (s *ControlPanelStack) createNetwork() {
	network := s.Topology.Network

	lookup := &awsec2.VpcLookupOptions{}
	if network.Mode == NetworkExplicit {
		lookup.VpcId = jsii.String(network.VPCID)
	} else {
		lookup.IsDefault = jsii.Bool(true)
	}
	s.VPC = awsec2.Vpc_FromLookup(s.Stack, jsii.String(network.ID), lookup)
}

// createCluster creates the cluster or references it by name. A referenced
// cluster is not checked for existence here; a missing cluster fails at
// deploy time.
func (s *ControlPanelStack) createCluster() {
	spec := s.Topology.Cluster

	if spec.Mode == ClusterCreate {
		s.Cluster = awsecs.NewCluster(s.Stack, jsii.String(spec.ID), &awsecs.ClusterProps{
			ClusterName:                    jsii.String(spec.Name),
			Vpc:                            s.VPC,
			EnableFargateCapacityProviders: jsii.Bool(spec.EnableFargateCapacityProviders),
		})
		return
	}

	s.Cluster = awsecs.Cluster_FromClusterAttributes(s.Stack, jsii.String(spec.ID), &awsecs.ClusterAttributes{
		ClusterName: jsii.String(spec.Name),
		Vpc:         s.VPC,
	})
}

// createAuthTable creates the auth table and its secondary indexes.
func (s *ControlPanelStack) createAuthTable() {
	spec := s.Topology.AuthTable

	removalPolicy := awscdk.RemovalPolicy_RETAIN
	if spec.DestroyOnDelete {
		removalPolicy = awscdk.RemovalPolicy_DESTROY
	}

	s.AuthTable = awsdynamodb.NewTable(s.Stack, jsii.String(spec.ID), &awsdynamodb.TableProps{
		TableName:           jsii.String(spec.Name),
		RemovalPolicy:       removalPolicy,
		ReadCapacity:        jsii.Number(float64(spec.ReadCapacity)),
		WriteCapacity:       jsii.Number(float64(spec.WriteCapacity)),
		PartitionKey:        dynamoAttribute(spec.PartitionKey),
		SortKey:             dynamoAttribute(spec.SortKey),
		TimeToLiveAttribute: jsii.String(spec.TTLAttribute),
	})

	for _, index := range spec.Indexes {
		s.AuthTable.AddGlobalSecondaryIndex(&awsdynamodb.GlobalSecondaryIndexProps{
			IndexName:      jsii.String(index.Name),
			PartitionKey:   dynamoAttribute(index.PartitionKey),
			SortKey:        dynamoAttribute(index.SortKey),
			ProjectionType: projectionType(index.Projection),
			ReadCapacity:   jsii.Number(float64(index.ReadCapacity)),
			WriteCapacity:  jsii.Number(float64(index.WriteCapacity)),
		})
	}
}

// createLoadBalancer creates the application load balancer.
func (s *ControlPanelStack) createLoadBalancer() {
	spec := s.Topology.LoadBalancer

	s.LoadBalancer = awselasticloadbalancingv2.NewApplicationLoadBalancer(s.Stack, jsii.String(spec.ID),
		&awselasticloadbalancingv2.ApplicationLoadBalancerProps{
			Vpc:            s.VPC,
			InternetFacing: jsii.Bool(spec.InternetFacing),
		})
}

// createTaskRole creates the task role with its managed and inline policies.
func (s *ControlPanelStack) createTaskRole() {
	spec := s.Topology.TaskRole

	managed := make([]awsiam.IManagedPolicy, 0, len(spec.AWSManagedPolicies))
	for _, name := range spec.AWSManagedPolicies {
		managed = append(managed, awsiam.ManagedPolicy_FromAwsManagedPolicyName(jsii.String(name)))
	}

	inline := make(map[string]awsiam.PolicyDocument, len(spec.InlinePolicies))
	for _, policy := range spec.InlinePolicies {
		statements := make([]awsiam.PolicyStatement, 0, len(policy.Statements))
		for _, st := range policy.Statements {
			resources := make([]*string, 0, len(st.Resources))
			for _, r := range st.Resources {
				resources = append(resources, s.resolve(r))
			}
			statements = append(statements, awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Effect:    awsiam.Effect_ALLOW,
				Actions:   jsii.Strings(st.Actions...),
				Resources: &resources,
			}))
		}
		inline[policy.Name] = awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
			Statements: &statements,
		})
	}

	role := awsiam.NewRole(s.Stack, jsii.String(spec.ID), &awsiam.RoleProps{
		AssumedBy:       awsiam.NewServicePrincipal(jsii.String(spec.Principal), nil),
		RoleName:        s.resolve(spec.Name),
		ManagedPolicies: &managed,
		InlinePolicies:  &inline,
	})

	// Customer-managed policies are imported by ARN and attached separately.
	for _, policy := range spec.CustomerPolicies {
		role.AddManagedPolicy(awsiam.ManagedPolicy_FromManagedPolicyArn(
			s.Stack,
			jsii.String(policy.ID),
			s.resolve(policy.ARN),
		))
	}

	s.TaskRole = role
}

// createTaskDefinition creates the Fargate task definition and its container.
func (s *ControlPanelStack) createTaskDefinition() {
	spec := s.Topology.Task

	s.TaskDefinition = awsecs.NewFargateTaskDefinition(s.Stack, jsii.String(spec.ID), &awsecs.FargateTaskDefinitionProps{
		Cpu:            jsii.Number(float64(spec.CPU)),
		MemoryLimitMiB: jsii.Number(float64(spec.MemoryMiB)),
		TaskRole:       s.TaskRole,
		RuntimePlatform: &awsecs.RuntimePlatform{
			OperatingSystemFamily: operatingSystemFamily(spec.OperatingSystem),
			CpuArchitecture:       cpuArchitecture(spec.Architecture),
		},
	})

	c := spec.Container

	env := make(map[string]*string, len(c.Environment))
	for _, e := range c.Environment {
		env[e.Name] = s.resolve(e.Value)
	}

	secrets := make(map[string]awsecs.Secret, len(c.Secrets))
	for _, ref := range c.Secrets {
		// Secrets are SecureStrings, which cannot be CloudFormation parameter
		// values; only the ARN is needed by the task definition.
		param := awsssm.StringParameter_FromSecureStringParameterAttributes(s.Stack, jsii.String(ref.ID),
			&awsssm.SecureStringParameterAttributes{
				ParameterName: jsii.String(ref.Parameter),
			})
		secrets[ref.Name] = awsecs.Secret_FromSsmParameter(param)
	}

	ports := make([]*awsecs.PortMapping, 0, len(c.Ports))
	for _, p := range c.Ports {
		ports = append(ports, &awsecs.PortMapping{ContainerPort: jsii.Number(float64(p))})
	}

	s.TaskDefinition.AddContainer(jsii.String(c.Name), &awsecs.ContainerDefinitionOptions{
		Image:        awsecs.ContainerImage_FromRegistry(jsii.String(c.Image), nil),
		Environment:  &env,
		Secrets:      &secrets,
		PortMappings: &ports,
		Logging: awsecs.LogDrivers_AwsLogs(&awsecs.AwsLogDriverProps{
			StreamPrefix: jsii.String(c.LogStreamPrefix),
		}),
	})
}

// createService runs the task definition on the cluster. The service-level
// CPU and memory of the topology have no CDK counterpart.
func (s *ControlPanelStack) createService() {
	spec := s.Topology.Service

	s.Service = awsecs.NewFargateService(s.Stack, jsii.String(spec.ID), &awsecs.FargateServiceProps{
		Cluster:        s.Cluster,
		TaskDefinition: s.TaskDefinition,
		DesiredCount:   jsii.Number(float64(spec.DesiredCount)),
		AssignPublicIp: jsii.Bool(spec.AssignPublicIP),
	})
}

// createRouting adds the redirect, listeners, target groups and path rules.
func (s *ControlPanelStack) createRouting() {
	t := s.Topology

	if r := t.LoadBalancer.Redirect; r != nil {
		s.LoadBalancer.AddRedirect(&awselasticloadbalancingv2.ApplicationLoadBalancerRedirectConfig{
			SourceProtocol: applicationProtocol(r.SourceProtocol),
			SourcePort:     jsii.Number(float64(r.SourcePort)),
			TargetProtocol: applicationProtocol(r.TargetProtocol),
			TargetPort:     jsii.Number(float64(r.TargetPort)),
		})
	}

	if t.Certificate != nil {
		s.Certificate = awscertificatemanager.Certificate_FromCertificateArn(s.Stack,
			jsii.String(t.Certificate.ID),
			jsii.String(t.Certificate.ARN),
		)
	}

	for _, spec := range t.Listeners {
		props := &awselasticloadbalancingv2.BaseApplicationListenerProps{
			Port:     jsii.Number(float64(spec.Port)),
			Protocol: applicationProtocol(spec.Protocol),
		}
		if spec.CertificateID != "" {
			props.Certificates = &[]awselasticloadbalancingv2.IListenerCertificate{
				awselasticloadbalancingv2.ListenerCertificate_FromCertificateManager(s.Certificate),
			}
		}
		s.Listeners[spec.ID] = s.LoadBalancer.AddListener(jsii.String(spec.ID), props)
	}

	for _, spec := range t.Targets {
		target := s.Service.LoadBalancerTarget(&awsecs.LoadBalancerTargetOptions{
			ContainerName: jsii.String(spec.ContainerName),
			ContainerPort: jsii.Number(float64(spec.ContainerPort)),
		})
		group := s.Listeners[spec.ListenerID].AddTargets(jsii.String(spec.ID), &awselasticloadbalancingv2.AddApplicationTargetsProps{
			Port:     jsii.Number(float64(spec.Port)),
			Protocol: applicationProtocol(spec.Protocol),
			Targets:  &[]awselasticloadbalancingv2.IApplicationLoadBalancerTarget{target},
		})
		group.ConfigureHealthCheck(healthCheck(spec.HealthCheck))
		s.TargetGroups[spec.ID] = group
	}

	for _, spec := range t.Rules {
		s.Rules[spec.ID] = awselasticloadbalancingv2.NewApplicationListenerRule(s.Stack, jsii.String(spec.ID),
			&awselasticloadbalancingv2.ApplicationListenerRuleProps{
				Listener: s.Listeners[spec.ListenerID],
				Priority: jsii.Number(float64(spec.Priority)),
				Action: awselasticloadbalancingv2.ListenerAction_Forward(
					&[]awselasticloadbalancingv2.IApplicationTargetGroup{s.TargetGroups[spec.TargetID]},
					nil,
				),
				Conditions: &[]awselasticloadbalancingv2.ListenerCondition{
					awselasticloadbalancingv2.ListenerCondition_PathPatterns(jsii.Strings(spec.PathPatterns...)),
				},
			})
	}
}

// addOutputs adds the exported stack outputs.
func (s *ControlPanelStack) addOutputs() {
	for _, o := range s.Topology.Outputs {
		awscdk.NewCfnOutput(s.Stack, jsii.String(o.ID), &awscdk.CfnOutputProps{
			Value:       s.resolve(o.Value),
			Description: jsii.String(o.Description),
			ExportName:  jsii.String(o.ExportName),
		})
	}
}

// resolve renders a topology value, substituting CDK tokens for attributes.
// Attributes must belong to constructs that were already created.
func (s *ControlPanelStack) resolve(v Value) *string {
	return jsii.String(v.Render(func(a Attr) string {
		switch a {
		case AttrAccount:
			return *s.Stack.Account()
		case AttrRegion:
			return *s.Stack.Region()
		case AttrLoadBalancerDNSName:
			return *s.LoadBalancer.LoadBalancerDnsName()
		case AttrAuthTableARN:
			return *s.AuthTable.TableArn()
		default:
			panic(fmt.Sprintf("unknown attribute %q", a))
		}
	}))
}

func stackEnv(account, region string) *awscdk.Environment {
	if account == "" && region == "" {
		return nil
	}
	env := &awscdk.Environment{}
	if account != "" {
		env.Account = jsii.String(account)
	}
	if region != "" {
		env.Region = jsii.String(region)
	}
	return env
}

func dynamoAttribute(k KeySpec) *awsdynamodb.Attribute {
	attrType := awsdynamodb.AttributeType_STRING
	switch k.Type {
	case "N":
		attrType = awsdynamodb.AttributeType_NUMBER
	case "B":
		attrType = awsdynamodb.AttributeType_BINARY
	}
	return &awsdynamodb.Attribute{
		Name: jsii.String(k.Name),
		Type: attrType,
	}
}

func projectionType(p string) awsdynamodb.ProjectionType {
	switch p {
	case "KEYS_ONLY":
		return awsdynamodb.ProjectionType_KEYS_ONLY
	case "INCLUDE":
		return awsdynamodb.ProjectionType_INCLUDE
	default:
		return awsdynamodb.ProjectionType_ALL
	}
}

// operatingSystemFamily maps the topology OS. Only Linux is planned today.
func operatingSystemFamily(string) awsecs.OperatingSystemFamily {
	return awsecs.OperatingSystemFamily_LINUX()
}

func cpuArchitecture(arch string) awsecs.CpuArchitecture {
	if arch == "ARM64" {
		return awsecs.CpuArchitecture_ARM64()
	}
	return awsecs.CpuArchitecture_X86_64()
}

func applicationProtocol(p Protocol) awselasticloadbalancingv2.ApplicationProtocol {
	if p == ProtocolHTTPS {
		return awselasticloadbalancingv2.ApplicationProtocol_HTTPS
	}
	return awselasticloadbalancingv2.ApplicationProtocol_HTTP
}

func healthCheck(spec HealthCheckSpec) *awselasticloadbalancingv2.HealthCheck {
	hc := &awselasticloadbalancingv2.HealthCheck{
		Path: jsii.String(spec.Path),
	}
	if spec.Port != "" {
		hc.Port = jsii.String(spec.Port)
	}
	if spec.HealthyHTTPCodes != "" {
		hc.HealthyHttpCodes = jsii.String(spec.HealthyHTTPCodes)
	}
	return hc
}

// convertTags converts a map to CDK tags.
func convertTags(tags map[string]string) *map[string]*string {
	if tags == nil {
		return nil
	}
	result := make(map[string]*string)
	for k, v := range tags {
		result[k] = jsii.String(v)
	}
	return &result
}

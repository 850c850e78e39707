package controlpanel

import (
	"bytes"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synth builds the stack in a fresh app. VPC lookups need a concrete
// environment; without lookup context they resolve to a placeholder VPC.
func synth(t *testing.T, config StackConfig, opts ...Option) (*ControlPanelStack, assertions.Template) {
	t.Helper()
	config.Account = "123456789012"
	config.Region = "us-east-1"

	stack, err := NewControlPanelStack(awscdk.NewApp(nil), config, opts...)
	require.NoError(t, err)
	return stack, assertions.Template_FromStack(stack.Stack, nil)
}

func TestStackRejectsInvalidConfigBeforeDeclaringResources(t *testing.T) {
	app := awscdk.NewApp(nil)
	config := DefaultStackConfig()
	config.InternetFacing = true

	stack, err := NewControlPanelStack(app, config)
	require.ErrorIs(t, err, ErrInternetFacingRequiresTLS)
	assert.Nil(t, stack)
	assert.Empty(t, *app.Node().Children())
}

func TestMustNewControlPanelStackPanics(t *testing.T) {
	config := DefaultStackConfig()
	config.TLS = TLSConfig{Enabled: true}

	assert.Panics(t, func() {
		MustNewControlPanelStack(awscdk.NewApp(nil), config)
	})
}

func TestStackListenersWithoutTLS(t *testing.T) {
	stack, template := synth(t, DefaultStackConfig())

	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":     80,
		"Protocol": "HTTP",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":     8000,
		"Protocol": "HTTP",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), map[string]interface{}{
		"Scheme": "internal",
	})
	assert.Nil(t, stack.Certificate)
}

func TestStackListenersWithTLS(t *testing.T) {
	config := DefaultStackConfig()
	config.TLS = TLSConfig{Enabled: true, CertificateARN: testCertARN}
	config.InternetFacing = true
	stack, template := synth(t, config)

	// ui-listener, api-listener and the HTTP redirect listener.
	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), jsii.Number(3))
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":         443,
		"Protocol":     "HTTPS",
		"Certificates": []interface{}{map[string]interface{}{"CertificateArn": testCertARN}},
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":     8443,
		"Protocol": "HTTPS",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::Listener"), map[string]interface{}{
		"Port":     80,
		"Protocol": "HTTP",
		"DefaultActions": []interface{}{map[string]interface{}{
			"Type": "redirect",
			"RedirectConfig": map[string]interface{}{
				"Port":       "443",
				"Protocol":   "HTTPS",
				"StatusCode": "HTTP_301",
			},
		}},
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::LoadBalancer"), map[string]interface{}{
		"Scheme": "internet-facing",
	})
	assert.NotNil(t, stack.Certificate)
}

func TestStackRules(t *testing.T) {
	stack, template := synth(t, DefaultStackConfig())

	template.ResourceCountIs(jsii.String("AWS::ElasticLoadBalancingV2::ListenerRule"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::ListenerRule"), map[string]interface{}{
		"Priority": 3,
		"Conditions": []interface{}{map[string]interface{}{
			"Field":             "path-pattern",
			"PathPatternConfig": map[string]interface{}{"Values": []interface{}{"/api/auth/*"}},
		}},
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::ListenerRule"), map[string]interface{}{
		"Priority": 4,
		"Conditions": []interface{}{map[string]interface{}{
			"Field":             "path-pattern",
			"PathPatternConfig": map[string]interface{}{"Values": []interface{}{"/api/*"}},
		}},
	})
	assert.Len(t, stack.Rules, 2)
	assert.Len(t, stack.TargetGroups, 2)

	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::TargetGroup"), map[string]interface{}{
		"HealthCheckPath": "/",
		"HealthCheckPort": "3000",
		"Matcher":         map[string]interface{}{"HttpCode": "200,301,307,308"},
		"Port":            80,
		"Protocol":        "HTTP",
		"TargetType":      "ip",
	})
	template.HasResourceProperties(jsii.String("AWS::ElasticLoadBalancingV2::TargetGroup"), map[string]interface{}{
		"HealthCheckPath": "/healthz",
		"Port":            8000,
	})
}

func TestStackAuthTable(t *testing.T) {
	_, template := synth(t, DefaultStackConfig())

	template.HasResourceProperties(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"TableName": DefaultAuthTableName,
		"KeySchema": []interface{}{
			map[string]interface{}{"AttributeName": "pk", "KeyType": "HASH"},
			map[string]interface{}{"AttributeName": "sk", "KeyType": "RANGE"},
		},
		"TimeToLiveSpecification": map[string]interface{}{"AttributeName": "expires", "Enabled": true},
		"ProvisionedThroughput":   map[string]interface{}{"ReadCapacityUnits": 1, "WriteCapacityUnits": 1},
		"GlobalSecondaryIndexes": []interface{}{map[string]interface{}{
			"IndexName": "GSI1",
			"KeySchema": []interface{}{
				map[string]interface{}{"AttributeName": "GSI1PK", "KeyType": "HASH"},
				map[string]interface{}{"AttributeName": "GSI1SK", "KeyType": "RANGE"},
			},
			"Projection": map[string]interface{}{"ProjectionType": "ALL"},
		}},
	})
	template.HasResource(jsii.String("AWS::DynamoDB::Table"), map[string]interface{}{
		"DeletionPolicy": "Delete",
	})
}

func TestStackCluster(t *testing.T) {
	_, template := synth(t, DefaultStackConfig())
	template.ResourceCountIs(jsii.String("AWS::ECS::Cluster"), jsii.Number(0))

	config := DefaultStackConfig()
	config.Cluster.Mode = ClusterCreate
	_, template = synth(t, config)
	template.ResourceCountIs(jsii.String("AWS::ECS::Cluster"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::ECS::Cluster"), map[string]interface{}{
		"ClusterName": DefaultClusterName,
	})
}

func TestStackTaskDefinition(t *testing.T) {
	_, template := synth(t, DefaultStackConfig())

	template.HasResourceProperties(jsii.String("AWS::ECS::TaskDefinition"), map[string]interface{}{
		"Cpu":    "1024",
		"Memory": "2048",
		"RuntimePlatform": map[string]interface{}{
			"OperatingSystemFamily": "LINUX",
			"CpuArchitecture":       "X86_64",
		},
		"ContainerDefinitions": assertions.Match_ArrayWith(&[]interface{}{
			assertions.Match_ObjectLike(&map[string]interface{}{
				"Name":  ContainerName,
				"Image": DefaultImage,
				"PortMappings": []interface{}{
					map[string]interface{}{"ContainerPort": 3000},
					map[string]interface{}{"ContainerPort": 3001},
				},
				"Secrets": assertions.Match_ArrayWith(&[]interface{}{
					assertions.Match_ObjectLike(&map[string]interface{}{"Name": "NEXTAUTH_SECRET"}),
				}),
			}),
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::ECS::Service"), map[string]interface{}{
		"DesiredCount": 1,
		"LaunchType":   "FARGATE",
		"NetworkConfiguration": map[string]interface{}{
			"AwsvpcConfiguration": map[string]interface{}{"AssignPublicIp": "ENABLED"},
		},
	})
}

func TestStackTaskRole(t *testing.T) {
	_, template := synth(t, DefaultStackConfig())

	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]interface{}{
		"RoleName": "artilleryio-control-panel-task-role-us-east-1",
		"ManagedPolicyArns": assertions.Match_ArrayWith(&[]interface{}{
			"arn:aws:iam::123456789012:policy/artilleryio-cli-user-us-east-1",
		}),
	})
	for _, name := range []string{"DynamoAuthTableAcccess", "ParamStoreAccess"} {
		template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]interface{}{
			"Policies": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{"PolicyName": name}),
			}),
		})
	}
}

func TestStackOutput(t *testing.T) {
	_, template := synth(t, DefaultStackConfig())

	template.HasOutput(jsii.String("*"), map[string]interface{}{
		"Export": map[string]interface{}{"Name": OutputExportName},
	})
}

func TestStackTags(t *testing.T) {
	config := DefaultStackConfig()
	config.Tags = map[string]string{"Project": "artillery"}
	stack, _ := synth(t, config)

	assert.Equal(t, DefaultStackName, *stack.StackName())
	assert.Equal(t, "artillery", *(*stack.Tags().TagValues())["Project"])
}

func TestStackLogsDefaultVPC(t *testing.T) {
	var buf bytes.Buffer
	synth(t, DefaultStackConfig(), WithLogger(zerolog.New(&buf)))

	out := buf.String()
	assert.Contains(t, out, "using default VPC as VPC_ID not provided")
	assert.Contains(t, out, `"cluster":"artilleryio-cluster"`)
	assert.Contains(t, out, `"clusterState":"expected to exist"`)
	assert.Contains(t, out, `"defaultVpc":true`)
}

func TestStackLogsExplicitVPCAndSecondary(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultStackConfig()
	config.Network = NetworkConfig{Mode: NetworkExplicit, VPCID: "vpc-0123"}
	config.SecondaryRegion = "eu-west-1"
	synth(t, config, WithLogger(zerolog.New(&buf)))

	out := buf.String()
	assert.NotContains(t, out, "using default VPC")
	assert.Contains(t, out, `"backendRegion":"eu-west-1"`)
}

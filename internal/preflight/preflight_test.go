package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
)

type fakeECS struct {
	clusters []ecstypes.Cluster
	err      error
	calls    int
}

func (f *fakeECS) DescribeClusters(_ context.Context, in *ecs.DescribeClustersInput, _ ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []ecstypes.Cluster
	for _, c := range f.clusters {
		for _, name := range in.Clusters {
			if aws.ToString(c.ClusterName) == name {
				out = append(out, c)
			}
		}
	}
	return &ecs.DescribeClustersOutput{Clusters: out}, nil
}

type fakeSSM struct {
	existing map[string]bool
	err      error
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range in.Names {
		if !f.existing[name] {
			out.InvalidParameters = append(out.InvalidParameters, name)
		}
	}
	return out, nil
}

func allParameters() *fakeSSM {
	existing := make(map[string]bool)
	for _, n := range ParameterNames() {
		existing[n] = true
	}
	return &fakeSSM{existing: existing}
}

func cluster(name, status string) ecstypes.Cluster {
	return ecstypes.Cluster{ClusterName: aws.String(name), Status: aws.String(status)}
}

func TestCheckCluster(t *testing.T) {
	tests := []struct {
		name     string
		clusters []ecstypes.Cluster
		wantErr  error
	}{
		{name: "active", clusters: []ecstypes.Cluster{cluster("artilleryio-cluster", "ACTIVE")}},
		{name: "missing", wantErr: ErrClusterNotFound},
		{name: "inactive", clusters: []ecstypes.Cluster{cluster("artilleryio-cluster", "INACTIVE")}, wantErr: ErrClusterInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Checker{ECS: &fakeECS{clusters: tt.clusters}, SSM: allParameters()}
			err := c.CheckCluster(context.Background(), "artilleryio-cluster")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckClusterAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	c := &Checker{ECS: &fakeECS{err: apiErr}}

	err := c.CheckCluster(context.Background(), "artilleryio-cluster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDeniedException")

	var got smithy.APIError
	assert.True(t, errors.As(err, &got))
}

func TestCheckParameters(t *testing.T) {
	ssmClient := allParameters()
	delete(ssmClient.existing, "/artilleryio/GITHUB_CLIENT_SECRET")
	c := &Checker{SSM: ssmClient}

	err := c.CheckParameters(context.Background(), ParameterNames())
	require.ErrorIs(t, err, ErrMissingParameters)
	assert.Contains(t, err.Error(), "/artilleryio/GITHUB_CLIENT_SECRET")
	assert.NotContains(t, err.Error(), "/artilleryio/NEXTAUTH_SECRET")
}

func TestRunSkipsClusterCheckWhenCreating(t *testing.T) {
	ecsClient := &fakeECS{}
	c := &Checker{ECS: ecsClient, SSM: allParameters()}

	config := controlpanel.DefaultStackConfig()
	config.Cluster.Mode = controlpanel.ClusterCreate

	require.NoError(t, c.Run(context.Background(), config))
	assert.Zero(t, ecsClient.calls)
}

func TestRunJoinsErrors(t *testing.T) {
	c := &Checker{ECS: &fakeECS{}, SSM: &fakeSSM{}}

	err := c.Run(context.Background(), controlpanel.DefaultStackConfig())
	assert.ErrorIs(t, err, ErrClusterNotFound)
	assert.ErrorIs(t, err, ErrMissingParameters)
}

func TestParameterNames(t *testing.T) {
	assert.Equal(t, []string{
		"/artilleryio/NEXTAUTH_SECRET",
		"/artilleryio/GITHUB_CLIENT_ID",
		"/artilleryio/GITHUB_CLIENT_SECRET",
		"/artilleryio/GITHUB_ALLOWED_USERS",
	}, ParameterNames())
}

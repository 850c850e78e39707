package params

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	inputs []*ssm.PutParameterInput
	err    error
}

func (f *fakeSSM) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.PutParameterOutput{Version: int64(len(f.inputs))}, nil
}

func TestSelect(t *testing.T) {
	found, missing := Select(map[string]string{
		"GITHUB_CLIENT_ID": "abc",
		"NEXTAUTH_SECRET":  "s3cr3t",
		"UNRELATED":        "x",
	})

	require.Len(t, found, 2)
	assert.Equal(t, Parameter{Key: "NEXTAUTH_SECRET", Name: "/artilleryio/NEXTAUTH_SECRET", Value: "s3cr3t"}, found[0])
	assert.Equal(t, "/artilleryio/GITHUB_CLIENT_ID", found[1].Name)
	assert.Equal(t, []string{"GITHUB_CLIENT_SECRET", "GITHUB_ALLOWED_USERS"}, missing)
}

func TestPut(t *testing.T) {
	client := &fakeSSM{}

	version, err := Put(context.Background(), client, Parameter{
		Key:   "NEXTAUTH_SECRET",
		Name:  "/artilleryio/NEXTAUTH_SECRET",
		Value: "s3cr3t",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "/artilleryio/NEXTAUTH_SECRET", aws.ToString(in.Name))
	assert.Equal(t, "s3cr3t", aws.ToString(in.Value))
	assert.Equal(t, types.ParameterTypeSecureString, in.Type)
	assert.True(t, aws.ToBool(in.Overwrite))
}

func TestPutErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "throttled", err: &types.TooManyUpdates{Message: aws.String("slow down")}, want: "retry later"},
		{name: "api error", err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}, want: "AccessDeniedException"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Put(context.Background(), &fakeSSM{err: tt.err}, Parameter{Name: "/artilleryio/X"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***", Mask("short"))
	assert.Equal(t, "ghp_***", Mask("ghp_0123456789"))
}

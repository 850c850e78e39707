// Package params writes the control panel secrets to SSM Parameter Store.
package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
)

// PutParameterAPI is the subset of the SSM client used to write parameters.
type PutParameterAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// Parameter is one control panel secret.
type Parameter struct {
	// Key is the environment variable name, e.g. NEXTAUTH_SECRET.
	Key string
	// Name is the full parameter name, e.g. /artilleryio/NEXTAUTH_SECRET.
	Name  string
	Value string
}

// Select picks the control panel secrets out of values, in the order the
// task definition declares them. Secrets absent from values are returned as
// missing.
func Select(values map[string]string) (found []Parameter, missing []string) {
	for _, key := range controlpanel.SecretNames {
		v, ok := values[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		found = append(found, Parameter{
			Key:   key,
			Name:  controlpanel.DefaultParameterNamespace + "/" + key,
			Value: v,
		})
	}
	return found, missing
}

// Put writes p as a SecureString, overwriting any existing value, and returns
// the new parameter version.
func Put(ctx context.Context, client PutParameterAPI, p Parameter) (int64, error) {
	out, err := client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(p.Name),
		Value:       aws.String(p.Value),
		Type:        types.ParameterTypeSecureString,
		Overwrite:   aws.Bool(true),
		Description: aws.String("Artillery control panel " + p.Key),
	})
	if err != nil {
		var tooMany *types.TooManyUpdates
		if errors.As(err, &tooMany) {
			return 0, fmt.Errorf("writing %s: too many concurrent updates, retry later: %w", p.Name, err)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return 0, fmt.Errorf("writing %s: %s: %w", p.Name, apiErr.ErrorCode(), err)
		}
		return 0, fmt.Errorf("writing %s: %w", p.Name, err)
	}
	return out.Version, nil
}

// Mask hides a secret value for display, keeping a short prefix of long
// values.
func Mask(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***"
}

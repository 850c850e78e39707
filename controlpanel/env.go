package controlpanel

// Environment variables read by LoadConfigFromEnv.
const (
	EnvUseTLS               = "USE_TLS"
	EnvUseInternetFacingALB = "USE_INTERNET_FACING_ALB"
	EnvACMCertARN           = "ACM_CERT_ARN"
	EnvVPCID                = "VPC_ID"
	EnvFargateClusterName   = "FARGATE_CLUSTER_NAME"
	EnvCreateCluster        = "CREATE_CLUSTER"
	EnvAuthTableName        = "AUTH_TABLE_NAME"
	EnvArtilleryBackend     = "ARTILLERY_BACKEND"
	EnvCLIUserPolicyARN     = "CLI_USER_POLICY_ARN_OVERRIDE"
	EnvCDKDefaultRegion     = "CDK_DEFAULT_REGION"
	EnvCDKDefaultAccount    = "CDK_DEFAULT_ACCOUNT"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// MapLookup adapts a map to a LookupFunc.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// LoadConfigFromEnv builds and validates a StackConfig from environment
// variables. USE_TLS and USE_INTERNET_FACING_ALB are presence flags: any value,
// including the empty string, enables them. CREATE_CLUSTER must be exactly
// "true".
func LoadConfigFromEnv(lookup LookupFunc) (StackConfig, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	present := func(key string) bool {
		_, ok := lookup(key)
		return ok
	}

	b := NewStackBuilder().
		WithEnvironment(get(EnvCDKDefaultAccount), get(EnvCDKDefaultRegion)).
		WithAuthTable(get(EnvAuthTableName)).
		WithSecondaryRegion(get(EnvArtilleryBackend)).
		WithCLIUserPolicy(get(EnvCLIUserPolicyARN))

	if present(EnvUseTLS) {
		b.WithTLS(get(EnvACMCertARN))
	}
	if present(EnvUseInternetFacingALB) {
		b.InternetFacing()
	}

	// An empty VPC_ID is passed through so that validation rejects it rather
	// than silently falling back to the default VPC.
	if vpcID, ok := lookup(EnvVPCID); ok {
		b.WithVPC(vpcID)
	} else {
		b.WithDefaultVPC()
	}

	clusterName := get(EnvFargateClusterName)
	if get(EnvCreateCluster) == "true" {
		b.CreateCluster(clusterName)
	} else {
		b.ReferenceCluster(clusterName)
	}

	if err := b.Validate(); err != nil {
		return StackConfig{}, err
	}
	return b.Config(), nil
}

package controlpanel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStackConfig(t *testing.T) {
	c := DefaultStackConfig()

	assert.Equal(t, DefaultStackID, c.StackID)
	assert.Equal(t, DefaultStackName, c.StackName)
	assert.Equal(t, ClusterConfig{Name: DefaultClusterName, Mode: ClusterReference}, c.Cluster)
	assert.Equal(t, NetworkConfig{Mode: NetworkDefault}, c.Network)
	assert.Equal(t, DefaultAuthTableName, c.AuthTableName)
	assert.Equal(t, DefaultImage, c.Image)
	assert.NoError(t, c.Validate())
}

func TestApplyDefaultsInfersExplicitNetwork(t *testing.T) {
	c := StackConfig{Network: NetworkConfig{VPCID: "vpc-123"}}
	c.ApplyDefaults()

	assert.Equal(t, NetworkExplicit, c.Network.Mode)
	assert.False(t, c.UsesDefaultVPC())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*StackConfig)
		wantErr error
		wantMsg string
	}{
		{
			name:   "defaults",
			modify: func(*StackConfig) {},
		},
		{
			name: "internet facing without TLS",
			modify: func(c *StackConfig) {
				c.InternetFacing = true
			},
			wantErr: ErrInternetFacingRequiresTLS,
		},
		{
			name: "internet facing with certificate but TLS off",
			modify: func(c *StackConfig) {
				c.InternetFacing = true
				c.TLS = TLSConfig{CertificateARN: "arn:aws:acm:us-east-1:123456789012:certificate/abc"}
			},
			wantErr: ErrInternetFacingRequiresTLS,
		},
		{
			name: "TLS without certificate",
			modify: func(c *StackConfig) {
				c.TLS = TLSConfig{Enabled: true}
			},
			wantErr: ErrCertificateRequired,
		},
		{
			name: "internet facing with TLS",
			modify: func(c *StackConfig) {
				c.InternetFacing = true
				c.TLS = TLSConfig{Enabled: true, CertificateARN: "arn:aws:acm:us-east-1:123456789012:certificate/abc"}
			},
		},
		{
			name: "unknown cluster mode",
			modify: func(c *StackConfig) {
				c.Cluster.Mode = "adopt"
			},
			wantMsg: `unknown cluster mode "adopt"`,
		},
		{
			name: "empty cluster name",
			modify: func(c *StackConfig) {
				c.Cluster.Name = ""
			},
			wantMsg: "cluster name is required",
		},
		{
			name: "explicit network without VPC",
			modify: func(c *StackConfig) {
				c.Network = NetworkConfig{Mode: NetworkExplicit}
			},
			wantMsg: "requires a VPC ID",
		},
		{
			name: "unknown network mode",
			modify: func(c *StackConfig) {
				c.Network.Mode = "peered"
			},
			wantMsg: `unknown network mode "peered"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultStackConfig()
			tt.modify(&c)

			err := c.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheme(t *testing.T) {
	c := DefaultStackConfig()
	assert.Equal(t, "http", c.Scheme())

	c.TLS = TLSConfig{Enabled: true, CertificateARN: "arn"}
	assert.Equal(t, "https", c.Scheme())
}

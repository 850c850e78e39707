package controlpanel

import (
	"github.com/rs/zerolog"
)

// logResolved reports the account, region, cluster and VPC the stack resolved.
func (s *ControlPanelStack) logResolved() {
	clusterState := "expected to exist"
	if s.Topology.Cluster.Mode == ClusterCreate {
		clusterState = "will be created"
	}

	event := s.logger.Info().
		Str("account", deref(s.Stack.Account())).
		Str("region", deref(s.Stack.Region())).
		Str("cluster", s.Topology.Cluster.Name).
		Str("clusterState", clusterState).
		Str("clusterVpc", deref(s.Cluster.Vpc().VpcId())).
		Str("vpcId", deref(s.VPC.VpcId())).
		Str("vpcCidr", deref(s.VPC.VpcCidrBlock()))
	if s.Topology.Network.Mode == NetworkDefault {
		event = event.Bool("defaultVpc", true)
	}
	event.Msg("resolved deployment target")

	if s.Topology.Network.Mode == NetworkDefault {
		s.logger.Warn().Msg("using default VPC as VPC_ID not provided")
	}
	if s.Topology.SecondaryRegion != "" {
		s.logger.Info().
			Str("backendRegion", s.Topology.SecondaryRegion).
			Msg("deployment will be configured as a secondary")
	}
}

// NewConsoleLogger returns the console logger used by the CDK app.
func NewConsoleLogger(w zerolog.ConsoleWriter, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", "control-panel-cdk").
		Logger()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

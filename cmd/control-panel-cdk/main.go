// control-panel-cdk is the CDK app that synthesizes the control panel stack.
//
// It reads its configuration from the environment once at startup and is run
// by the cdk CLI through cdk.json:
//
//	cdk synth
//	CREATE_CLUSTER=true cdk deploy
//	USE_TLS=1 ACM_CERT_ARN=arn:aws:acm:... USE_INTERNET_FACING_ALB=1 cdk deploy
package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/artilleryio/control-panel-deploy-cdk/controlpanel"
)

func main() {
	logger := controlpanel.NewConsoleLogger(zerolog.ConsoleWriter{Out: os.Stderr}, zerolog.InfoLevel)

	config, err := controlpanel.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	app := controlpanel.NewApp()
	if _, err := controlpanel.NewControlPanelStack(app, config, controlpanel.WithLogger(logger)); err != nil {
		logger.Error().Err(err).Msg("building stack")
		os.Exit(1)
	}
	controlpanel.Synth(app)
}

package cashcow

import "go.uber.org/zap"

// NewDevelopmentLogger builds a human-readable, colorized logger suited to
// local runs of the demo CLI.
func NewDevelopmentLogger() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// NewProductionLogger builds a JSON structured logger suited to long-running
// or unattended forecasting jobs.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

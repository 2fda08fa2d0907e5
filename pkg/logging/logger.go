package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger. Production config (JSON, info)
// everywhere except local, which gets the development console encoder.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

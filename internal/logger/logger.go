package logger

import (
	"go.uber.org/zap"

	"studycards/internal/config"
)

// New builds the application logger for the configured environment
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

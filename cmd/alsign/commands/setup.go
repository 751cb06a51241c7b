package commands

import (
	"fmt"

	"github.com/5ys-5y5/alsign-sub001/pkg/config"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// bootstrap loads configuration and builds the logger every command starts
// from. The verbose flag forces debug-level output.
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	log := logger.New(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Env:    cfg.Env,
	})

	return cfg, log, nil
}

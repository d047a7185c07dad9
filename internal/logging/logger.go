package logging

import (
	"fmt"

	"github.com/mikey/phishguard/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger initializes the daemon logger from the logging configuration
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	return New(cfg.GetLogging(), "phishguard")
}

// InitConsoleLogger initializes the phishguard-check logger. It always writes
// to stderr since the features command may write CSV to stdout.
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	logCfg := config.LoggingConfig{Level: "info", Format: "console", Output: "stderr"}
	if verbose {
		logCfg.Level = "debug"
	}
	if jsonFormat {
		logCfg.Format = "json"
	}
	return New(logCfg, "phishguard-check")
}

// New builds a logger tagged with the service name. An unknown level falls
// back to info.
func New(logCfg config.LoggingConfig, service string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logCfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if logCfg.Format == "json" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	if logCfg.Output != "" {
		logConfig.OutputPaths = []string{logCfg.Output}
	}
	logConfig.InitialFields = map[string]interface{}{"service": service}

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}

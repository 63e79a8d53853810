package util

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// InitLogger initializes the global logger. Production gets JSON at info
// level, everything else colored console output at debug; LOG_LEVEL
// overrides either.
func InitLogger(env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if lvl, err := zapcore.ParseLevel(raw); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	built, err := config.Build(zap.Fields(
		zap.String("service", "inventory-hub"),
		zap.String("env", env),
	))
	if err != nil {
		return err
	}

	logger = built
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}

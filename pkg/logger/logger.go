package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process-wide logger, falling back to the zap global if
// initialization has not run yet.
func L() *zap.Logger {
	if log != nil {
		return log
	}
	return zap.L()
}

// InitializeWithConfig initializes the logger with a custom zap.Config.
func InitializeWithConfig(cfg zap.Config) error {
	built, err := cfg.Build()
	if err != nil {
		return err
	}
	log = built
	zap.ReplaceGlobals(log)
	return nil
}

// Sync flushes any buffered log entries. Safe to call on shutdown.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}

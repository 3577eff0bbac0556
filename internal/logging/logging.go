// Package logging provides the shared zap logger used across the service.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.Logger
	once   sync.Once
)

// Init builds the global logger. Production mode emits JSON with ISO8601
// timestamps; anything else gets the colored development encoder. Safe to
// call more than once; only the first call takes effect.
func Init(environment, level string) *zap.Logger {
	once.Do(func() {
		var cfg zap.Config
		if environment == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			cfg.DisableStacktrace = true
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		var err error
		global, err = cfg.Build(zap.AddCaller())
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		zap.ReplaceGlobals(global)
	})
	return global
}

// L returns the global logger, initializing a development logger if Init
// has not been called (tests, seed tools).
func L() *zap.Logger {
	if global == nil {
		return Init("development", "debug")
	}
	return global
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Package logger builds the shared zap logger for the matcher service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event categories used across the pipeline for structured log filtering.
// External monitoring alerts on these (e.g. duplicate-rate spikes).
const (
	CategoryDuplicate  = "DB:DUPLICATE"
	CategoryCreate     = "DB:CREATE"
	CategoryDelete     = "DB:DELETE"
	CategoryTransition = "QUEUE:TRANSITION"
	CategoryLedger     = "SCORE:LEDGER"
)

// New builds a zap.Logger. json switches the encoding, debug lowers the level.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	return cfg.Build()
}

// Category returns the standard field tagging a log event for monitoring.
func Category(c string) zap.Field {
	return zap.String("category", c)
}

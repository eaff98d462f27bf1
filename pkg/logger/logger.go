package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Until Initialize runs the package logs nowhere, which keeps tests quiet.
var log = zap.NewNop()

func Initialize(logLevel string) error {
	zLevel, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	config := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(zLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:    "message",
			LevelKey:      "level",
			TimeKey:       "time",
			CallerKey:     "caller",
			StacktraceKey: "stacktrace",
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			EncodeTime:    zapcore.ISO8601TimeEncoder,
			EncodeCaller:  zapcore.ShortCallerEncoder,
		},
	}

	built, err := config.Build(zap.Fields(zap.String("service", "nftmint-rewards")))
	if err != nil {
		return err
	}
	log = built

	return nil
}

func Logger() *zap.Logger {
	return log
}

// Wallet is the field every domain log line carries.
func Wallet(address string) zap.Field {
	return zap.String("wallet", address)
}

func Sync() error {
	return log.Sync()
}

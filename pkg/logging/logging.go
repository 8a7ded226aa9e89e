package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

func get() *zap.Logger {
	once.Do(func() {
		var (
			l   *zap.Logger
			err error
		)
		if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
			l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
		} else {
			l, err = zap.NewProduction(zap.AddCallerSkip(1))
		}
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	get().Fatal(msg, fields...)
}

func Sync() error {
	return get().Sync()
}

package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level    zapcore.Level
	FilePath string
}

var (
	defaultLogger     *zap.Logger
	defaultLoggerOnce sync.Once
	conf              = &Config{Level: zapcore.InfoLevel}
)

func SetConfig(c *Config) {
	conf = &Config{Level: c.Level, FilePath: c.FilePath}
}

// NewLogger builds a console logger, teeing into a rotated JSON file
// when a path is configured.
func NewLogger(conf *Config) *zap.Logger {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(ec),
			zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(conf.Level)),
	}

	if conf.FilePath != "" {
		rotated := &lumberjack.Logger{
			Filename:   conf.FilePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     15,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotated), zap.NewAtomicLevelAt(conf.Level)))
	}

	return zap.New(zapcore.NewTee(cores...))
}

func DefaultLogger() *zap.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(conf)
	})
	return defaultLogger
}

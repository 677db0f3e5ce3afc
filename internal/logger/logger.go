// Package logger provides leveled logging backed by zap.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// ParseLevel maps a config level name to a zap level. Unknown names default to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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

// Init installs the process-wide logger with the given level and format ("json" or "console").
func Init(level, format string) error {
	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	set(l)
	return nil
}

func set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debug(format string, args ...interface{}) { current().Debugf(format, args...) }

func Info(format string, args ...interface{}) { current().Infof(format, args...) }

func Warn(format string, args ...interface{}) { current().Warnf(format, args...) }

func Error(format string, args ...interface{}) { current().Errorf(format, args...) }

// Fatal logs at error level, flushes and exits the process.
func Fatal(format string, args ...interface{}) {
	l := current()
	l.Errorf(format, args...)
	_ = l.Sync()
	os.Exit(1)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = current().Sync()
}

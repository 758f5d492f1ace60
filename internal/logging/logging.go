// Package logging builds the zap loggers used across apphost.
//
// Packages never create their own root logger. They accept a *zap.Logger
// through an option and fall back to L(), which is a no-op logger until the
// entry point calls Set.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the root logger.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string `toml:"level" yaml:"level"`

	// Format is "console" or "json".
	Format string `toml:"format" yaml:"format"`

	// Development enables zap's development mode (stack traces on warn).
	Development bool `toml:"development" yaml:"development"`
}

// DefaultConfig returns the logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
	}
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a logger from cfg. Output goes to stderr.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}

	switch strings.ToLower(cfg.Format) {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
)

// L returns the process-wide logger. It is a no-op logger until Set is called.
func L() *zap.Logger {
	loggerOnce.Do(func() {
		loggerMu.Lock()
		if logger == nil {
			logger = zap.NewNop()
		}
		loggerMu.Unlock()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Set replaces the process-wide logger. Call it once, early in main.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerOnce.Do(func() {})
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Named returns l.Named(name), or L().Named(name) when l is nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		l = L()
	}
	return l.Named(name)
}

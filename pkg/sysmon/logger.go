package sysmon

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for custom logging.
// Arguments after msg are alternating key-value pairs.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// ZapAdapter wraps a *zap.Logger to implement the Logger interface.
//
// Example:
//
//	logger, _ := sysmon.NewZapLogger("debug", "json")
//	opts := sysmon.DefaultOptions()
//	opts.Logger = sysmon.NewZapAdapter(logger)
type ZapAdapter struct {
	logger *zap.SugaredLogger
}

// NewZapAdapter creates a Logger adapter from a *zap.Logger.
// If logger is nil, zap.NewNop() is used.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{logger: logger.Sugar()}
}

// Debug logs a debug-level message with optional key-value pairs.
func (z *ZapAdapter) Debug(msg string, args ...any) {
	z.logger.Debugw(msg, args...)
}

// Info logs an info-level message with optional key-value pairs.
func (z *ZapAdapter) Info(msg string, args ...any) {
	z.logger.Infow(msg, args...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (z *ZapAdapter) Warn(msg string, args ...any) {
	z.logger.Warnw(msg, args...)
}

// Error logs an error-level message with optional key-value pairs.
func (z *ZapAdapter) Error(msg string, args ...any) {
	z.logger.Errorw(msg, args...)
}

// NewZapLogger builds a zap logger writing to stderr. level is one of
// debug, info, warn or error; format is "json" or "console".
func NewZapLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// NopLogger returns a Logger that discards all log messages.
func NopLogger() Logger {
	return &nopLogger{}
}

// nopLogger implements Logger but discards all messages.
type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

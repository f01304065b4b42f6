// Package logger holds the process-wide structured logger.
//
// The logger is a no-op until Initialize is called, so packages can log
// unconditionally (including from tests) without nil checks.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance.
var Logger = zap.NewNop().Sugar()

// Options controls how Initialize builds the logger.
type Options struct {
	JSON  bool   // JSON output for machine consumption.
	Level string // debug, info, warn, error (default: info).
}

// Initialize sets up the global logger. Logs always go to stderr so stdout
// stays free for command output.
func Initialize(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	if opts.JSON {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}

		zapLogger, err := config.Build()
		if err != nil {
			return err
		}
		Logger = zapLogger.Sugar()
		return nil
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.CallerKey = ""

	Logger = zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)).Sugar()

	return nil
}

// Use replaces the global logger and returns a function restoring the
// previous one. Intended for tests that assert on log output.
func Use(l *zap.Logger) (restore func()) {
	prev := Logger
	Logger = l.Sugar()
	return func() { Logger = prev }
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	_ = Logger.Sync()
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	Logger.Debugw(msg, keysAndValues...)
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	Logger.Infow(msg, keysAndValues...)
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	Logger.Warnw(msg, keysAndValues...)
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	Logger.Errorw(msg, keysAndValues...)
}

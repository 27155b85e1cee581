// Package logger provides logging for the radar-trace CLI.
//
// Every message is written to the run log (a JSON file built with zap) once Init
// has been called. When verbose mode is enabled via the --verbose flag, messages
// are also printed to stderr so an operator can follow a run as it happens.
// Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	runLog            = zap.NewNop().Sugar()
)

// Init opens the run log at path, appending to it, at the given level
// ("debug", "info", "warn", "error"). An empty level means info.
func Init(path, level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	runLog = l.Sugar()
	return nil
}

// Sync flushes the run log.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return runLog.Sync()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for console logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	logf(zapcore.DebugLevel, "[DEBUG] ", false, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	runLog.Debugw("section", "name", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	logf(zapcore.InfoLevel, "[INFO] ", false, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...any) {
	logf(zapcore.WarnLevel, "[WARN] ", false, format, args...)
}

// Error logs an error message. It is printed even when verbose mode is off.
func Error(format string, args ...any) {
	logf(zapcore.ErrorLevel, "[ERROR] ", true, format, args...)
}

// Event writes a structured entry to the run log only.
func Event(msg string, keysAndValues ...any) {
	mu.RLock()
	defer mu.RUnlock()
	runLog.Infow(msg, keysAndValues...)
}

func logf(level zapcore.Level, prefix string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()

	msg := fmt.Sprintf(format, args...)
	if verbose || always {
		fmt.Fprintf(output, "%s%s\n", prefix, msg)
	}

	switch level {
	case zapcore.DebugLevel:
		runLog.Debug(msg)
	case zapcore.WarnLevel:
		runLog.Warn(msg)
	case zapcore.ErrorLevel:
		runLog.Error(msg)
	default:
		runLog.Info(msg)
	}
}

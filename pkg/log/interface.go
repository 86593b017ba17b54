// Package log provides a structured logging interface for matpipe operations.
//
// The interface is slog-compatible in shape so that callers only depend on
// Debug/Info/Warn/Error/With. The default implementation is backed by zerolog
// (see zerolog.go); tests use TestLogger.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("pipeline.union").With(
//	    log.BlockKey, "density",
//	)
//	logger.Debug("block featurized",
//	    log.SamplesKey, 1181,
//	    log.FeaturesKey, 3,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. Error additionally accepts an error
// as its first field; implementations attach it (and its stack trace when the
// error carries one) under ErrorKey.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If the first field is an error, it is handled specially.
	//
	// Example:
	//   logger.Error("cross-validation failed",
	//       err,
	//       log.OperationKey, log.OperationCrossValidate,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn", "error")
// into a Level. The second result is false for unknown names.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug, true
	case "info", "INFO", "":
		return LevelInfo, true
	case "warn", "WARN", "warning":
		return LevelWarn, true
	case "error", "ERROR":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}

package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Level represents logging severity.
type Level int

const (
	// LevelDebug for detailed stage-by-stage pipeline information.
	LevelDebug Level = iota
	// LevelInfo for routing decisions and stage results.
	LevelInfo
	// LevelWarn for degraded-but-continuing conditions.
	LevelWarn
	// LevelError for stage failures.
	LevelError
	// LevelNone disables all logging.
	LevelNone
)

// Logger is the logging interface used across the pipeline.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// DefaultLogger implements Logger using Go's standard log package.
type DefaultLogger struct {
	logger *log.Logger
	level  Level
}

// NewDefaultLogger creates a logger writing to stderr.
func NewDefaultLogger(level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[docuforge] ", log.LstdFlags),
		level:  level,
	}
}

// NewCustomLogger creates a logger with a custom output writer.
func NewCustomLogger(out io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(out, "[docuforge] ", log.LstdFlags),
		level:  level,
	}
}

// Debug logs debug messages.
func (l *DefaultLogger) Debug(format string, v ...any) {
	if l.level <= LevelDebug {
		l.logger.Printf("[DEBUG] "+format, v...)
	}
}

// Info logs informational messages.
func (l *DefaultLogger) Info(format string, v ...any) {
	if l.level <= LevelInfo {
		l.logger.Printf("[INFO] "+format, v...)
	}
}

// Warn logs warning messages.
func (l *DefaultLogger) Warn(format string, v ...any) {
	if l.level <= LevelWarn {
		l.logger.Printf("[WARN] "+format, v...)
	}
}

// Error logs error messages.
func (l *DefaultLogger) Error(format string, v ...any) {
	if l.level <= LevelError {
		l.logger.Printf("[ERROR] "+format, v...)
	}
}

// NoOpLogger discards all messages.
type NoOpLogger struct{}

func (NoOpLogger) Debug(format string, v ...any) {}
func (NoOpLogger) Info(format string, v ...any)  {}
func (NoOpLogger) Warn(format string, v ...any)  {}
func (NoOpLogger) Error(format string, v ...any) {}

// String returns the string representation of a Level.
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
	case LevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// Package-level logger. Defaults to info-level stderr output.
var defaultLogger Logger = NewDefaultLogger(LevelInfo)

// SetDefaultLogger replaces the package-level logger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the current package-level logger.
func GetDefaultLogger() Logger {
	return defaultLogger
}

// ParseLevel converts a level name ("debug", "info", ...) to a Level.
// Unknown names default to LevelInfo.
func ParseLevel(name string) Level {
	switch name {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "disable":
		return LevelNone
	default:
		return LevelInfo
	}
}

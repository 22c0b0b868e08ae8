package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	base   *slog.Logger
	output io.Writer = os.Stdout
)

// Logger returns the process-wide JSON logger. The level comes from LOG_LEVEL.
func Logger() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = newLogger(output, os.Getenv("LOG_LEVEL"))
	}
	return base
}

// SetOutput redirects all subsequent log output. Used by tests and CLIs.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(w, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)})
	return slog.New(handler)
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, kv ...any) {
	Logger().Debug(msg, kv...)
}

// Info logs an info message with optional key/value pairs.
func Info(msg string, kv ...any) {
	Logger().Info(msg, kv...)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, kv ...any) {
	Logger().Warn(msg, kv...)
}

// Error logs an error message with optional key/value pairs.
func Error(msg string, kv ...any) {
	Logger().Error(msg, kv...)
}

// Component returns a logger pre-tagged with a component field.
func Component(name string) *slog.Logger {
	return Logger().With(slog.String("component", name))
}

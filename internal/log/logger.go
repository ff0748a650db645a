// Package log wraps slog with a per-component attribute so every line
// names the subsystem that emitted it.
package log

import (
	"log/slog"
	"os"
)

type Logger struct {
	*slog.Logger
	component string
}

// New builds a text-handler logger at the given level. Unknown level
// strings fall back to info.
func New(level, component string) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{
		Logger:    slog.New(handler).With("component", component),
		component: component,
	}
}

// ParseLevel maps a config token to a slog level.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent derives a logger for a subsystem.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process-wide slog default so
// library code using slog.Default lands in the same stream.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}

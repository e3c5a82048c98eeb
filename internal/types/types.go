// Package types holds the logging wrapper and diagnostic codes shared by
// the goibis internals.
package types

import (
	"context"
	"log/slog"
)

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-line logging (keyword open, close and finish).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = slog.Level(-8)

// Logger is a nil-safe slog wrapper embedded by the parser, the grammar
// context and the writer. The zero value discards everything.
type Logger struct {
	l *slog.Logger
}

// NewLogger tags logger with a component attribute. A nil logger gives
// the zero Logger.
func NewLogger(logger *slog.Logger, component string) Logger {
	if logger == nil {
		return Logger{}
	}
	return Logger{l: logger.With(slog.String("component", component))}
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.l != nil && l.l.Enabled(context.Background(), level)
}

// Log emits msg at level.
func (l *Logger) Log(level slog.Level, msg string, attrs ...slog.Attr) {
	if l.Enabled(level) {
		l.l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

// TraceEnabled guards attribute construction on hot paths.
func (l *Logger) TraceEnabled() bool { return l.Enabled(LevelTrace) }

func (l *Logger) Trace(msg string, attrs ...slog.Attr) { l.Log(LevelTrace, msg, attrs...) }

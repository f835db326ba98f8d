// Package logging wires go-wipecore's ambient structured logging. Every
// subsystem accepts a *Logger, which is nil-safe to call (logiface's
// Context/Builder methods are all safe on a nil receiver), so tests and
// library callers that don't care about logs may simply omit it.
package logging

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	slogadapter "github.com/joeycumines/logiface-slog"
)

// Logger is the structured logger type threaded through go-wipecore.
type Logger = logiface.Logger[*slogadapter.Event]

// New builds a Logger writing JSON to os.Stderr at the given minimum
// level, via the logiface-slog adapter. This mirrors
// logiface-slog's own documented construction:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
//	logger := logiface.New[*Event](NewLogger(handler))
func New(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return logiface.New[*slogadapter.Event](slogadapter.NewLogger(handler))
}

// Nop returns a Logger with no backing handler; every Builder method on it
// is a safe no-op, matching logiface's nil-receiver guarantee.
func Nop() *Logger {
	return (*Logger)(nil)
}

// WithComponent returns a sub-logger that tags every event with
// component=name, using logiface's Context/Clone mechanism.
func WithComponent(l *Logger, name string) *Logger {
	if l == nil {
		return l
	}
	return l.Clone().Str("component", name).Logger()
}

package logging

import (
	"log/slog"
	"time"
)

// FieldErrorHint carries an operator-facing remedy next to a logged error.
const FieldErrorHint = "error_hint"

type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Any(key string, value any) Attr { return slog.Any(key, value) }

// Error renders err under the "error" key; a nil error is spelled out rather than dropped.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorHint attaches a remedy for the operator to a warning or error line.
func ErrorHint(hint string) Attr { return slog.String(FieldErrorHint, hint) }

func toArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs at WARN with an event_type, unless attrs already set one.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	tagged := false
	for _, a := range attrs {
		if a.Key == FieldEventType {
			tagged = true
			break
		}
	}
	if !tagged {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	logger.Warn(msg, toArgs(attrs)...)
}

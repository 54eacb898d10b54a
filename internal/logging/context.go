package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTaskID is the standardized structured logging key for task identifiers.
	FieldTaskID = "task_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldRole is the standardized structured logging key for the acting role.
	FieldRole = "role"
	// FieldActor is the standardized structured logging key for the acting user.
	FieldActor = "actor"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies log lines for filtering.
	FieldEventType = "event_type"
)

type contextKey int

const (
	taskIDKey contextKey = iota
	stageKey
	actorKey
	roleKey
	requestIDKey
)

// WithTaskID stores the task identifier on ctx.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// WithStage stores the pipeline stage on ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// WithActor stores the acting user id and role on ctx.
func WithActor(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, actorKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// WithRequestID stores a correlation id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id stored on ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	for _, entry := range []struct {
		key   contextKey
		field string
	}{
		{taskIDKey, FieldTaskID},
		{stageKey, FieldStage},
		{actorKey, FieldActor},
		{roleKey, FieldRole},
		{requestIDKey, FieldCorrelationID},
	} {
		if v, ok := ctx.Value(entry.key).(string); ok && v != "" {
			fields = append(fields, slog.String(entry.field, v))
		}
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}

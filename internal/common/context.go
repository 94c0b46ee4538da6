package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyEventID       contextKey = "event_id"
	ContextKeyCorrelationID contextKey = "correlation_id"
)

// WithEventID adds the upstream event id to the context
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, ContextKeyEventID, eventID)
}

// EventIDFromContext extracts the event id from context
func EventIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyEventID).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID adds a correlation id to the context
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}

// CorrelationIDFromContext extracts the correlation id from context
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// LoggerFrom decorates logger with the ids carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := EventIDFromContext(ctx); id != "" {
		logger = logger.With("event_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		logger = logger.With("correlation_id", id)
	}
	return logger
}

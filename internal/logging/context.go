package logging

import (
	"context"
	"log/slog"

	"animap/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for update run identifiers.
	FieldRunID = "run_id"
	// FieldCollection is the standardized structured logging key for source/target collections.
	FieldCollection = "collection"
	// FieldItemKey is the standardized structured logging key for index keys.
	FieldItemKey = "item_key"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if collection, ok := services.CollectionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCollection, collection))
	}
	if key, ok := services.ItemKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemKey, key))
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
	return logger.With(attrsToArgs(fields)...)
}

package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	collectionKey contextKey = "collection"
	itemKeyKey    contextKey = "item_key"
)

// WithRunID annotates context with the update run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the update run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCollection annotates context with the collection being reconciled (e.g. tvdb/anidb).
func WithCollection(ctx context.Context, collection string) context.Context {
	if collection == "" {
		return ctx
	}
	return context.WithValue(ctx, collectionKey, collection)
}

// CollectionFromContext returns the collection name if present.
func CollectionFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(collectionKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithItemKey annotates context with the index key currently being merged.
func WithItemKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, itemKeyKey, key)
}

// ItemKeyFromContext returns the index key if present.
func ItemKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

package testsupport

import (
	"context"
	"testing"

	"animap/internal/config"
	"animap/internal/index"
	"animap/internal/mapping"
)

// MustOpenStore opens an index.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()

	store, err := index.Open(cfg)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustGetEntry fetches key from collection and fails the test when it is missing.
func MustGetEntry(t testing.TB, store *index.Store, collection mapping.Collection, key string) *index.Entry {
	t.Helper()

	entry, err := store.Collection(collection).Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s/%s: %v", collection, key, err)
	}
	if entry == nil {
		t.Fatalf("expected entry %s/%s", collection, key)
	}
	return entry
}

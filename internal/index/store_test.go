package index_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"animap/internal/index"
	"animap/internal/mapping"
	"animap/internal/testsupport"
)

var tvdbToAniDB = mapping.MustParseCollection("tvdb/anidb")

func sampleItem() *mapping.Item {
	item := mapping.NewItem(tvdbToAniDB, mapping.MediaShow)
	item.Identifiers = mapping.Identifiers{mapping.AniDB: {"3395"}, mapping.TVDb: {"79604"}}
	item.Names = mapping.Names{"3395": mapping.NameSet{"Black Lagoon"}}
	item.Parameters = mapping.Parameters{DefaultSeason: "1"}
	return item
}

func TestGetMissingEntryReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	entry, err := store.Collection(tvdbToAniDB).Get(context.Background(), "79604")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %#v", entry)
	}
}

func TestCreateSetUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coll := store.Collection(tvdbToAniDB)
	ctx := context.Background()

	entry := coll.Create("79604")
	if err := coll.Set(ctx, "79604", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := coll.Update(ctx, entry, sampleItem(), "3395", "hash-1"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if entry.Revision != 1 || entry.Hashes["3395"] != "hash-1" {
		t.Fatalf("entry not updated in place: %#v", entry)
	}

	fetched := testsupport.MustGetEntry(t, store, tvdbToAniDB, "79604")
	if fetched.Revision != 1 {
		t.Fatalf("got revision %d want 1", fetched.Revision)
	}
	if got := fetched.Hashes["3395"]; got != "hash-1" {
		t.Fatalf("got hash %q want hash-1", got)
	}
	item, err := fetched.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if item.Identifiers.Get(mapping.TVDb) != "79604" || item.Parameters.DefaultSeason != "1" {
		t.Fatalf("unexpected decoded item: %#v", item)
	}

	if err := coll.Update(ctx, fetched, sampleItem(), "3395", "hash-2"); err != nil {
		t.Fatalf("second Update failed: %v", err)
	}
	again := testsupport.MustGetEntry(t, store, tvdbToAniDB, "79604")
	if again.Revision != 2 || again.Hashes["3395"] != "hash-2" || len(again.Hashes) != 1 {
		t.Fatalf("unexpected entry after second update: %#v", again)
	}
}

func TestUpdateRequiresStoredEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coll := store.Collection(tvdbToAniDB)

	entry := coll.Create("1")
	err := coll.Update(context.Background(), entry, sampleItem(), "3395", "hash")
	if !errors.Is(err, index.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tvdb := store.Collection(tvdbToAniDB)
	anidb := store.Collection(mapping.MustParseCollection("anidb/tvdb"))
	if err := tvdb.Set(ctx, "3395", tvdb.Create("3395")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	entry, err := anidb.Get(ctx, "3395")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected entry to be scoped to %s", tvdb.Name())
	}
}

func TestListAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	coll := store.Collection(tvdbToAniDB)
	ctx := context.Background()

	for _, key := range []string{"100", "9", "20"} {
		entry := coll.Create(key)
		entry.Hashes["a"+key] = "h" + key
		if err := coll.Set(ctx, key, entry); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	list, err := coll.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var keys []string
	for _, s := range list {
		keys = append(keys, s.Key)
		if s.Hashes != 1 {
			t.Fatalf("entry %s: got %d hashes want 1", s.Key, s.Hashes)
		}
	}
	if len(keys) != 3 || keys[0] != "9" || keys[1] != "20" || keys[2] != "100" {
		t.Fatalf("unexpected key order %v", keys)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Collection != "tvdb/anidb" || stats[0].Entries != 3 || stats[0].Hashes != 3 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats[0].LastUpdated.IsZero() {
		t.Fatal("expected last updated timestamp")
	}
}

func TestHasHashCollision(t *testing.T) {
	entry := &index.Entry{Hashes: map[string]string{"a": "x", "b": "y"}}
	if entry.HasHashCollision() {
		t.Fatal("unexpected collision")
	}
	entry.Hashes["c"] = "x"
	if !entry.HasHashCollision() {
		t.Fatal("expected collision")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := index.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	coll := store.Collection(tvdbToAniDB)
	if err := coll.Set(context.Background(), "79604", coll.Create("79604")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := index.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entry, err := reopened.Collection(tvdbToAniDB).Get(context.Background(), "79604")
	if err != nil || entry == nil {
		t.Fatalf("expected persisted entry, got %#v err=%v", entry, err)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := index.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	if _, err := index.OpenPath(path); !errors.Is(err, index.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

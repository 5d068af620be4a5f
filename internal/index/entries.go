package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"animap/internal/mapping"
)

// ErrEntryNotFound is returned when an update targets an entry that was never set.
var ErrEntryNotFound = errors.New("index entry not found")

// Entry is the persisted state of one index key.
type Entry struct {
	Collection string
	Key        string
	Revision   int
	Item       json.RawMessage
	// Hashes maps a hash key (the identifier of the raw record that produced
	// the latest write) to the content hash written for it.
	Hashes    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasHashCollision reports whether two hash keys share one content hash.
func (e *Entry) HasHashCollision() bool {
	if e == nil {
		return false
	}
	seen := make(map[string]struct{}, len(e.Hashes))
	for _, h := range e.Hashes {
		if _, ok := seen[h]; ok {
			return true
		}
		seen[h] = struct{}{}
	}
	return false
}

// Decode unmarshals the stored record. It returns nil when nothing was written yet.
func (e *Entry) Decode() (*mapping.Item, error) {
	if e == nil || len(e.Item) == 0 {
		return nil, nil
	}
	var item mapping.Item
	if err := json.Unmarshal(e.Item, &item); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", e.Collection, e.Key, err)
	}
	return &item, nil
}

// Summary is the listing view of an entry.
type Summary struct {
	Key       string
	Revision  int
	Hashes    int
	UpdatedAt time.Time
}

// Collection is the view of the store scoped to one collection.
type Collection struct {
	store *Store
	name  string
}

// Collection returns the view of entries stored for c.
func (s *Store) Collection(c mapping.Collection) *Collection {
	return &Collection{store: s, name: c.String()}
}

// Name returns the collection name ("source/target").
func (c *Collection) Name() string {
	return c.name
}

// Get returns the entry stored under key, or nil when there is none.
func (c *Collection) Get(ctx context.Context, key string) (*Entry, error) {
	ctx = ensureContext(ctx)
	var (
		entry      = &Entry{Collection: c.name, Key: key}
		item       sql.NullString
		createdRaw string
		updatedRaw string
	)
	err := retryOnBusy(ctx, func() error {
		return c.store.db.QueryRowContext(ctx,
			`SELECT revision, item_json, created_at, updated_at
             FROM entries WHERE collection = ? AND key = ?`,
			c.name, key,
		).Scan(&entry.Revision, &item, &createdRaw, &updatedRaw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s/%s: %w", c.name, key, err)
	}
	if item.Valid && item.String != "" {
		entry.Item = json.RawMessage(item.String)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}

	hashes, err := c.hashes(ctx, key)
	if err != nil {
		return nil, err
	}
	entry.Hashes = hashes
	return entry, nil
}

func (c *Collection) hashes(ctx context.Context, key string) (map[string]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT hash_key, hash FROM entry_hashes WHERE collection = ? AND key = ?",
		c.name, key,
	)
	if err != nil {
		return nil, fmt.Errorf("query hashes %s/%s: %w", c.name, key, err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var hashKey, hash string
		if err := rows.Scan(&hashKey, &hash); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		hashes[hashKey] = hash
	}
	return hashes, rows.Err()
}

// Create returns a new, unsaved entry for key. Call Set to persist it.
func (c *Collection) Create(key string) *Entry {
	now := time.Now().UTC()
	return &Entry{
		Collection: c.name,
		Key:        key,
		Hashes:     map[string]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Set stores entry under key, replacing any existing entry and its hashes.
func (c *Collection) Set(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return errors.New("set entry: nil entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UpdatedAt = time.Now().UTC()
	entry.Collection = c.name
	entry.Key = key

	err := c.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (collection, key, revision, item_json, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT (collection, key) DO UPDATE SET
                revision = excluded.revision,
                item_json = excluded.item_json,
                updated_at = excluded.updated_at`,
			c.name, key, entry.Revision, nullableJSON(entry.Item),
			entry.CreatedAt.Format(time.RFC3339Nano), entry.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM entry_hashes WHERE collection = ? AND key = ?", c.name, key,
		); err != nil {
			return err
		}
		for hashKey, hash := range entry.Hashes {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO entry_hashes (collection, key, hash_key, hash) VALUES (?, ?, ?, ?)",
				c.name, key, hashKey, hash,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set entry %s/%s: %w", c.name, key, err)
	}
	return nil
}

// Update writes item as the entry's record, bumps its revision and records
// hash under hashKey. The entry is updated in place on success.
func (c *Collection) Update(ctx context.Context, entry *Entry, item *mapping.Item, hashKey, hash string) error {
	if entry == nil || item == nil {
		return errors.New("update entry: nil entry or item")
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s/%s: %w", c.name, entry.Key, err)
	}
	now := time.Now().UTC()

	err = c.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE entries SET revision = revision + 1, item_json = ?, updated_at = ?
             WHERE collection = ? AND key = ?`,
			string(data), now.Format(time.RFC3339Nano), c.name, entry.Key,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrEntryNotFound
		}
		if hashKey == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO entry_hashes (collection, key, hash_key, hash) VALUES (?, ?, ?, ?)
             ON CONFLICT (collection, key, hash_key) DO UPDATE SET hash = excluded.hash`,
			c.name, entry.Key, hashKey, hash,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update entry %s/%s: %w", c.name, entry.Key, err)
	}

	entry.Revision++
	entry.Item = data
	entry.UpdatedAt = now
	if hashKey != "" {
		if entry.Hashes == nil {
			entry.Hashes = make(map[string]string)
		}
		entry.Hashes[hashKey] = hash
	}
	return nil
}

// List returns every entry in the collection ordered by key, numeric keys
// first in numeric order.
func (c *Collection) List(ctx context.Context) ([]Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := c.store.db.QueryContext(ctx,
		`SELECT e.key, e.revision, e.updated_at,
                (SELECT COUNT(1) FROM entry_hashes h WHERE h.collection = e.collection AND h.key = e.key)
         FROM entries e
         WHERE e.collection = ?
         ORDER BY length(e.key), e.key`,
		c.name,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s          Summary
			updatedRaw string
		)
		if err := rows.Scan(&s.Key, &s.Revision, &updatedRaw, &s.Hashes); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			s.UpdatedAt = updated
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableJSON(data json.RawMessage) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

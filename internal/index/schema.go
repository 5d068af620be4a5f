package index

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// indexSchemaVersion is stored in schema_version. An index written by a
// different version is rejected and has to be rebuilt by a fresh update.
const indexSchemaVersion = 1

// ErrSchemaMismatch reports an index database written with another layout.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates the tables of an empty database or checks the stored
// layout version of an existing one.
func (s *Store) initSchema(ctx context.Context) error {
	version, err := s.storedSchemaVersion(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return s.createSchema(ctx)
	}
	if err != nil {
		return err
	}
	if version != indexSchemaVersion {
		return fmt.Errorf("%w: index %s has version %d, want %d; remove it and run 'animap update'",
			ErrSchemaMismatch, s.path, version, indexSchemaVersion)
	}
	return nil
}

// storedSchemaVersion returns sql.ErrNoRows for a database without tables.
func (s *Store) storedSchemaVersion(ctx context.Context) (int, error) {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tables); err != nil {
		return 0, fmt.Errorf("inspect index tables: %w", err)
	}
	if tables == 0 {
		return 0, sql.ErrNoRows
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("read index schema version: %w", err)
	}
	return version, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create index tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", indexSchemaVersion); err != nil {
			return fmt.Errorf("record index schema version: %w", err)
		}
		return nil
	})
}

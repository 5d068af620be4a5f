package index

import (
	"context"
	"fmt"
	"time"
)

// CollectionStats summarises one collection.
type CollectionStats struct {
	Collection  string
	Entries     int
	Hashes      int
	LastUpdated time.Time
}

// Stats returns per-collection entry and hash counts ordered by collection.
func (s *Store) Stats(ctx context.Context) ([]CollectionStats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.collection, COUNT(1), MAX(e.updated_at),
                (SELECT COUNT(1) FROM entry_hashes h WHERE h.collection = e.collection)
         FROM entries e
         GROUP BY e.collection
         ORDER BY e.collection`,
	)
	if err != nil {
		return nil, fmt.Errorf("collection stats: %w", err)
	}
	defer rows.Close()

	var out []CollectionStats
	for rows.Next() {
		var (
			st         CollectionStats
			updatedRaw string
		)
		if err := rows.Scan(&st.Collection, &st.Entries, &updatedRaw, &st.Hashes); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			st.LastUpdated = updated
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

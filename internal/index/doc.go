// Package index persists the cross-reference records produced by an update
// run in a SQLite database.
//
// Entries are scoped by collection ("tvdb/anidb") and keyed by the source
// provider identifier. Each entry stores the latest record as JSON, a
// revision counter, and one content hash per hash key so repeated runs can
// skip records that have not changed.
package index

// Package parser turns one anime-list record into the mapping items it
// contributes to a collection.
//
// Which provider a record is parsed for is decided by the collection and by
// the identifier attributes the record carries: the film registry (imdbid),
// the movie database (tmdbmid), the show database (tmdbsid) or the TV
// database (tvdbid). Film-registry and movie/show-database records listing
// several ids expand into one item per id; TV-database records keep the list.
//
// Per-record problems are returned as errors marked with
// services.ErrInvalidRecord, services.ErrInvalidIdentifier or
// services.ErrMetadataFetch. A record that simply does not apply to the
// collection yields no items and no error.
package parser

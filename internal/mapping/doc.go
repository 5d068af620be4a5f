// Package mapping holds the cross-reference entity graph produced from one
// anime-list record: an Item owns Seasons, a Season owns Episodes and
// SeasonMappings, an Episode owns EpisodeMappings.
//
// The package also defines Collections (directed source/target provider
// pairs), provider identifiers, and the fold that combines several Items
// resolving to the same index key into one entity. Items marshal to the
// nested record persisted by the index, and Hash derives a stable content
// hash from that record.
package mapping

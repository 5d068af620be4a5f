package mapping

import (
	"fmt"
	"strings"
)

// Provider keys as they appear in collections and identifier maps.
const (
	AniDB     = "anidb"
	IMDb      = "imdb"
	TVDb      = "tvdb"
	TMDbMovie = "tmdb:movie"
	TMDbShow  = "tmdb:show"
)

// Media distinguishes single-title records from season/episode records.
type Media string

const (
	MediaMovie Media = "movie"
	MediaShow  Media = "show"
)

// Collection is a directed (source, target) provider pair. Index keys are
// source-provider identifiers; mappings translate source numbering into
// target numbering.
type Collection struct {
	Source string
	Target string
}

var collectionMedia = map[Collection]Media{
	{AniDB, IMDb}:      MediaMovie,
	{IMDb, AniDB}:      MediaMovie,
	{AniDB, TMDbMovie}: MediaMovie,
	{TMDbMovie, AniDB}: MediaMovie,
	{AniDB, TMDbShow}:  MediaShow,
	{TMDbShow, AniDB}:  MediaShow,
	{AniDB, TVDb}:      MediaShow,
	{TVDb, AniDB}:      MediaShow,
}

// ParseCollection parses "source/target" (e.g. "tvdb/anidb").
func ParseCollection(value string) (Collection, error) {
	source, target, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "/")
	if !ok {
		return Collection{}, fmt.Errorf("collection %q: expected source/target", value)
	}
	c := Collection{Source: strings.TrimSpace(source), Target: strings.TrimSpace(target)}
	if _, ok := collectionMedia[c]; !ok {
		return Collection{}, fmt.Errorf("collection %q: unsupported provider pair", value)
	}
	return c, nil
}

// MustParseCollection is ParseCollection for literals; it panics on error.
func MustParseCollection(value string) Collection {
	c, err := ParseCollection(value)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Collection) String() string {
	return c.Source + "/" + c.Target
}

// Media reports the media kind stored by the collection.
func (c Collection) Media() Media {
	return collectionMedia[c]
}

// Involves reports whether provider is either side of the collection.
func (c Collection) Involves(provider string) bool {
	return c.Source == provider || c.Target == provider
}

// Other returns the non-AniDB side of the collection.
func (c Collection) Other() string {
	if c.Source == AniDB {
		return c.Target
	}
	return c.Source
}

// SourceIsAniDB reports whether source numbering is AniDB numbering.
func (c Collection) SourceIsAniDB() bool {
	return c.Source == AniDB
}

// SeasonAttribute returns the mapping-node attribute carrying the season key
// for provider (anidbseason, tvdbseason, tmdbseason).
func SeasonAttribute(provider string) string {
	if base, _, ok := strings.Cut(provider, ":"); ok {
		provider = base
	}
	return provider + "season"
}

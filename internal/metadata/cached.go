package metadata

import "context"

// CachedAnime wraps an AnimeSource with a bounded cache.
type CachedAnime struct {
	source AnimeSource
	cache  *Cache[*Anime]
}

// NewCachedAnime caches up to maxEntries results of source.
func NewCachedAnime(source AnimeSource, maxEntries int) *CachedAnime {
	return &CachedAnime{source: source, cache: NewCache[*Anime](maxEntries)}
}

// FetchAnime implements AnimeSource.
func (c *CachedAnime) FetchAnime(ctx context.Context, id string) (*Anime, error) {
	return c.cache.Do(ctx, id, func(ctx context.Context) (*Anime, error) {
		return c.source.FetchAnime(ctx, id)
	})
}

// CachedShow wraps a ShowSource with a bounded cache.
type CachedShow struct {
	source ShowSource
	cache  *Cache[*Show]
}

// NewCachedShow caches up to maxEntries results of source.
func NewCachedShow(source ShowSource, maxEntries int) *CachedShow {
	return &CachedShow{source: source, cache: NewCache[*Show](maxEntries)}
}

// FetchShow implements ShowSource.
func (c *CachedShow) FetchShow(ctx context.Context, id string) (*Show, error) {
	return c.cache.Do(ctx, id, func(ctx context.Context) (*Show, error) {
		return c.source.FetchShow(ctx, id)
	})
}

// CachedMovie wraps a MovieSource with a bounded cache.
type CachedMovie struct {
	source MovieSource
	cache  *Cache[*Movie]
}

// NewCachedMovie caches up to maxEntries results of source.
func NewCachedMovie(source MovieSource, maxEntries int) *CachedMovie {
	return &CachedMovie{source: source, cache: NewCache[*Movie](maxEntries)}
}

// FetchMovie implements MovieSource.
func (c *CachedMovie) FetchMovie(ctx context.Context, id string) (*Movie, error) {
	return c.cache.Do(ctx, id, func(ctx context.Context) (*Movie, error) {
		return c.source.FetchMovie(ctx, id)
	})
}

var (
	_ AnimeSource = (*CachedAnime)(nil)
	_ ShowSource  = (*CachedShow)(nil)
	_ MovieSource = (*CachedMovie)(nil)
)

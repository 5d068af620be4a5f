package updater

import (
	"time"

	"animap/internal/config"
	"animap/internal/mapping"
	"animap/internal/metadata"
	"animap/internal/metadata/anidb"
	"animap/internal/metadata/tmdb"
	"animap/internal/metadata/tvdb"
	"animap/internal/services"
)

// Sources are the cached metadata collaborators of a run. Nil fields mean
// the service is not configured.
type Sources struct {
	Anime  metadata.AnimeSource
	Movies metadata.MovieSource
	// Shows maps tvdb and tmdb:show to their show sources.
	Shows map[string]metadata.ShowSource
}

// Empty reports whether no collaborator is configured.
func (s Sources) Empty() bool {
	return s.Anime == nil && s.Movies == nil && len(s.Shows) == 0
}

// BuildSources constructs a cached client for every service that has
// credentials in cfg. Services without credentials are left nil.
func BuildSources(cfg *config.Config) (Sources, error) {
	var sources Sources
	if cfg == nil {
		return sources, nil
	}
	maxEntries := cfg.Cache.MaxEntries

	if cfg.AniDB.Client != "" {
		client, err := anidb.New(cfg.AniDB.Client, cfg.AniDB.ClientVersion, cfg.AniDB.BaseURL,
			anidb.WithMinInterval(time.Duration(cfg.AniDB.MinIntervalMS)*time.Millisecond),
			anidb.WithTimeout(time.Duration(cfg.AniDB.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return Sources{}, services.Wrap(services.ErrConfiguration, "updater", "anidb client", "", err)
		}
		sources.Anime = metadata.NewCachedAnime(client, maxEntries)
	}

	shows := make(map[string]metadata.ShowSource)
	if cfg.TVDB.APIKey != "" {
		client, err := tvdb.New(cfg.TVDB.APIKey, cfg.TVDB.PIN, cfg.TVDB.BaseURL,
			tvdb.WithTimeout(time.Duration(cfg.TVDB.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return Sources{}, services.Wrap(services.ErrConfiguration, "updater", "tvdb client", "", err)
		}
		shows[mapping.TVDb] = metadata.NewCachedShow(client, maxEntries)
	}
	if cfg.TMDB.APIKey != "" {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithTimeout(time.Duration(cfg.TMDB.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return Sources{}, services.Wrap(services.ErrConfiguration, "updater", "tmdb client", "", err)
		}
		shows[mapping.TMDbShow] = metadata.NewCachedShow(client, maxEntries)
		sources.Movies = metadata.NewCachedMovie(client, maxEntries)
	}
	if len(shows) > 0 {
		sources.Shows = shows
	}
	return sources, nil
}

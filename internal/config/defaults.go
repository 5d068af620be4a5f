package config

const (
	defaultConfigPath        = "~/.config/animap/config.toml"
	defaultDataDir           = "~/.local/share/animap"
	defaultLogDir            = "~/.local/share/animap/logs"
	defaultIndexFile         = "index.db"
	defaultProgressBucket    = 5
	defaultAniDBBaseURL      = "http://api.anidb.net:9001/httpapi"
	defaultAniDBClientVer    = 1
	defaultAniDBMinInterval  = 2500
	defaultAniDBTimeout      = 30
	defaultTVDBBaseURL       = "https://api4.thetvdb.com/v4"
	defaultTVDBTimeout       = 30
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultTMDBTimeout       = 15
	defaultCacheMaxEntries   = 4096
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// DefaultCollections lists every source/target pair the anime list can feed.
var DefaultCollections = []string{
	"anidb/imdb",
	"imdb/anidb",
	"anidb/tmdb:movie",
	"tmdb:movie/anidb",
	"anidb/tmdb:show",
	"tmdb:show/anidb",
	"anidb/tvdb",
	"tvdb/anidb",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	collections := make([]string, len(DefaultCollections))
	copy(collections, DefaultCollections)
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Run: Run{
			Collections:     collections,
			AbsoluteMapping: true,
			ProgressBucket:  defaultProgressBucket,
		},
		AniDB: AniDB{
			ClientVersion:  defaultAniDBClientVer,
			BaseURL:        defaultAniDBBaseURL,
			MinIntervalMS:  defaultAniDBMinInterval,
			TimeoutSeconds: defaultAniDBTimeout,
		},
		TVDB: TVDB{
			BaseURL:        defaultTVDBBaseURL,
			TimeoutSeconds: defaultTVDBTimeout,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeout,
		},
		Cache: Cache{
			MaxEntries: defaultCacheMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

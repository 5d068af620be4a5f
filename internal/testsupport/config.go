package testsupport

import (
	"path/filepath"
	"testing"

	"animap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.IndexPath = filepath.Join(base, "data", "index.db")
	cfgVal.Source.AnimeList = filepath.Join(base, "anime-list.xml")
	cfgVal.AniDB.Client = "animaptest"
	cfgVal.Run.AbsoluteMapping = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCollections restricts the run to the named collections.
func WithCollections(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Run.Collections = append([]string(nil), names...)
	}
}

// WithAnimeList writes document as the configured anime-list source.
func WithAnimeList(document string) ConfigOption {
	return func(b *configBuilder) {
		WriteAnimeList(b.t, b.cfg.Source.AnimeList, document)
	}
}

// WithMetadataKeys sets placeholder TMDB and TVDB credentials.
func WithMetadataKeys() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = "test"
		b.cfg.TVDB.APIKey = "test"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"animap/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("TVDB_API_KEY", "tvdb-key")
	t.Setenv("ANIDB_CLIENT", "animap")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "animap")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.IndexPath != filepath.Join(wantData, "index.db") {
		t.Fatalf("unexpected index path: %q", cfg.Paths.IndexPath)
	}
	if cfg.LockPath() != cfg.Paths.IndexPath+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.TMDB.APIKey != "tmdb-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TVDB.APIKey != "tvdb-key" {
		t.Fatalf("expected TVDB key from env, got %q", cfg.TVDB.APIKey)
	}
	if cfg.AniDB.Client != "animap" {
		t.Fatalf("expected AniDB client from env, got %q", cfg.AniDB.Client)
	}
	if len(cfg.Run.Collections) != len(config.DefaultCollections) {
		t.Fatalf("expected default collections, got %v", cfg.Run.Collections)
	}
	if !cfg.Run.AbsoluteMapping {
		t.Fatal("expected absolute mapping enabled by default")
	}
	if cfg.Cache.MaxEntries != config.Default().Cache.MaxEntries {
		t.Fatalf("unexpected cache size: %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TMDB_API_KEY", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/animap-data"
index_path = "~/db/index.sqlite"

[source]
anime_list = "~/lists/anime-list-master.xml"

[run]
collections = [" TVDB/AniDB ", "tvdb/anidb", "anidb/tvdb"]
absolute_mapping = false

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "animap-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.IndexPath != filepath.Join(tempHome, "db", "index.sqlite") {
		t.Fatalf("unexpected index path: %q", cfg.Paths.IndexPath)
	}
	if cfg.Source.AnimeList != filepath.Join(tempHome, "lists", "anime-list-master.xml") {
		t.Fatalf("unexpected anime list: %q", cfg.Source.AnimeList)
	}
	if got := strings.Join(cfg.Run.Collections, ","); got != "tvdb/anidb,anidb/tvdb" {
		t.Fatalf("unexpected collections: %q", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if err := cfg.ValidateUpdate(cfg.Run.Collections); err != nil {
		t.Fatalf("expected update validation to pass without absolute mapping: %v", err)
	}
}

func TestValidateRejectsUnknownCollection(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Collections = []string{"anidb/anilist"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported collection to fail validation")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported log format to fail validation")
	}
}

func TestValidateUpdateRequiresCredentialsForAbsoluteMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Source.AnimeList = "/tmp/anime-list.xml"

	if err := cfg.ValidateUpdate([]string{"anidb/imdb"}); err != nil {
		t.Fatalf("movie collections need no credentials: %v", err)
	}
	err := cfg.ValidateUpdate([]string{"tvdb/anidb"})
	if err == nil || !strings.Contains(err.Error(), "anidb.client") {
		t.Fatalf("expected anidb.client error, got %v", err)
	}
	cfg.AniDB.Client = "animap"
	err = cfg.ValidateUpdate([]string{"tvdb/anidb"})
	if err == nil || !strings.Contains(err.Error(), "tvdb.api_key") {
		t.Fatalf("expected tvdb.api_key error, got %v", err)
	}
	err = cfg.ValidateUpdate([]string{"anidb/tmdb:show"})
	if err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected tmdb.api_key error, got %v", err)
	}
}

func TestValidateUpdateRequiresSource(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateUpdate(cfg.Run.Collections); err == nil {
		t.Fatal("expected missing anime list to fail")
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if len(cfg.Run.Collections) != len(config.DefaultCollections) {
		t.Fatalf("sample collections mismatch: %v", cfg.Run.Collections)
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	IndexPath string `toml:"index_path"`
}

// Source describes the anime-list document that drives an update run.
type Source struct {
	AnimeList string `toml:"anime_list"`
}

// Run contains per-run behaviour switches.
type Run struct {
	Collections     []string `toml:"collections"`
	AbsoluteMapping bool     `toml:"absolute_mapping"`
	ProgressBucket  float64  `toml:"progress_bucket"`
}

// AniDB contains configuration for the AniDB HTTP API.
type AniDB struct {
	Client         string `toml:"client"`
	ClientVersion  int    `toml:"client_version"`
	BaseURL        string `toml:"base_url"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TVDB contains configuration for TheTVDB v4 API.
type TVDB struct {
	APIKey         string `toml:"api_key"`
	PIN            string `toml:"pin"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cache bounds the in-process metadata caches.
type Cache struct {
	MaxEntries int `toml:"max_entries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for animap.
//
// Configuration sections by subsystem:
//   - Paths: data, log and index database locations
//   - Source: the anime-list XML document
//   - Run: collections to reconcile and absolute-number conversion
//   - AniDB, TVDB, TMDB: metadata service credentials and endpoints
//   - Cache: metadata cache bounds
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Source  Source  `toml:"source"`
	Run     Run     `toml:"run"`
	AniDB   AniDB   `toml:"anidb"`
	TVDB    TVDB    `toml:"tvdb"`
	TMDB    TMDB    `toml:"tmdb"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("animap.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parent of
// the index database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Paths.IndexPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.IndexPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the run lock file guarding the index database.
func (c *Config) LockPath() string {
	return c.Paths.IndexPath + ".lock"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

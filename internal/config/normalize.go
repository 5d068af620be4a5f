package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeRun()
	c.normalizeAniDB()
	c.normalizeTVDB()
	c.normalizeTMDB()
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaultCacheMaxEntries
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.IndexPath) == "" {
		c.Paths.IndexPath = filepath.Join(c.Paths.DataDir, defaultIndexFile)
	}
	if c.Paths.IndexPath, err = expandPath(strings.TrimSpace(c.Paths.IndexPath)); err != nil {
		return fmt.Errorf("paths.index_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	var err error
	if c.Source.AnimeList, err = expandPath(strings.TrimSpace(c.Source.AnimeList)); err != nil {
		return fmt.Errorf("source.anime_list: %w", err)
	}
	return nil
}

func (c *Config) normalizeRun() {
	seen := make(map[string]struct{}, len(c.Run.Collections))
	collections := make([]string, 0, len(c.Run.Collections))
	for _, value := range c.Run.Collections {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		collections = append(collections, value)
	}
	c.Run.Collections = collections
	if c.Run.ProgressBucket <= 0 {
		c.Run.ProgressBucket = defaultProgressBucket
	}
}

func (c *Config) normalizeAniDB() {
	if c.AniDB.Client == "" {
		if value, ok := os.LookupEnv("ANIDB_CLIENT"); ok {
			c.AniDB.Client = value
		}
	}
	c.AniDB.Client = strings.TrimSpace(c.AniDB.Client)
	c.AniDB.BaseURL = strings.TrimSpace(c.AniDB.BaseURL)
	if c.AniDB.BaseURL == "" {
		c.AniDB.BaseURL = defaultAniDBBaseURL
	}
	if c.AniDB.ClientVersion == 0 {
		c.AniDB.ClientVersion = defaultAniDBClientVer
	}
	if c.AniDB.TimeoutSeconds <= 0 {
		c.AniDB.TimeoutSeconds = defaultAniDBTimeout
	}
}

func (c *Config) normalizeTVDB() {
	if c.TVDB.APIKey == "" {
		if value, ok := os.LookupEnv("TVDB_API_KEY"); ok {
			c.TVDB.APIKey = value
		}
	}
	if c.TVDB.PIN == "" {
		if value, ok := os.LookupEnv("TVDB_PIN"); ok {
			c.TVDB.PIN = value
		}
	}
	c.TVDB.APIKey = strings.TrimSpace(c.TVDB.APIKey)
	c.TVDB.PIN = strings.TrimSpace(c.TVDB.PIN)
	c.TVDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TVDB.BaseURL), "/")
	if c.TVDB.BaseURL == "" {
		c.TVDB.BaseURL = defaultTVDBBaseURL
	}
	if c.TVDB.TimeoutSeconds <= 0 {
		c.TVDB.TimeoutSeconds = defaultTVDBTimeout
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateAniDB(); err != nil {
		return err
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must be positive")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateUpdate checks the settings an update run needs on top of Validate:
// an existing source document and, when absolute mapping is enabled,
// credentials for every metadata service the selected collections consult.
func (c *Config) ValidateUpdate(collections []string) error {
	if strings.TrimSpace(c.Source.AnimeList) == "" {
		return errors.New("source.anime_list must be set (or pass --source)")
	}
	if !c.Run.AbsoluteMapping {
		return nil
	}
	for _, collection := range collections {
		switch {
		case strings.Contains(collection, "tvdb"):
			if c.AniDB.Client == "" {
				return fmt.Errorf("anidb.client is required for %s absolute mapping. Set ANIDB_CLIENT or disable run.absolute_mapping", collection)
			}
			if c.TVDB.APIKey == "" {
				return fmt.Errorf("tvdb.api_key is required for %s absolute mapping. Set TVDB_API_KEY or disable run.absolute_mapping", collection)
			}
		case strings.Contains(collection, "tmdb:show"):
			if c.AniDB.Client == "" {
				return fmt.Errorf("anidb.client is required for %s absolute mapping. Set ANIDB_CLIENT or disable run.absolute_mapping", collection)
			}
			if c.TMDB.APIKey == "" {
				return fmt.Errorf("tmdb.api_key is required for %s absolute mapping. Set TMDB_API_KEY or disable run.absolute_mapping", collection)
			}
		}
	}
	return nil
}

func (c *Config) validateRun() error {
	if len(c.Run.Collections) == 0 {
		return errors.New("run.collections must list at least one collection")
	}
	for _, collection := range c.Run.Collections {
		if !slices.Contains(DefaultCollections, collection) {
			return fmt.Errorf("run.collections: unsupported collection %q (supported: %s)", collection, strings.Join(DefaultCollections, ", "))
		}
	}
	if c.Run.ProgressBucket > 100 {
		return errors.New("run.progress_bucket must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateAniDB() error {
	if c.AniDB.ClientVersion < 0 {
		return errors.New("anidb.client_version must be positive")
	}
	if c.AniDB.MinIntervalMS < 0 {
		return errors.New("anidb.min_interval_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

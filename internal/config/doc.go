// Package config loads, normalizes, and validates animap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and TVDB_API_KEY. The Config type centralizes every knob the
// updater and CLI need: where the anime list lives, which collections to
// reconcile, and the credentials for the metadata services consulted during
// absolute-number conversion.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

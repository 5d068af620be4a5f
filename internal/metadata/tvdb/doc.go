// Package tvdb is a small TheTVDB v4 client that logs in with an API key,
// caches the bearer token, and pages through a series' default-order
// episodes to build season/episode metadata with absolute numbers.
package tvdb

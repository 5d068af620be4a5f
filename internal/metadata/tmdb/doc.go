// Package tmdb provides the minimal TMDB API client used to verify movie and
// show identifiers and to supply season/episode listings to the absolute
// mapper.
//
// TMDB does not publish absolute episode numbers, so the show adapter derives
// them by counting regular episodes across seasons in order. Options allow
// tests to supply custom HTTP clients without modifying production code.
package tmdb

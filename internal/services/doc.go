// Package services defines shared utilities consumed by the parsers, the
// merge engine and the metadata integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, collection names, and item keys for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that separate per-item
//     failures (skip and continue) from run-fatal ones.
//
// Use these helpers when wiring new parser or collaborator logic so
// operational behaviour stays uniform across a run.
package services

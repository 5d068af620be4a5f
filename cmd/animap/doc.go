// Package main hosts the animap CLI entrypoint and command graph.
//
// The Cobra-based command tree runs update passes over an anime-list
// document, inspects the persisted index, and scaffolds configuration. It
// centralizes configuration resolution and logging setup so subcommands can
// focus on output; the reconciliation itself lives in internal packages.
package main

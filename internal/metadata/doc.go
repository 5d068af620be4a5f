// Package metadata defines the fetch-by-id collaborators the parsers and the
// absolute mapper consult, the value types they return, and a bounded cache
// that wraps any of them for the lifetime of a run.
//
// A fetch returns (nil, nil) when the provider reports the id as unknown; a
// non-nil error means the provider could not be asked.
package metadata

// Package merge folds parsed items that resolve to the same index key and
// decides, by content hash, whether the persisted entry must be rewritten.
//
// A MergeState is scoped to one run. It remembers the folded item per key,
// the hashes of the raw items already folded into it, and which keys were
// written during the run. Once a key has been written, later items for it
// always force a rewrite so a stale stored hash can never hide a fold.
package merge

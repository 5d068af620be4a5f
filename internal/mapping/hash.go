package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the SHA-256 of the item's canonical JSON record. Map keys are
// emitted in sorted order and name sets are kept sorted, so equal content
// always hashes equally.
func (it *Item) Hash() (string, error) {
	data, err := json.Marshal(it)
	if err != nil {
		return "", fmt.Errorf("encode item: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

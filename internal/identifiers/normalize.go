// Package identifiers canonicalizes raw provider identifier attributes from
// the anime list: comma-separated values are split, sentinel entries are
// dropped, and the rest are validated against the provider's format.
package identifiers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"animap/internal/mapping"
	"animap/internal/services"
)

// Unknown marks an identifier the list maintainers have not resolved yet.
const Unknown = "unknown"

var imdbPattern = regexp.MustCompile(`^tt\d+$`)

// tvdbIgnored are tvdbid values naming a kind of release rather than a series.
var tvdbIgnored = map[string]struct{}{
	"hentai":      {},
	"movie":       {},
	"music video": {},
	"other":       {},
	"OVA":         {},
	"tv special":  {},
	"tvspecial":   {},
	Unknown:       {},
	"web":         {},
}

// Value is one surviving identifier and its position in the raw attribute.
// Positions count every raw entry, sentinels included.
type Value struct {
	ID    string
	Index int
}

// Result is the outcome of splitting one raw attribute.
type Result struct {
	Values []Value
	// Total is the number of raw comma-separated entries.
	Total int
	// Rejected lists entries that failed format validation.
	Rejected []string
}

// IDs returns the surviving identifiers in document order.
func (r Result) IDs() mapping.IDs {
	ids := make(mapping.IDs, 0, len(r.Values))
	for _, v := range r.Values {
		ids = append(ids, v.ID)
	}
	return ids
}

// Split splits raw for provider, drops sentinel and empty entries, and
// validates the rest. Entries failing validation are dropped and reported in
// Rejected; when no entry survives the error wraps ErrInvalidIdentifier.
func Split(provider, raw string) (Result, error) {
	parts := strings.Split(raw, ",")
	result := Result{Total: len(parts)}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || ignored(provider, part) {
			continue
		}
		if !valid(provider, part) {
			result.Rejected = append(result.Rejected, part)
			continue
		}
		result.Values = append(result.Values, Value{ID: part, Index: i})
	}
	if len(result.Values) == 0 {
		return result, services.Wrap(services.ErrInvalidIdentifier, "identifiers", "normalize",
			fmt.Sprintf("no valid %s identifier in %q", provider, raw), nil)
	}
	return result, nil
}

// Normalize returns the surviving identifiers for one provider attribute.
// A single survivor collapses to a scalar when marshalled.
func Normalize(provider, raw string) (mapping.IDs, error) {
	result, err := Split(provider, raw)
	if err != nil {
		return nil, err
	}
	return result.IDs(), nil
}

func ignored(provider, value string) bool {
	if value == Unknown {
		return true
	}
	if provider == mapping.TVDb {
		_, ok := tvdbIgnored[value]
		return ok
	}
	return false
}

func valid(provider, value string) bool {
	switch provider {
	case mapping.IMDb:
		return imdbPattern.MatchString(value)
	case mapping.AniDB, mapping.TVDb, mapping.TMDbMovie, mapping.TMDbShow:
		_, err := strconv.Atoi(value)
		return err == nil
	default:
		return true
	}
}

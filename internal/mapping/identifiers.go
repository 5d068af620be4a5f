package mapping

import (
	"encoding/json"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// IDs is an ordered list of identifiers for one provider. A single value
// marshals as a scalar; order is document order and is significant for
// episode offset assignment.
type IDs []string

// Scalar returns the only value when exactly one is present.
func (ids IDs) Scalar() (string, bool) {
	if len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

func (ids IDs) MarshalJSON() ([]byte, error) {
	if v, ok := ids.Scalar(); ok {
		return json.Marshal(v)
	}
	return json.Marshal([]string(ids))
}

func (ids *IDs) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		*ids = IDs{scalar}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*ids = IDs(list)
	return nil
}

func (ids IDs) MarshalYAML() (any, error) {
	if v, ok := ids.Scalar(); ok {
		return v, nil
	}
	return []string(ids), nil
}

func (ids *IDs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*ids = IDs{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*ids = IDs(list)
	return nil
}

// Identifiers maps provider keys to their identifiers.
type Identifiers map[string]IDs

// Get returns the scalar identifier for provider, or "" when absent or multi-valued.
func (m Identifiers) Get(provider string) string {
	v, _ := m[provider].Scalar()
	return v
}

// Clone returns a deep copy.
func (m Identifiers) Clone() Identifiers {
	if m == nil {
		return nil
	}
	out := make(Identifiers, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Without returns a copy excluding provider.
func (m Identifiers) Without(provider string) Identifiers {
	out := make(Identifiers, len(m))
	for k, v := range m {
		if k == provider {
			continue
		}
		out[k] = slices.Clone(v)
	}
	return out
}

// Equal compares two identifier maps including value order.
func (m Identifiers) Equal(other Identifiers) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if !slices.Equal(v, other[k]) {
			return false
		}
	}
	return true
}

// mergeIdentifiers folds src into dst. Providers present on both sides with
// different values escalate to the sorted union of both.
func mergeIdentifiers(dst, src Identifiers) Identifiers {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Identifiers, len(src))
	}
	for provider, ids := range src {
		current, ok := dst[provider]
		if !ok {
			dst[provider] = slices.Clone(ids)
			continue
		}
		if slices.Equal(current, ids) {
			continue
		}
		union := append(slices.Clone(current), ids...)
		sort.Strings(union)
		dst[provider] = slices.Compact(union)
	}
	return dst
}

// NameSet is a sorted set of display names.
type NameSet []string

// Add inserts name keeping the set sorted and unique.
func (s NameSet) Add(names ...string) NameSet {
	for _, name := range names {
		if name == "" {
			continue
		}
		i, found := slices.BinarySearch(s, name)
		if found {
			continue
		}
		s = slices.Insert(s, i, name)
	}
	return s
}

// Names maps identifiers to the display names observed for them.
type Names map[string]NameSet

// Clone returns a deep copy.
func (n Names) Clone() Names {
	if n == nil {
		return nil
	}
	out := make(Names, len(n))
	for k, v := range n {
		out[k] = slices.Clone(v)
	}
	return out
}

// Flatten returns every name across all identifiers.
func (n Names) Flatten() NameSet {
	var out NameSet
	for _, names := range n {
		out = out.Add(names...)
	}
	return out
}

func mergeNames(dst, src Names) Names {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Names, len(src))
	}
	for id, names := range src {
		dst[id] = dst[id].Add(names...)
	}
	return dst
}

package merge

import "animap/internal/mapping"

type stateKey struct {
	provider string
	key      string
}

type keyState struct {
	current *mapping.Item
	members map[string]struct{}
}

// MergeState is the run-scoped memory of the engine. It is not safe for
// concurrent use.
type MergeState struct {
	seen  map[stateKey]*keyState
	dirty map[stateKey]struct{}
}

// NewState returns an empty MergeState.
func NewState() *MergeState {
	return &MergeState{
		seen:  make(map[stateKey]*keyState),
		dirty: make(map[stateKey]struct{}),
	}
}

// Current returns the folded item registered for provider/key.
func (s *MergeState) Current(provider, key string) (*mapping.Item, bool) {
	st, ok := s.seen[stateKey{provider, key}]
	if !ok {
		return nil, false
	}
	return st.current, true
}

// Dirty reports whether provider/key was written during the run.
func (s *MergeState) Dirty(provider, key string) bool {
	_, ok := s.dirty[stateKey{provider, key}]
	return ok
}

// Seen returns the number of keys registered during the run.
func (s *MergeState) Seen() int {
	return len(s.seen)
}

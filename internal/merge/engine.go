package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"animap/internal/animelist"
	"animap/internal/index"
	"animap/internal/logging"
	"animap/internal/mapping"
	"animap/internal/services"
)

const (
	attrAniDB     = "anidbid"
	attrTMDb      = "tmdbid"
	attrTMDbMovie = "tmdbmid"

	unknownKey = "unknown"
)

// Index is the persisted store the engine writes to. *index.Collection
// satisfies it.
type Index interface {
	Get(ctx context.Context, key string) (*index.Entry, error)
	Create(key string) *index.Entry
	Set(ctx context.Context, key string, entry *index.Entry) error
	Update(ctx context.Context, entry *index.Entry, item *mapping.Item, hashKey, hash string) error
}

// Engine merges the items of one collection into its index.
type Engine struct {
	collection mapping.Collection
	index      Index
	state      *MergeState
	logger     *slog.Logger
}

// New constructs an Engine. A nil state starts a fresh run.
func New(collection mapping.Collection, idx Index, state *MergeState, logger *slog.Logger) *Engine {
	if state == nil {
		state = NewState()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		collection: collection,
		index:      idx,
		state:      state,
		logger:     logging.NewComponentLogger(logger, "merge"),
	}
}

// Collection returns the collection the engine merges into.
func (e *Engine) Collection() mapping.Collection {
	return e.collection
}

// State returns the engine's run state.
func (e *Engine) State() *MergeState {
	return e.state
}

// Process merges item, parsed from node, into the index under every source
// identifier it carries. It reports whether any entry was written.
//
// Identifier mismatches in node are fatal. Merge conflicts and failed index
// writes abandon the affected key only; they are logged and returned joined
// after the remaining keys were processed.
func (e *Engine) Process(ctx context.Context, node *animelist.Node, item *mapping.Item) (bool, error) {
	if item == nil {
		return false, nil
	}
	if err := e.checkNode(node); err != nil {
		return false, err
	}
	hashKey := e.hashKey(node, item)

	var (
		updated  bool
		failures []error
	)
	for _, key := range item.Identifiers[e.collection.Source] {
		key = strings.TrimSpace(key)
		if key == "" || key == unknownKey {
			continue
		}
		raw := item.Clone()
		raw.Identifiers[e.collection.Source] = mapping.IDs{key}

		ok, err := e.processKey(services.WithItemKey(ctx, key), key, hashKey, raw)
		if err != nil {
			if services.IsFatal(err) {
				return updated, err
			}
			failures = append(failures, err)
			continue
		}
		updated = updated || ok
	}
	return updated, errors.Join(failures...)
}

// checkNode rejects records whose legacy movie identifier disagrees with
// the typed one.
func (e *Engine) checkNode(node *animelist.Node) error {
	if node == nil || !e.collection.Involves(mapping.TMDbMovie) {
		return nil
	}
	legacy, _ := node.Attr(attrTMDb)
	typed, _ := node.Attr(attrTMDbMovie)
	legacy, typed = strings.TrimSpace(legacy), strings.TrimSpace(typed)
	if legacy == "" || typed == "" || legacy == typed {
		return nil
	}
	return services.Wrap(services.ErrIdentifierMismatch, "merge", "check record",
		fmt.Sprintf("line %d: %s %q does not match %s %q", node.Line, attrTMDb, legacy, attrTMDbMovie, typed), nil)
}

// hashKey names the stored hash slot for item: the AniDB id when AniDB is
// the target, otherwise the target identifiers of the item itself.
func (e *Engine) hashKey(node *animelist.Node, item *mapping.Item) string {
	if !e.collection.SourceIsAniDB() {
		if node != nil {
			if value, ok := node.Attr(attrAniDB); ok {
				return strings.TrimSpace(value)
			}
		}
		return strings.Join(item.Identifiers[mapping.AniDB], ",")
	}
	return strings.Join(item.Identifiers[e.collection.Target], ",")
}

func (e *Engine) processKey(ctx context.Context, key, hashKey string, raw *mapping.Item) (bool, error) {
	logger := logging.WithContext(ctx, e.logger)
	sk := stateKey{provider: e.collection.Source, key: key}

	rawHash, err := raw.Hash()
	if err != nil {
		return false, services.Wrap(services.ErrInvalidRecord, "merge", "hash", key, err)
	}

	st, seen := e.state.seen[sk]
	if seen {
		if _, ok := st.members[rawHash]; ok {
			logger.Debug("item already merged this run", logging.String("hash_key", hashKey))
			return false, nil
		}
		folded, err := mapping.Fold(st.current, raw, e.collection.Source)
		if err != nil {
			logging.WarnWithContext(logger, "merge abandoned", "merge_conflict",
				logging.String("hash_key", hashKey),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "records sharing this key disagree irreconcilably"))
			return false, err
		}
		st.current = folded
	} else {
		st = &keyState{current: raw, members: make(map[string]struct{})}
		e.state.seen[sk] = st
	}
	st.members[rawHash] = struct{}{}

	hash, err := st.current.Hash()
	if err != nil {
		return false, services.Wrap(services.ErrInvalidRecord, "merge", "hash", key, err)
	}

	entry, err := e.index.Get(ctx, key)
	if err != nil {
		return false, e.updateFailed(logger, "read entry", key, err)
	}
	if entry != nil {
		_, dirty := e.state.dirty[sk]
		switch {
		case dirty:
			logger.Debug("updating entry touched earlier this run")
		case entry.Hashes[hashKey] == hash && !entry.HasHashCollision():
			return false, nil
		default:
			logger.Debug("updating entry",
				logging.String("hash_key", hashKey),
				logging.String("stored_hash", entry.Hashes[hashKey]),
				logging.String("hash", hash))
		}
	} else {
		entry = e.index.Create(key)
		if err := e.index.Set(ctx, key, entry); err != nil {
			return false, e.updateFailed(logger, "create entry", key, err)
		}
	}

	e.state.dirty[sk] = struct{}{}

	if err := e.index.Update(ctx, entry, st.current, hashKey, hash); err != nil {
		return false, e.updateFailed(logger, "update entry", key, err)
	}
	return true, nil
}

func (e *Engine) updateFailed(logger *slog.Logger, op, key string, err error) error {
	wrapped := services.Wrap(services.ErrCollaboratorUpdate, "merge", op, key, err)
	logging.WarnWithContext(logger, "unable to update index entry", "index_update_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the index database"),
		logging.String(logging.FieldImpact, "update abandoned"))
	return wrapped
}

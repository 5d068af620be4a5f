package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"animap/internal/absolute"
	"animap/internal/animelist"
	"animap/internal/config"
	"animap/internal/index"
	"animap/internal/logging"
	"animap/internal/mapping"
	"animap/internal/merge"
	"animap/internal/parser"
	"animap/internal/services"
)

// ErrLocked is returned when another update holds the index lock.
var ErrLocked = errors.New("another update is already running")

// CollectionResult counts what one collection pass did.
type CollectionResult struct {
	Collection string
	// Records is the number of anime-list records read.
	Records int
	// Ignored records do not apply to the collection.
	Ignored int
	// Skipped records failed to parse.
	Skipped int
	Items   int
	Updated int
	// Failed items could not be merged or written.
	Failed   int
	Outcomes map[string]int
	Duration time.Duration
}

func (r *CollectionResult) count(err error) {
	if r.Outcomes == nil {
		r.Outcomes = make(map[string]int)
	}
	r.Outcomes[services.Outcome(err)]++
}

// Summary is the result of a run.
type Summary struct {
	RunID       string
	Collections []CollectionResult
	Duration    time.Duration
}

// Updated returns the number of entries written across collections.
func (s Summary) Updated() int {
	total := 0
	for _, c := range s.Collections {
		total += c.Updated
	}
	return total
}

// Updater runs update passes against an index.
type Updater struct {
	cfg      *config.Config
	store    *index.Store
	sources  Sources
	absolute bool
	runID    string
	progress io.Writer
	logger   *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithSources sets the metadata collaborators.
func WithSources(sources Sources) Option {
	return func(u *Updater) {
		u.sources = sources
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithRunID sets the identifier stamped on the run's context.
func WithRunID(id string) Option {
	return func(u *Updater) {
		if id != "" {
			u.runID = id
		}
	}
}

// WithProgressWriter enables the live counter line on w when w is a terminal.
func WithProgressWriter(w io.Writer) Option {
	return func(u *Updater) {
		u.progress = w
	}
}

// WithAbsoluteMapping overrides run.absolute_mapping.
func WithAbsoluteMapping(enabled bool) Option {
	return func(u *Updater) {
		u.absolute = enabled
	}
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// New constructs an Updater writing to store.
func New(cfg *config.Config, store *index.Store, opts ...Option) (*Updater, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "updater", "new", "config is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "updater", "new", "index store is required", nil)
	}
	u := &Updater{
		cfg:      cfg,
		store:    store,
		absolute: cfg.Run.AbsoluteMapping,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.runID == "" {
		u.runID = NewRunID()
	}
	u.logger = logging.NewComponentLogger(u.logger, "updater")
	return u, nil
}

// RunID returns the run identifier.
func (u *Updater) RunID() string {
	return u.runID
}

// Run updates every collection in order. It returns the results gathered so
// far together with the first error that ended the run.
func (u *Updater) Run(ctx context.Context, collections []mapping.Collection) (Summary, error) {
	summary := Summary{RunID: u.runID}
	started := time.Now()

	lock := flock.New(u.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return summary, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			u.logger.Warn("failed to release index lock", logging.Error(err))
		}
	}()

	ctx = services.WithRunID(ctx, u.runID)
	u.logger.Info("update started",
		logging.String(logging.FieldEventType, "update_started"),
		logging.String("source", u.cfg.Source.AnimeList),
		logging.Int("collections", len(collections)),
		logging.Bool("absolute_mapping", u.absolute))

	for _, collection := range collections {
		result, err := u.runCollection(ctx, collection)
		summary.Collections = append(summary.Collections, result)
		if err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}
	}

	summary.Duration = time.Since(started)
	u.logger.Info("update finished",
		logging.String(logging.FieldEventType, "update_finished"),
		logging.Int("updated", summary.Updated()),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

func (u *Updater) newParser() *parser.Parser {
	opts := []parser.Option{parser.WithLogger(u.logger)}
	if !u.sources.Empty() {
		verify := parser.Sources{Anime: u.sources.Anime, Movies: u.sources.Movies}
		if shows, ok := u.sources.Shows[mapping.TMDbShow]; ok {
			verify.Shows = shows
		}
		opts = append(opts, parser.WithSources(verify))
	}
	if u.absolute {
		opts = append(opts, parser.WithAbsoluteMapper(absolute.New(u.sources.Anime, u.sources.Shows, u.logger)))
	}
	return parser.New(opts...)
}

func (u *Updater) runCollection(ctx context.Context, collection mapping.Collection) (result CollectionResult, err error) {
	result = CollectionResult{Collection: collection.String()}
	started := time.Now()
	defer func() { result.Duration = time.Since(started) }()

	ctx = services.WithCollection(ctx, collection.String())
	logger := logging.WithContext(ctx, u.logger)

	reader, err := animelist.Open(u.cfg.Source.AnimeList)
	if err != nil {
		return result, fmt.Errorf("open anime list: %w", err)
	}
	defer reader.Close()

	p := u.newParser()
	engine := merge.New(collection, u.store.Collection(collection), merge.NewState(), u.logger)
	sampler := logging.NewProgressSampler(u.cfg.Run.ProgressBucket)
	counter := newCounterLine(u.progress, collection.String())
	defer func() { counter.finish(&result) }()

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		node, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, err
		}
		result.Records++

		if err := u.processNode(ctx, p, engine, node, &result); err != nil {
			return result, err
		}

		percent := reader.Progress()
		if sampler.ShouldLog(percent, collection.String()) {
			logger.Info("update progress",
				logging.String(logging.FieldEventType, "update_progress"),
				logging.Float64("percent", percent),
				logging.Int("records", result.Records),
				logging.Int("updated", result.Updated))
		}
		counter.render(&result)
	}

	logger.Info("collection updated",
		logging.String(logging.FieldEventType, "collection_updated"),
		logging.Int("records", result.Records),
		logging.Int("items", result.Items),
		logging.Int("updated", result.Updated),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed))
	return result, nil
}

// processNode parses one record and merges its items. Only fatal errors are
// returned.
func (u *Updater) processNode(ctx context.Context, p *parser.Parser, engine *merge.Engine, node *animelist.Node, result *CollectionResult) error {
	items, err := p.Parse(ctx, engine.Collection(), node)
	if err != nil {
		if services.IsFatal(err) {
			return u.abort(ctx, node, err)
		}
		result.Skipped++
		result.count(err)
		logging.WithContext(ctx, u.logger).Debug("record skipped",
			logging.Int("line", node.Line),
			logging.String("outcome", services.Outcome(err)),
			logging.Error(err))
		return nil
	}
	if len(items) == 0 {
		result.Ignored++
		return nil
	}

	for _, item := range items {
		result.Items++
		updated, err := engine.Process(ctx, node, item)
		if err != nil {
			if services.IsFatal(err) {
				return u.abort(ctx, node, err)
			}
			result.Failed++
			result.count(err)
		}
		if updated {
			result.Updated++
		}
	}
	return nil
}

// abort logs the fatal error that ends the run and returns it.
func (u *Updater) abort(ctx context.Context, node *animelist.Node, err error) error {
	logging.ErrorWithContext(logging.WithContext(ctx, u.logger), "update aborted", "update_aborted",
		logging.Int("line", node.Line),
		logging.String("outcome", services.Outcome(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "fix the record in the anime list and rerun"))
	return err
}

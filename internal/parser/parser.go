package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"animap/internal/animelist"
	"animap/internal/identifiers"
	"animap/internal/logging"
	"animap/internal/mapping"
	"animap/internal/metadata"
	"animap/internal/services"
)

// Sources are the metadata collaborators used to verify movie- and
// show-database identifiers. Nil sources skip verification.
type Sources struct {
	Anime  metadata.AnimeSource
	Movies metadata.MovieSource
	Shows  metadata.ShowSource
}

// AbsoluteMapper converts absolute ("a") default seasons on parsed items.
type AbsoluteMapper interface {
	Process(ctx context.Context, item *mapping.Item) error
}

// Parser builds mapping items from anime-list records.
type Parser struct {
	sources Sources
	mapper  AbsoluteMapper
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithSources enables identifier verification against metadata sources.
func WithSources(sources Sources) Option {
	return func(p *Parser) {
		p.sources = sources
	}
}

// WithAbsoluteMapper enables absolute-numbering conversion.
func WithAbsoluteMapper(mapper AbsoluteMapper) Option {
	return func(p *Parser) {
		p.mapper = mapper
	}
}

// WithLogger sets the logger used for per-item warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "parser")
	return p
}

// record carries the attributes shared by every item parsed from one node.
type record struct {
	collection    mapping.Collection
	node          *animelist.Node
	variant       variant
	anidb         mapping.IDs
	defaultSeason string
}

// Parse returns the items node contributes to collection. When a record
// expands into several items, failures of individual expansions are logged
// and only reported if no item survives.
func (p *Parser) Parse(ctx context.Context, collection mapping.Collection, node *animelist.Node) ([]*mapping.Item, error) {
	v, ok, err := selectVariant(collection, node)
	if err != nil || !ok {
		return nil, err
	}
	if v.media != collection.Media() {
		return nil, nil
	}

	defaultSeason, ok := node.Attr(attrDefaultSeason)
	if !ok {
		return nil, services.Wrap(services.ErrInvalidRecord, "parser", "parse",
			fmt.Sprintf("record on line %d has no %s", node.Line, attrDefaultSeason), nil)
	}
	anidbRaw, _ := node.Attr(attrAniDB)
	anidbIDs, err := identifiers.Normalize(mapping.AniDB, anidbRaw)
	if err != nil {
		return nil, err
	}
	otherRaw, _ := node.Attr(v.attribute)
	split, err := identifiers.Split(v.provider, otherRaw)
	if err != nil {
		return nil, err
	}
	if len(split.Rejected) > 0 {
		p.logger.Debug("dropped invalid identifiers",
			logging.String("provider", v.provider),
			logging.Any("rejected", split.Rejected),
			logging.Int("line", node.Line))
	}

	rec := record{
		collection:    collection,
		node:          node,
		variant:       v,
		anidb:         anidbIDs,
		defaultSeason: defaultSeason,
	}
	baseOffset := episodeOffset(node)

	if !v.expand {
		item, err := p.build(ctx, rec, split.IDs(), baseOffset)
		if err != nil {
			return nil, err
		}
		return []*mapping.Item{item}, nil
	}

	var (
		items    []*mapping.Item
		failures []error
	)
	for _, value := range split.Values {
		offset := baseOffset
		if split.Total > 1 {
			offset = baseOffset + value.Index
		}
		item, err := p.build(ctx, rec, mapping.IDs{value.ID}, offset)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, errors.Join(failures...)
	}
	for _, err := range failures {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "record expansion skipped", "parse_expansion_failed",
			logging.String("variant", v.kind.String()),
			logging.Int("line", node.Line),
			logging.String("outcome", services.Outcome(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "other identifiers of the record were kept"))
	}
	return items, nil
}

func (p *Parser) build(ctx context.Context, rec record, ids mapping.IDs, offset int) (*mapping.Item, error) {
	item := mapping.NewItem(rec.collection, rec.variant.media)
	item.Identifiers[mapping.AniDB] = slices.Clone(rec.anidb)
	item.Identifiers[rec.variant.provider] = ids
	item.Parameters = mapping.Parameters{DefaultSeason: rec.defaultSeason, EpisodeOffset: offset}

	if name := rec.node.Name; name != "" {
		for _, id := range item.Identifiers[rec.collection.Target] {
			item.Names[id] = item.Names[id].Add(name)
		}
	}

	if rec.variant.verify {
		if err := p.verify(ctx, rec.variant, item); err != nil {
			return nil, err
		}
	}

	if item.Media == mapping.MediaShow {
		if err := parseMappings(item, rec.node); err != nil {
			return nil, err
		}
	}

	if len(rec.node.Supplemental) > 0 {
		item.Supplemental = maps.Clone(rec.node.Supplemental)
	}

	if p.mapper != nil {
		if err := p.mapper.Process(ctx, item); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, p.logger), "absolute mapping skipped", "absolute_mapping_failed",
				logging.Any("identifiers", item.Identifiers),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metadata provider availability"),
				logging.String(logging.FieldImpact, "item kept with its parsed mappings"))
		}
	}
	return item, nil
}

// verify confirms the AniDB anime and the movie/show exist.
func (p *Parser) verify(ctx context.Context, v variant, item *mapping.Item) error {
	anidbID := item.Identifiers.Get(mapping.AniDB)
	otherID := item.Identifiers.Get(v.provider)

	if p.sources.Anime != nil && anidbID != "" {
		anime, err := p.sources.Anime.FetchAnime(ctx, anidbID)
		if outcome := fetchOutcome(mapping.AniDB, anidbID, anime != nil, err); outcome != nil {
			return outcome
		}
	}
	switch v.kind {
	case movieDB:
		if p.sources.Movies == nil {
			return nil
		}
		movie, err := p.sources.Movies.FetchMovie(ctx, otherID)
		return fetchOutcome(v.provider, otherID, movie != nil, err)
	case showDB:
		if p.sources.Shows == nil {
			return nil
		}
		show, err := p.sources.Shows.FetchShow(ctx, otherID)
		return fetchOutcome(v.provider, otherID, show != nil, err)
	}
	return nil
}

func fetchOutcome(provider, id string, found bool, err error) error {
	if err != nil {
		if errors.Is(err, services.ErrMetadataFetch) {
			return err
		}
		return services.Wrap(services.ErrMetadataFetch, "parser", "verify",
			fmt.Sprintf("fetch %s %s", provider, id), err)
	}
	if !found {
		return services.Wrap(services.ErrMetadataFetch, "parser", "verify",
			fmt.Sprintf("%s %s not found", provider, id), nil)
	}
	return nil
}

// episodeOffset reads the record's episode offset; absent or malformed
// values mean no offset.
func episodeOffset(node *animelist.Node) int {
	raw, _ := node.Attr(attrEpisodeOffset)
	offset, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return offset
}

package parser_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"animap/internal/animelist"
	"animap/internal/mapping"
	"animap/internal/metadata"
	"animap/internal/parser"
	"animap/internal/services"
)

func node(attrs map[string]string, name string, mappings ...animelist.Mapping) *animelist.Node {
	return &animelist.Node{Attrs: attrs, Name: name, Mappings: mappings, Line: 1}
}

func textMapping(attrs map[string]string, text string) animelist.Mapping {
	return animelist.Mapping{Attrs: attrs, Text: text}
}

func TestParseRequiresDefaultSeason(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tvdbid": "2"}, "Example")
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if !errors.Is(err, services.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseIgnoresRecordsOutsideCollection(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tvdbid": "2", "defaulttvdbseason": "1"}, "Example")
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/imdb"), n)
	if err != nil || items != nil {
		t.Fatalf("expected no items and no error, got %v, %v", items, err)
	}
}

func TestParseFilmRegistryExpandsWithOffsets(t *testing.T) {
	n := node(map[string]string{
		"anidbid":           "23",
		"imdbid":            "tt0100,unknown,tt0300",
		"defaulttvdbseason": "1",
		"episodeoffset":     "2",
	}, "Cowboy Bebop: Movie")
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/imdb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	cases := []struct {
		imdb   string
		offset int
	}{{"tt0100", 2}, {"tt0300", 4}}
	for i, tc := range cases {
		item := items[i]
		if got := item.Identifiers.Get(mapping.IMDb); got != tc.imdb {
			t.Fatalf("item %d imdb: got %q want %q", i, got, tc.imdb)
		}
		if item.Parameters.EpisodeOffset != tc.offset {
			t.Fatalf("item %d offset: got %d want %d", i, item.Parameters.EpisodeOffset, tc.offset)
		}
		if item.Media != mapping.MediaMovie {
			t.Fatalf("item %d media: got %s", i, item.Media)
		}
		if !slices.Equal(item.Names[tc.imdb], mapping.NameSet{"Cowboy Bebop: Movie"}) {
			t.Fatalf("item %d names: got %v", i, item.Names)
		}
	}
}

func TestParseFilmRegistrySingleIDKeepsOffset(t *testing.T) {
	n := node(map[string]string{"anidbid": "23", "imdbid": "tt0100", "defaulttvdbseason": "1", "episodeoffset": "3"}, "X")
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("imdb/anidb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 || items[0].Parameters.EpisodeOffset != 3 {
		t.Fatalf("unexpected items %+v", items)
	}
	if !slices.Equal(items[0].Names["23"], mapping.NameSet{"X"}) {
		t.Fatalf("expected names keyed by anidb id, got %v", items[0].Names)
	}
}

func TestParseFilmRegistryRejectsInvalidIDs(t *testing.T) {
	n := node(map[string]string{"anidbid": "23", "imdbid": "nm0001,unknown", "defaulttvdbseason": "1"}, "X")
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/imdb"), n)
	if !errors.Is(err, services.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestParseLegacyTMDbIDIsRejected(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tmdbid": "129", "defaulttvdbseason": "1"}, "X")
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/tmdb:movie"), n)
	if !errors.Is(err, services.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestParseTMDbMediaMustMatchCollection(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tmdbsid": "1429", "defaulttvdbseason": "1"}, "X")
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/tmdb:movie"), n)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected nothing for a show record in a movie collection, got %v, %v", items, err)
	}
}

type fakeSources struct {
	anime  map[string]bool
	movies map[string]bool
}

func (f fakeSources) FetchAnime(_ context.Context, id string) (*metadata.Anime, error) {
	if !f.anime[id] {
		return nil, nil
	}
	return &metadata.Anime{ID: id}, nil
}

func (f fakeSources) FetchMovie(_ context.Context, id string) (*metadata.Movie, error) {
	if !f.movies[id] {
		return nil, nil
	}
	return &metadata.Movie{ID: id}, nil
}

func TestParseMovieDBVerifiesIdentifiers(t *testing.T) {
	sources := fakeSources{anime: map[string]bool{"1": true}, movies: map[string]bool{"200": true}}
	p := parser.New(parser.WithSources(parser.Sources{Anime: sources, Movies: sources}))
	collection := mapping.MustParseCollection("tmdb:movie/anidb")

	n := node(map[string]string{"anidbid": "1", "tmdbid": "100,200", "tmdbmid": "100,200", "defaulttvdbseason": "1"}, "X")
	items, err := p.Parse(context.Background(), collection, n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 || items[0].Identifiers.Get(mapping.TMDbMovie) != "200" {
		t.Fatalf("expected only the verified movie, got %+v", items)
	}
	if items[0].Parameters.EpisodeOffset != 1 {
		t.Fatalf("expected offset from list position, got %d", items[0].Parameters.EpisodeOffset)
	}

	missing := node(map[string]string{"anidbid": "1", "tmdbmid": "100", "defaulttvdbseason": "1"}, "X")
	if _, err := p.Parse(context.Background(), collection, missing); !errors.Is(err, services.ErrMetadataFetch) {
		t.Fatalf("expected ErrMetadataFetch, got %v", err)
	}
}

func TestParseTVDbKeepsIdentifierList(t *testing.T) {
	n := node(map[string]string{"anidbid": "5", "tvdbid": "100,OVA,200", "defaulttvdbseason": "1"}, "X")
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/tvdb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if got := items[0].Identifiers[mapping.TVDb]; !slices.Equal(got, mapping.IDs{"100", "200"}) {
		t.Fatalf("tvdb ids: got %v", got)
	}
	if len(items[0].Names) != 2 {
		t.Fatalf("expected a name per tvdb id, got %v", items[0].Names)
	}
}

func TestParseTVDbIgnoredKindIsInvalid(t *testing.T) {
	n := node(map[string]string{"anidbid": "5", "tvdbid": "movie", "defaulttvdbseason": "1"}, "X")
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if !errors.Is(err, services.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestParseSeasonMappingDirection(t *testing.T) {
	seasonNode := func() *animelist.Node {
		return node(map[string]string{"anidbid": "5", "tvdbid": "9", "defaulttvdbseason": "1"}, "X",
			animelist.Mapping{Attrs: map[string]string{
				"anidbseason": "1", "tvdbseason": "2", "start": "1", "end": "10", "offset": "5",
			}})
	}

	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), seasonNode())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := items[0].Seasons["2"].Mappings
	want := mapping.SeasonMapping{Season: "1", Start: 6, End: 15, Offset: -5}
	if len(got) != 1 || got[0].Season != want.Season || got[0].Start != want.Start || got[0].End != want.End || got[0].Offset != want.Offset {
		t.Fatalf("tvdb/anidb mapping: got %+v want %+v", got, want)
	}

	items, err = parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/tvdb"), seasonNode())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got = items[0].Seasons["1"].Mappings
	if len(got) != 1 || got[0].Season != "2" || got[0].Start != 1 || got[0].End != 10 || got[0].Offset != 5 {
		t.Fatalf("anidb/tvdb mapping: got %+v", got)
	}
}

func TestParseSeasonMappingRequiresWindow(t *testing.T) {
	n := node(map[string]string{"anidbid": "5", "tvdbid": "9", "defaulttvdbseason": "1"}, "X",
		animelist.Mapping{Attrs: map[string]string{"anidbseason": "1", "tvdbseason": "2", "start": "x", "end": "3"}})
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if !errors.Is(err, services.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseEpisodeMappingTimeline(t *testing.T) {
	n := node(map[string]string{"anidbid": "5", "tvdbid": "9", "defaulttvdbseason": "1"}, "X",
		textMapping(map[string]string{"anidbseason": "1", "tvdbseason": "1"}, ";1+2-3;"))
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("anidb/tvdb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	season := items[0].Seasons["1"]
	if got := season.EpisodeNumbers(); !slices.Equal(got, []string{"1", "2"}) {
		t.Fatalf("episodes: got %v", got)
	}
	second := season.Episodes["2"].Mappings
	if len(second) != 1 || second[0].Season != "1" || second[0].Number != "3" {
		t.Fatalf("unexpected mapping %+v", second)
	}
	tl := second[0].Timeline
	if tl == nil || tl.Source != mapping.FullRange || tl.Target != (mapping.Range{Start: 50, End: 100}) {
		t.Fatalf("unexpected timeline %+v", tl)
	}
}

func TestParseEmptyDefaultSeasonMappingInvalidatesRecord(t *testing.T) {
	n := node(map[string]string{"anidbid": "1490", "tvdbid": "81341", "defaulttvdbseason": "0"}, "Jungle Taitei (1997)",
		textMapping(map[string]string{"anidbseason": "1", "tvdbseason": "0"}, ";1-0;2-0;3-0;"))
	_, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if !errors.Is(err, services.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseEmptyMappingOutsideDefaultSeasonIsAccepted(t *testing.T) {
	n := node(map[string]string{"anidbid": "1530", "tvdbid": "81472", "defaulttvdbseason": "a"}, "Dragon Ball Z",
		textMapping(map[string]string{"anidbseason": "0", "tvdbseason": "0"}, ";1-0;2-0;3-0;4-0;5-0;"))
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items[0].Seasons) != 0 {
		t.Fatalf("expected no seasons, got %v", items[0].SeasonKeys())
	}
}

func TestParseEarlierEpisodeMappingKeepsRecordValid(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tvdbid": "2", "defaulttvdbseason": "0"}, "X",
		textMapping(map[string]string{"anidbseason": "1", "tvdbseason": "0"}, ";1-4;"),
		textMapping(map[string]string{"anidbseason": "1", "tvdbseason": "0"}, ";1-0;"))
	if _, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n); err != nil {
		t.Fatalf("expected record to stay valid, got %v", err)
	}
}

type recordingMapper struct {
	calls int
	err   error
}

func (m *recordingMapper) Process(context.Context, *mapping.Item) error {
	m.calls++
	return m.err
}

func TestParseMapperFailureKeepsItem(t *testing.T) {
	mapper := &recordingMapper{err: services.Wrap(services.ErrMetadataFetch, "absolute", "fetch", "offline", nil)}
	p := parser.New(parser.WithAbsoluteMapper(mapper))
	n := node(map[string]string{"anidbid": "1530", "tvdbid": "81472", "defaulttvdbseason": "a"}, "Dragon Ball Z")
	items, err := p.Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 || mapper.calls != 1 {
		t.Fatalf("expected item kept and mapper called once, got %d items %d calls", len(items), mapper.calls)
	}
}

func TestParseCopiesSupplemental(t *testing.T) {
	n := node(map[string]string{"anidbid": "1", "tvdbid": "2", "defaulttvdbseason": "1"}, "X")
	n.Supplemental = map[string]string{"studio": "Sunrise", "director": "Watanabe"}
	items, err := parser.New().Parse(context.Background(), mapping.MustParseCollection("tvdb/anidb"), n)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := items[0].Supplemental
	if got["studio"] != "Sunrise" || got["director"] != "Watanabe" {
		t.Fatalf("unexpected supplemental %v", got)
	}
	n.Supplemental["studio"] = "changed"
	if items[0].Supplemental["studio"] != "Sunrise" {
		t.Fatal("supplemental must be copied, not shared")
	}
}

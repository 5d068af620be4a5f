package mapping

import (
	"errors"
	"slices"
	"testing"

	"animap/internal/services"
)

var tvdbToAniDB = Collection{Source: TVDb, Target: AniDB}

func rawItem(anidbID, name, defaultSeason string, offset int) *Item {
	it := NewItem(tvdbToAniDB, MediaShow)
	it.Identifiers = Identifiers{AniDB: {anidbID}, TVDb: {"137151"}}
	it.Names = Names{anidbID: NameSet{name}}
	it.Parameters = Parameters{DefaultSeason: defaultSeason, EpisodeOffset: offset}
	return it
}

func TestFoldPushesIdentityDown(t *testing.T) {
	timeDrive := rawItem("6392", "Time Drive", "1", 0)
	sp := timeDrive.Season("0")
	sp.Episode("5").AddMapping(EpisodeMapping{Season: "1", Number: "1", Timeline: &Timeline{Source: FullRange, Target: FullRange}})
	sp.Episode("6").AddMapping(EpisodeMapping{Season: "1", Number: "2", Timeline: &Timeline{Source: FullRange, Target: FullRange}})

	series := rawItem("6494", "Cobra The Animation", "1", 0)
	psychogun := rawItem("5894", "The Psychogun", "0", 0)

	current, err := Fold(timeDrive, series, TVDb)
	if err != nil {
		t.Fatalf("Fold returned error: %v", err)
	}
	current, err = Fold(current, psychogun, TVDb)
	if err != nil {
		t.Fatalf("Fold returned error: %v", err)
	}

	if !current.Identifiers.Equal(Identifiers{TVDb: {"137151"}}) {
		t.Fatalf("unexpected top-level identifiers %v", current.Identifiers)
	}
	if len(current.Names) != 0 {
		t.Fatalf("expected no top-level names, got %v", current.Names)
	}
	if !current.Merged() {
		t.Fatal("expected merged item")
	}

	s1 := current.Seasons["1"]
	if !slices.Equal(s1.Identifiers[AniDB], IDs{"6392", "6494"}) {
		t.Fatalf("season 1 identifiers = %v", s1.Identifiers)
	}
	if len(s1.Names) != 2 || s1.Names["6494"][0] != "Cobra The Animation" {
		t.Fatalf("season 1 names = %v", s1.Names)
	}
	if len(s1.Episodes) != 0 {
		t.Fatalf("season 1 should have no episodes, got %v", s1.EpisodeNumbers())
	}

	s0 := current.Seasons["0"]
	if s0.Identifiers.Get(AniDB) != "5894" {
		t.Fatalf("season 0 identifiers = %v", s0.Identifiers)
	}
	if got := s0.EpisodeNumbers(); !slices.Equal(got, []string{"5", "6"}) {
		t.Fatalf("season 0 episodes = %v", got)
	}
	for _, number := range []string{"5", "6"} {
		if s0.Episodes[number].Identifiers.Get(AniDB) != "6392" {
			t.Fatalf("episode %s identifiers = %v", number, s0.Episodes[number].Identifiers)
		}
	}
}

func TestFoldClaimsEpisodeForOffsetItems(t *testing.T) {
	first := rawItem("3395", "Black Lagoon", "1", 0)
	second := rawItem("4597", "The Second Barrage", "1", 12)
	specials := rawItem("6645", "Roberta's Blood Trail", "0", 7)
	specials.Season("0").AddMapping(SeasonMapping{Season: "0", Start: 13, End: 17, Offset: -12})

	current, err := Fold(first, second, TVDb)
	if err != nil {
		t.Fatalf("Fold returned error: %v", err)
	}
	current, err = Fold(current, specials, TVDb)
	if err != nil {
		t.Fatalf("Fold returned error: %v", err)
	}

	if got := current.Seasons["1"].Episodes["13"].Identifiers.Get(AniDB); got != "4597" {
		t.Fatalf("episode 13 identifier = %q", got)
	}
	if got := current.Seasons["0"].Episodes["8"].Identifiers.Get(AniDB); got != "6645" {
		t.Fatalf("episode 8 identifier = %q", got)
	}
	if len(current.Seasons["0"].Identifiers) != 0 {
		t.Fatalf("season 0 should not be claimed: %v", current.Seasons["0"].Identifiers)
	}
	m := current.Seasons["0"].Mappings[0]
	if m.Identifiers.Get(AniDB) != "6645" || !slices.Equal(m.Names, NameSet{"Roberta's Blood Trail"}) {
		t.Fatalf("unexpected season mapping identity: %+v", m)
	}
}

func TestFoldDoesNotMutateInputs(t *testing.T) {
	a := rawItem("1", "A", "1", 0)
	b := rawItem("2", "B", "1", 0)
	before := a.Clone()
	if _, err := Fold(a, b, TVDb); err != nil {
		t.Fatalf("Fold returned error: %v", err)
	}
	ha, _ := a.Hash()
	hb, _ := before.Hash()
	if ha != hb {
		t.Fatal("Fold mutated current item")
	}
	if len(a.Seasons) != 0 {
		t.Fatalf("Fold created seasons on input: %v", a.SeasonKeys())
	}
}

func TestFoldConflicts(t *testing.T) {
	base := rawItem("1", "A", "1", 0)

	movie := rawItem("2", "B", "1", 0)
	movie.Media = MediaMovie
	if _, err := Fold(base, movie, TVDb); !errors.Is(err, services.ErrMergeConflict) {
		t.Fatalf("expected merge conflict for media mismatch, got %v", err)
	}

	otherKey := rawItem("2", "B", "1", 0)
	otherKey.Identifiers[TVDb] = IDs{"999"}
	if _, err := Fold(base, otherKey, TVDb); !errors.Is(err, services.ErrMergeConflict) {
		t.Fatalf("expected merge conflict for key mismatch, got %v", err)
	}

	otherCollection := rawItem("2", "B", "1", 0)
	otherCollection.Collection = Collection{Source: AniDB, Target: TVDb}
	if _, err := Fold(base, otherCollection, TVDb); !errors.Is(err, services.ErrMergeConflict) {
		t.Fatalf("expected merge conflict for collection mismatch, got %v", err)
	}
}

func TestHashIsStableAndContentSensitive(t *testing.T) {
	build := func() *Item {
		it := rawItem("1530", "Dragon Ball Z", "a", 0)
		it.Season("0").Episode("2").AddMapping(EpisodeMapping{Season: "0", Number: "1", Timeline: &Timeline{Source: FullRange, Target: FullRange}})
		it.Season("0").Episode("3").AddMapping(EpisodeMapping{Season: "0", Number: "2", Timeline: &Timeline{Source: FullRange, Target: FullRange}})
		it.Supplemental = map[string]string{"studio": "Toei Animation"}
		return it
	}
	h1, err := build().Hash()
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		h2, _ := build().Hash()
		if h1 != h2 {
			t.Fatal("hash is not stable across identical items")
		}
	}
	changed := build()
	changed.Season("0").Episode("4")
	h3, _ := changed.Hash()
	if h3 == h1 {
		t.Fatal("expected hash to change with content")
	}
}

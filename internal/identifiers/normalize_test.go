package identifiers

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"animap/internal/mapping"
	"animap/internal/services"
)

func TestNormalizeFiltersUnknownAndKeepsOrder(t *testing.T) {
	ids, err := Normalize(mapping.IMDb, "tt123,unknown,tt456")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !slices.Equal(ids, mapping.IDs{"tt123", "tt456"}) {
		t.Fatalf("got %v", ids)
	}

	single, err := Normalize(mapping.IMDb, "tt123")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if v, ok := single.Scalar(); !ok || v != "tt123" {
		t.Fatalf("expected scalar tt123, got %v", single)
	}
	data, _ := json.Marshal(single)
	if string(data) != `"tt123"` {
		t.Fatalf("expected scalar encoding, got %s", data)
	}
}

func TestSplitReportsPositions(t *testing.T) {
	result, err := Split(mapping.TMDbMovie, "unknown,101,202")
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected 3 raw entries, got %d", result.Total)
	}
	want := []Value{{ID: "101", Index: 1}, {ID: "202", Index: 2}}
	if !slices.Equal(result.Values, want) {
		t.Fatalf("got %v want %v", result.Values, want)
	}
}

func TestTVDbIgnoreList(t *testing.T) {
	ids, err := Normalize(mapping.TVDb, "movie,79604,OVA,tv special,web")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if !slices.Equal(ids, mapping.IDs{"79604"}) {
		t.Fatalf("got %v", ids)
	}
	// The ignore list is provider-specific.
	if _, err := Normalize(mapping.TMDbShow, "movie"); !errors.Is(err, services.ErrInvalidIdentifier) {
		t.Fatalf("expected invalid identifier for tmdb, got %v", err)
	}
}

func TestValidationRejectsMalformedCandidates(t *testing.T) {
	cases := []struct {
		provider string
		raw      string
		want     mapping.IDs
		rejected int
	}{
		{mapping.IMDb, "tt1,nm2,tt", mapping.IDs{"tt1"}, 2},
		{mapping.TVDb, "81472,x1", mapping.IDs{"81472"}, 1},
		{mapping.TMDbShow, "12, 34", mapping.IDs{"12", "34"}, 0},
	}
	for _, tc := range cases {
		result, err := Split(tc.provider, tc.raw)
		if err != nil {
			t.Fatalf("%s %q: unexpected error %v", tc.provider, tc.raw, err)
		}
		if !slices.Equal(result.IDs(), tc.want) || len(result.Rejected) != tc.rejected {
			t.Fatalf("%s %q: got %v rejected %v", tc.provider, tc.raw, result.IDs(), result.Rejected)
		}
	}
}

func TestEveryCandidateInvalidFailsRecord(t *testing.T) {
	for _, tc := range []struct{ provider, raw string }{
		{mapping.IMDb, "unknown"},
		{mapping.IMDb, "123"},
		{mapping.TVDb, "hentai,OVA"},
		{mapping.TMDbMovie, ""},
		{mapping.AniDB, "abc"},
	} {
		if _, err := Normalize(tc.provider, tc.raw); !errors.Is(err, services.ErrInvalidIdentifier) {
			t.Fatalf("%s %q: expected ErrInvalidIdentifier, got %v", tc.provider, tc.raw, err)
		}
	}
}

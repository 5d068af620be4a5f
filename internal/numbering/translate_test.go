package numbering

import (
	"fmt"
	"slices"
	"testing"

	"animap/internal/mapping"
)

var (
	anidbToTVDb = mapping.Collection{Source: mapping.AniDB, Target: mapping.TVDb}
	tvdbToAniDB = mapping.Collection{Source: mapping.TVDb, Target: mapping.AniDB}
)

func TestTranslateSimpleEntries(t *testing.T) {
	rows := Translate(tvdbToAniDB, ";1-5;2-6;3-7;")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	want := []Row{
		{Source: "5", Target: "1", SourceRange: mapping.FullRange, TargetRange: mapping.FullRange},
		{Source: "6", Target: "2", SourceRange: mapping.FullRange, TargetRange: mapping.FullRange},
		{Source: "7", Target: "3", SourceRange: mapping.FullRange, TargetRange: mapping.FullRange},
	}
	if !slices.Equal(rows, want) {
		t.Fatalf("got %+v want %+v", rows, want)
	}

	rows = Translate(anidbToTVDb, ";1-5;")
	if len(rows) != 1 || rows[0].Source != "1" || rows[0].Target != "5" {
		t.Fatalf("unexpected anidb-sourced rows: %+v", rows)
	}
}

func TestTranslateCartesianProduct(t *testing.T) {
	for _, tc := range []struct {
		text    string
		sources int
		targets int
	}{
		{"1+2-3", 2, 1},
		{"1-2+3+4", 1, 3},
		{"1+2-3+4+5", 2, 3},
		{"7-8", 1, 1},
	} {
		rows := Translate(anidbToTVDb, tc.text)
		if len(rows) != tc.sources*tc.targets {
			t.Fatalf("%q: expected %d rows, got %d", tc.text, tc.sources*tc.targets, len(rows))
		}

		bySource := map[string][]mapping.Range{}
		for _, row := range rows {
			bySource[row.Source] = append(bySource[row.Source], row.SourceRange)
		}
		for source, ranges := range bySource {
			slices.SortFunc(ranges, func(a, b mapping.Range) int { return a.Start - b.Start })
			if ranges[0].Start != 0 || ranges[len(ranges)-1].End != 100 {
				t.Fatalf("%q: source %s ranges %v do not span 0..100", tc.text, source, ranges)
			}
			for i := 1; i < len(ranges); i++ {
				if ranges[i].Start != ranges[i-1].End {
					t.Fatalf("%q: source %s ranges %v overlap or leave gaps", tc.text, source, ranges)
				}
			}
		}
	}
}

func TestTranslateThirdsRoundHalfAwayFromZero(t *testing.T) {
	rows := Translate(anidbToTVDb, "1-2+3+4")
	got := make([]string, 0, len(rows))
	for _, row := range rows {
		got = append(got, fmt.Sprintf("%d-%d", row.SourceRange.Start, row.SourceRange.End))
	}
	if want := []string{"0-33", "33-67", "67-100"}; !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	rows = Translate(anidbToTVDb, "1+2-3")
	if rows[0].TargetRange != (mapping.Range{Start: 0, End: 50}) || rows[1].TargetRange != (mapping.Range{Start: 50, End: 100}) {
		t.Fatalf("unexpected target ranges: %+v", rows)
	}
}

func TestTranslateSkipsPlaceholderSources(t *testing.T) {
	rows := Translate(anidbToTVDb, ";0-1;99-2;3-0;4+0-5;")
	for _, row := range rows {
		if row.Source == "0" || row.Source == "99" {
			t.Fatalf("placeholder source leaked: %+v", row)
		}
	}
	// "3-0" keeps target 0, "4+0-5" keeps source 4 with its half share.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[1].Source != "4" || rows[1].TargetRange != (mapping.Range{Start: 0, End: 50}) {
		t.Fatalf("unexpected row for combined group: %+v", rows[1])
	}

	if rows := Translate(tvdbToAniDB, ";1-0;2-0;3-0;"); len(rows) != 0 {
		t.Fatalf("expected no rows when every source is a placeholder, got %+v", rows)
	}
}

func TestTranslateSkipsMalformedEntries(t *testing.T) {
	rows := Translate(anidbToTVDb, ";;1;2-3-4;:5-6:")
	if len(rows) != 1 || rows[0].Source != "5" || rows[0].Target != "6" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows := Translate(anidbToTVDb, ""); rows != nil {
		t.Fatalf("expected nil rows for empty input, got %+v", rows)
	}
}

func TestTranslateIgnoresEmptyGroupMembers(t *testing.T) {
	rows := Translate(anidbToTVDb, ";1-2+;3+-4;")
	want := []Row{
		{Source: "1", Target: "2", SourceRange: mapping.FullRange, TargetRange: mapping.FullRange},
		{Source: "3", Target: "4", SourceRange: mapping.FullRange, TargetRange: mapping.FullRange},
	}
	if !slices.Equal(rows, want) {
		t.Fatalf("got %+v, want %+v", rows, want)
	}
}

// Package numbering translates anime-list episode-group strings such as
// ";1-2;2+3-4;" into per-episode correspondences between two providers.
package numbering

import (
	"math"
	"regexp"
	"strings"

	"animap/internal/mapping"
)

// Placeholder episode numbers meaning "no corresponding episode".
const (
	placeholderNone   = "0"
	placeholderUnused = "99"
)

var entrySeparator = regexp.MustCompile(`[;:]`)

// Row is one (source episode, target episode) correspondence.
//
// SourceRange is the slice of the source episode that the target episode
// covers; TargetRange is the slice of the target episode that the source
// episode covers. Across every row for one source episode the SourceRanges
// partition 0..100.
type Row struct {
	Source      string
	Target      string
	SourceRange mapping.Range
	TargetRange mapping.Range
}

// Timeline returns the row's ranges as an episode-mapping timeline.
func (r Row) Timeline() *mapping.Timeline {
	return &mapping.Timeline{Source: r.SourceRange, Target: r.TargetRange}
}

// Translate expands text into rows for collection. Entries are written
// "<anidb-group>-<other-group>" regardless of direction; a group is one or
// more "+"-joined episode numbers. Malformed entries are skipped and
// placeholder source numbers ("0", "99") produce no rows.
func Translate(collection mapping.Collection, text string) []Row {
	var rows []Row
	for _, entry := range entrySeparator.Split(text, -1) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		groups := strings.Split(entry, "-")
		if len(groups) != 2 {
			continue
		}
		anidbGroup, otherGroup := groups[0], groups[1]

		sourceGroup, targetGroup := otherGroup, anidbGroup
		if collection.SourceIsAniDB() {
			sourceGroup, targetGroup = anidbGroup, otherGroup
		}

		sources := splitGroup(sourceGroup)
		targets := splitGroup(targetGroup)
		for si, source := range sources {
			if source == placeholderNone || source == placeholderUnused {
				continue
			}
			sourceShare := share(si, len(sources))
			for ti, target := range targets {
				rows = append(rows, Row{
					Source:      source,
					Target:      target,
					SourceRange: share(ti, len(targets)),
					TargetRange: sourceShare,
				})
			}
		}
	}
	return rows
}

// splitGroup returns the non-empty members of group.
func splitGroup(group string) []string {
	var members []string
	for _, member := range strings.Split(group, "+") {
		if member = strings.TrimSpace(member); member != "" {
			members = append(members, member)
		}
	}
	return members
}

// share returns the proportional runtime range of member index within a
// group of count members, rounding half away from zero.
func share(index, count int) mapping.Range {
	return mapping.Range{
		Start: int(math.Round(float64(index) / float64(count) * 100)),
		End:   int(math.Round(float64(index+1) / float64(count) * 100)),
	}
}

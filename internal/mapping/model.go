package mapping

import (
	"maps"
	"slices"
	"strconv"
)

// Season keys with special meaning.
const (
	SeasonSpecials = "0"
	SeasonAbsolute = "a"
)

// Range is a percentage interval [Start, End) over 0..100 locating one
// episode's share of a combined or split episode.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// FullRange covers a whole episode.
var FullRange = Range{Start: 0, End: 100}

// Timeline pairs the slice of the source episode with the slice of the
// target episode it corresponds to.
type Timeline struct {
	Source Range `json:"source" yaml:"source"`
	Target Range `json:"target" yaml:"target"`
}

// Parameters carry the default-season marker and episode offset of a record.
// An EpisodeOffset of zero means no offset.
type Parameters struct {
	DefaultSeason string `json:"default_season,omitempty" yaml:"default_season,omitempty"`
	EpisodeOffset int    `json:"episode_offset,omitempty" yaml:"episode_offset,omitempty"`
}

// IsZero reports whether no parameter is set.
func (p Parameters) IsZero() bool {
	return p.DefaultSeason == "" && p.EpisodeOffset == 0
}

// SeasonMapping maps episodes [Start, End] of the owning season to Season
// with target = source + Offset.
type SeasonMapping struct {
	Season      string      `json:"season" yaml:"season"`
	Start       int         `json:"start" yaml:"start"`
	End         int         `json:"end" yaml:"end"`
	Offset      int         `json:"offset" yaml:"offset"`
	Identifiers Identifiers `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Names       NameSet     `json:"names,omitempty" yaml:"names,omitempty"`
}

func (m SeasonMapping) sameWindow(other SeasonMapping) bool {
	return m.Season == other.Season && m.Start == other.Start && m.End == other.End && m.Offset == other.Offset
}

// EpisodeMapping maps one source episode (or a slice of it) to a target
// season/episode.
type EpisodeMapping struct {
	Season   string    `json:"season" yaml:"season"`
	Number   string    `json:"number" yaml:"number"`
	Timeline *Timeline `json:"timeline,omitempty" yaml:"timeline,omitempty"`
}

func (m EpisodeMapping) equal(other EpisodeMapping) bool {
	if m.Season != other.Season || m.Number != other.Number {
		return false
	}
	if m.Timeline == nil || other.Timeline == nil {
		return m.Timeline == nil && other.Timeline == nil
	}
	return *m.Timeline == *other.Timeline
}

// Episode is one source episode within a Season.
type Episode struct {
	Identifiers Identifiers      `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Names       Names            `json:"names,omitempty" yaml:"names,omitempty"`
	Mappings    []EpisodeMapping `json:"mappings,omitempty" yaml:"mappings,omitempty"`
}

// AddMapping appends m unless an identical mapping already exists.
func (e *Episode) AddMapping(m EpisodeMapping) {
	for _, existing := range e.Mappings {
		if existing.equal(m) {
			return
		}
	}
	e.Mappings = append(e.Mappings, m)
}

func (e *Episode) clone() *Episode {
	out := &Episode{
		Identifiers: e.Identifiers.Clone(),
		Names:       e.Names.Clone(),
	}
	for _, m := range e.Mappings {
		if m.Timeline != nil {
			tl := *m.Timeline
			m.Timeline = &tl
		}
		out.Mappings = append(out.Mappings, m)
	}
	return out
}

// Season is one source season within an Item.
type Season struct {
	Identifiers Identifiers         `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Names       Names               `json:"names,omitempty" yaml:"names,omitempty"`
	Parameters  *Parameters         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Episodes    map[string]*Episode `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Mappings    []SeasonMapping     `json:"mappings,omitempty" yaml:"mappings,omitempty"`
}

// Episode returns the episode with number, creating it if needed.
func (s *Season) Episode(number string) *Episode {
	if s.Episodes == nil {
		s.Episodes = make(map[string]*Episode)
	}
	ep, ok := s.Episodes[number]
	if !ok {
		ep = &Episode{}
		s.Episodes[number] = ep
	}
	return ep
}

// AddMapping appends m, folding identity into an existing mapping with the same window.
func (s *Season) AddMapping(m SeasonMapping) {
	for i := range s.Mappings {
		if s.Mappings[i].sameWindow(m) {
			s.Mappings[i].Identifiers = mergeIdentifiers(s.Mappings[i].Identifiers, m.Identifiers)
			s.Mappings[i].Names = s.Mappings[i].Names.Add(m.Names...)
			return
		}
	}
	s.Mappings = append(s.Mappings, m)
}

// EpisodeNumbers returns the episode keys in numeric order.
func (s *Season) EpisodeNumbers() []string {
	keys := slices.Collect(maps.Keys(s.Episodes))
	slices.SortFunc(keys, compareNumeric)
	return keys
}

func (s *Season) clone() *Season {
	out := &Season{
		Identifiers: s.Identifiers.Clone(),
		Names:       s.Names.Clone(),
	}
	if s.Parameters != nil {
		p := *s.Parameters
		out.Parameters = &p
	}
	if s.Episodes != nil {
		out.Episodes = make(map[string]*Episode, len(s.Episodes))
		for k, ep := range s.Episodes {
			out.Episodes[k] = ep.clone()
		}
	}
	for _, m := range s.Mappings {
		m.Identifiers = m.Identifiers.Clone()
		m.Names = slices.Clone(m.Names)
		out.Mappings = append(out.Mappings, m)
	}
	return out
}

// Item is one title's cross-reference record for a collection.
type Item struct {
	Collection   Collection         `json:"-" yaml:"-"`
	Media        Media              `json:"media" yaml:"media"`
	Identifiers  Identifiers        `json:"identifiers" yaml:"identifiers"`
	Names        Names              `json:"names,omitempty" yaml:"names,omitempty"`
	Parameters   Parameters         `json:"parameters,omitzero" yaml:"parameters,omitempty"`
	Seasons      map[string]*Season `json:"seasons,omitempty" yaml:"seasons,omitempty"`
	Supplemental map[string]string  `json:"supplemental,omitempty" yaml:"supplemental,omitempty"`

	// merged is set once other items have been folded in; identity then
	// lives on seasons and episodes rather than the item itself.
	merged bool
}

// NewItem constructs an empty item for collection.
func NewItem(collection Collection, media Media) *Item {
	return &Item{
		Collection:  collection,
		Media:       media,
		Identifiers: Identifiers{},
		Names:       Names{},
		Seasons:     map[string]*Season{},
	}
}

// Season returns the season with key, creating it if needed.
func (it *Item) Season(key string) *Season {
	if it.Seasons == nil {
		it.Seasons = make(map[string]*Season)
	}
	s, ok := it.Seasons[key]
	if !ok {
		s = &Season{}
		it.Seasons[key] = s
	}
	return s
}

// SeasonKeys returns season keys in numeric order with non-numeric keys last.
func (it *Item) SeasonKeys() []string {
	keys := slices.Collect(maps.Keys(it.Seasons))
	slices.SortFunc(keys, compareNumeric)
	return keys
}

// Merged reports whether other items have been folded into it.
func (it *Item) Merged() bool {
	return it.merged
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	out := &Item{
		Collection:   it.Collection,
		Media:        it.Media,
		Identifiers:  it.Identifiers.Clone(),
		Names:        it.Names.Clone(),
		Parameters:   it.Parameters,
		Supplemental: maps.Clone(it.Supplemental),
		merged:       it.merged,
	}
	if it.Seasons != nil {
		out.Seasons = make(map[string]*Season, len(it.Seasons))
		for k, s := range it.Seasons {
			out.Seasons[k] = s.clone()
		}
	}
	return out
}

func compareNumeric(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai - bi
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	}
}

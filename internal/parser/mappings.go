package parser

import (
	"fmt"
	"strconv"

	"animap/internal/animelist"
	"animap/internal/mapping"
	"animap/internal/numbering"
	"animap/internal/services"
)

type verdict int

const (
	verdictUndecided verdict = iota
	verdictValid
	verdictInvalid
)

// parseMappings adds the record's season and episode mappings to item.
//
// Episode-group nodes are checked in document order: a node producing rows
// makes the record valid, while a node producing none for the default season
// makes it invalid unless a verdict was already reached.
func parseMappings(item *mapping.Item, node *animelist.Node) error {
	collection := item.Collection
	state := verdictUndecided

	for _, m := range node.Mappings {
		sourceSeason, ok := seasonKey(m, collection.Source)
		if !ok {
			continue
		}
		targetSeason, _ := seasonKey(m, collection.Target)

		if m.IsEpisodeGroup() {
			rows := numbering.Translate(collection, m.Text)
			if len(rows) == 0 {
				if state == verdictUndecided && item.Parameters.DefaultSeason == sourceSeason {
					state = verdictInvalid
				}
				continue
			}
			season := item.Season(sourceSeason)
			for _, row := range rows {
				season.Episode(row.Source).AddMapping(mapping.EpisodeMapping{
					Season:   targetSeason,
					Number:   row.Target,
					Timeline: row.Timeline(),
				})
			}
			state = verdictValid
			continue
		}

		sm, err := seasonMapping(collection, m, targetSeason)
		if err != nil {
			return err
		}
		item.Season(sourceSeason).AddMapping(sm)
	}

	if state == verdictInvalid {
		return services.Wrap(services.ErrInvalidRecord, "parser", "parse mappings",
			fmt.Sprintf("episode mapping for default season %q produced no episodes", item.Parameters.DefaultSeason), nil)
	}
	return nil
}

// seasonMapping builds a linear season mapping from start/end/offset
// attributes, which are written relative to AniDB numbering. For collections
// whose source is not AniDB the window is shifted by the offset and the sign
// inverted.
func seasonMapping(collection mapping.Collection, m animelist.Mapping, targetSeason string) (mapping.SeasonMapping, error) {
	start, err := intAttr(m, "start", false)
	if err != nil {
		return mapping.SeasonMapping{}, err
	}
	end, err := intAttr(m, "end", false)
	if err != nil {
		return mapping.SeasonMapping{}, err
	}
	offset, err := intAttr(m, "offset", true)
	if err != nil {
		return mapping.SeasonMapping{}, err
	}
	if !collection.SourceIsAniDB() {
		start += offset
		end += offset
		offset = -offset
	}
	return mapping.SeasonMapping{Season: targetSeason, Start: start, End: end, Offset: offset}, nil
}

func intAttr(m animelist.Mapping, name string, optional bool) (int, error) {
	raw, ok := m.Attr(name)
	if !ok || raw == "" {
		if optional {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrInvalidRecord, "parser", "parse season mapping",
			fmt.Sprintf("missing %s attribute", name), nil)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, services.Wrap(services.ErrInvalidRecord, "parser", "parse season mapping",
			fmt.Sprintf("%s=%q", name, raw), err)
	}
	return v, nil
}

// seasonKey returns the season a mapping node assigns to provider. Movie- and
// show-database sides fall back to the TV-database season attribute, which
// older lists use for every provider.
func seasonKey(m animelist.Mapping, provider string) (string, bool) {
	if v, ok := m.Attr(mapping.SeasonAttribute(provider)); ok && v != "" {
		return v, true
	}
	if provider == mapping.TMDbMovie || provider == mapping.TMDbShow {
		if v, ok := m.Attr(mapping.SeasonAttribute(mapping.TVDb)); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

package mapping

import (
	"fmt"
	"strconv"

	"animap/internal/services"
)

// Fold returns the combination of current and incoming, two items resolving
// to the same index key under service (the collection's source provider).
// Neither argument is modified.
//
// The first fold converts current into merged form: its top-level identity
// (identifiers other than service, plus names) is pushed down onto the
// seasons, episodes and season mappings it contributed, and the top level is
// reduced to {service: key}. The incoming item's identity is pushed down the
// same way before its seasons are unioned in. Identities that disagree
// escalate to sorted multi-valued identifiers.
func Fold(current, incoming *Item, service string) (*Item, error) {
	if current == nil || incoming == nil {
		return nil, services.Wrap(services.ErrMergeConflict, "mapping", "fold", "nil item", nil)
	}
	if current.Media != incoming.Media {
		return nil, services.Wrap(services.ErrMergeConflict, "mapping", "fold",
			fmt.Sprintf("media differs (%s != %s)", current.Media, incoming.Media), nil)
	}
	if current.Collection != incoming.Collection {
		return nil, services.Wrap(services.ErrMergeConflict, "mapping", "fold",
			fmt.Sprintf("collection differs (%s != %s)", current.Collection, incoming.Collection), nil)
	}
	key, ok := current.Identifiers[service].Scalar()
	if !ok {
		return nil, services.Wrap(services.ErrMergeConflict, "mapping", "fold",
			fmt.Sprintf("current item has no single %s identifier", service), nil)
	}
	if other, _ := incoming.Identifiers[service].Scalar(); other != key {
		return nil, services.Wrap(services.ErrMergeConflict, "mapping", "fold",
			fmt.Sprintf("%s identifier %q does not match key %q", service, other, key), nil)
	}

	out := current.Clone()
	if !out.merged {
		out.pushDown(service)
		out.Identifiers = Identifiers{service: IDs{key}}
		out.Names = Names{}
		out.Parameters = Parameters{}
		out.merged = true
	}

	other := incoming.Clone()
	if !other.merged {
		other.pushDown(service)
	}

	for seasonKey, season := range other.Seasons {
		existing, ok := out.Seasons[seasonKey]
		if !ok {
			if out.Seasons == nil {
				out.Seasons = make(map[string]*Season)
			}
			out.Seasons[seasonKey] = season
			continue
		}
		mergeSeason(existing, season)
	}
	if len(other.Supplemental) > 0 {
		if out.Supplemental == nil {
			out.Supplemental = make(map[string]string, len(other.Supplemental))
		}
		for k, v := range other.Supplemental {
			if _, ok := out.Supplemental[k]; !ok {
				out.Supplemental[k] = v
			}
		}
	}
	return out, nil
}

// pushDown moves the item's identity onto the parts of the tree it owns. The
// default season is claimed as a whole when there is no episode offset,
// otherwise episode offset+1 of the default season is claimed. Episodes
// outside a claimed season and season mappings without identity inherit it
// too.
func (it *Item) pushDown(service string) {
	ids := it.Identifiers.Without(service)
	names := it.Names.Clone()
	if len(ids) == 0 && len(names) == 0 {
		return
	}

	claimed := ""
	if def := it.Parameters.DefaultSeason; def != "" {
		season := it.Season(def)
		if it.Parameters.EpisodeOffset == 0 {
			season.Identifiers = mergeIdentifiers(season.Identifiers, ids)
			season.Names = mergeNames(season.Names, names)
			claimed = def
		} else {
			ep := season.Episode(strconv.Itoa(it.Parameters.EpisodeOffset + 1))
			ep.Identifiers = mergeIdentifiers(ep.Identifiers, ids)
			ep.Names = mergeNames(ep.Names, names)
		}
	}

	flat := names.Flatten()
	for key, season := range it.Seasons {
		if key != claimed {
			for _, ep := range season.Episodes {
				if len(ep.Identifiers) > 0 {
					continue
				}
				ep.Identifiers = ids.Clone()
				ep.Names = names.Clone()
			}
		}
		for i := range season.Mappings {
			m := &season.Mappings[i]
			if len(m.Identifiers) > 0 {
				continue
			}
			m.Identifiers = ids.Clone()
			m.Names = m.Names.Add(flat...)
		}
	}
}

func mergeSeason(dst, src *Season) {
	dst.Identifiers = mergeIdentifiers(dst.Identifiers, src.Identifiers)
	dst.Names = mergeNames(dst.Names, src.Names)
	if dst.Parameters == nil && src.Parameters != nil {
		p := *src.Parameters
		dst.Parameters = &p
	}
	for number, ep := range src.Episodes {
		existing, ok := dst.Episodes[number]
		if !ok {
			if dst.Episodes == nil {
				dst.Episodes = make(map[string]*Episode)
			}
			dst.Episodes[number] = ep
			continue
		}
		existing.Identifiers = mergeIdentifiers(existing.Identifiers, ep.Identifiers)
		existing.Names = mergeNames(existing.Names, ep.Names)
		for _, m := range ep.Mappings {
			existing.AddMapping(m)
		}
	}
	for _, m := range src.Mappings {
		dst.AddMapping(m)
	}
}

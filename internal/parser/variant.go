package parser

import (
	"fmt"

	"animap/internal/animelist"
	"animap/internal/mapping"
	"animap/internal/services"
)

// Record attributes.
const (
	attrAniDB         = "anidbid"
	attrIMDb          = "imdbid"
	attrTMDb          = "tmdbid"
	attrTMDbMovie     = "tmdbmid"
	attrTMDbShow      = "tmdbsid"
	attrTVDb          = "tvdbid"
	attrDefaultSeason = "defaulttvdbseason"
	attrEpisodeOffset = "episodeoffset"
)

type variantKind int

const (
	filmRegistry variantKind = iota
	movieDB
	showDB
	tvDB
)

func (k variantKind) String() string {
	switch k {
	case filmRegistry:
		return "film-registry"
	case movieDB:
		return "movie-db"
	case showDB:
		return "show-db"
	case tvDB:
		return "tv-db"
	default:
		return fmt.Sprintf("variant(%d)", int(k))
	}
}

// variant describes how one provider's records are parsed.
type variant struct {
	kind      variantKind
	provider  string
	attribute string
	media     mapping.Media
	// expand emits one item per listed identifier.
	expand bool
	// verify confirms both ids exist through the metadata sources.
	verify bool
}

var variants = map[variantKind]variant{
	filmRegistry: {kind: filmRegistry, provider: mapping.IMDb, attribute: attrIMDb, media: mapping.MediaMovie, expand: true},
	movieDB:      {kind: movieDB, provider: mapping.TMDbMovie, attribute: attrTMDbMovie, media: mapping.MediaMovie, expand: true, verify: true},
	showDB:       {kind: showDB, provider: mapping.TMDbShow, attribute: attrTMDbShow, media: mapping.MediaShow, expand: true, verify: true},
	tvDB:         {kind: tvDB, provider: mapping.TVDb, attribute: attrTVDb, media: mapping.MediaShow},
}

// selectVariant picks the parser for node under collection. It returns
// ok=false when no variant applies.
func selectVariant(collection mapping.Collection, node *animelist.Node) (variant, bool, error) {
	switch {
	case collection.Involves(mapping.IMDb) && node.Has(attrIMDb):
		return variants[filmRegistry], true, nil
	case involvesTMDb(collection) && (node.Has(attrTMDb) || node.Has(attrTMDbMovie) || node.Has(attrTMDbShow)):
		switch {
		case node.Has(attrTMDbMovie):
			return variants[movieDB], true, nil
		case node.Has(attrTMDbShow):
			return variants[showDB], true, nil
		default:
			return variant{}, false, services.Wrap(services.ErrInvalidIdentifier, "parser", "select variant",
				"record only carries legacy tmdbid; tmdbmid or tmdbsid required", nil)
		}
	case collection.Involves(mapping.TVDb) && node.Has(attrTVDb):
		return variants[tvDB], true, nil
	}
	return variant{}, false, nil
}

func involvesTMDb(collection mapping.Collection) bool {
	return collection.Involves(mapping.TMDbMovie) || collection.Involves(mapping.TMDbShow)
}

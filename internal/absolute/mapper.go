package absolute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"animap/internal/logging"
	"animap/internal/mapping"
	"animap/internal/metadata"
	"animap/internal/services"
)

// Mapper performs absolute-to-season conversion.
type Mapper struct {
	anime  metadata.AnimeSource
	shows  map[string]metadata.ShowSource
	logger *slog.Logger
}

// New builds a Mapper. shows maps the non-AniDB provider key (tvdb,
// tmdb:show) to its metadata source.
func New(anime metadata.AnimeSource, shows map[string]metadata.ShowSource, logger *slog.Logger) *Mapper {
	return &Mapper{
		anime:  anime,
		shows:  shows,
		logger: logging.NewComponentLogger(logger, "absolute"),
	}
}

// Process converts item in place when it is a show whose default season is
// the absolute marker; every other item is left untouched. Errors are scoped
// to the item and leave it unchanged.
func (m *Mapper) Process(ctx context.Context, item *mapping.Item) error {
	if item == nil || item.Media != mapping.MediaShow || item.Parameters.DefaultSeason != mapping.SeasonAbsolute {
		return nil
	}
	other := item.Collection.Other()
	shows, ok := m.shows[other]
	if !ok || shows == nil || m.anime == nil {
		return services.Wrap(services.ErrMetadataFetch, "absolute", "process",
			fmt.Sprintf("no metadata source for %s", other), nil)
	}

	anidbID := item.Identifiers.Get(mapping.AniDB)
	otherID := item.Identifiers.Get(other)
	if anidbID == "" || otherID == "" {
		return services.Wrap(services.ErrMetadataFetch, "absolute", "process",
			fmt.Sprintf("item needs single %s and %s identifiers", mapping.AniDB, other), nil)
	}

	anime, err := m.anime.FetchAnime(ctx, anidbID)
	if failure := fetchErr(mapping.AniDB, anidbID, anime != nil, err); failure != nil {
		return failure
	}
	show, err := shows.FetchShow(ctx, otherID)
	if failure := fetchErr(other, otherID, show != nil, err); failure != nil {
		return failure
	}

	if item.Collection.SourceIsAniDB() {
		mapToAniDB(item, anime, show)
	} else {
		mapToOther(item, anime, show)
	}
	m.logger.Debug("converted absolute numbering",
		logging.String(mapping.AniDB, anidbID),
		logging.String(other, otherID),
		logging.String("default_season", item.Parameters.DefaultSeason))
	return nil
}

// seasonStart is where one season of the other side begins in AniDB
// absolute numbering.
type seasonStart struct {
	key      string
	absolute int
	episodes int
}

// seasonStarts walks the other side's regular seasons in order and returns
// those whose first episode lands on an existing AniDB episode once the
// item's episode offset is removed.
func seasonStarts(item *mapping.Item, anime *metadata.Anime, show *metadata.Show) []seasonStart {
	offset := item.Parameters.EpisodeOffset
	var out []seasonStart
	for _, number := range show.SeasonNumbers() {
		if number < 1 {
			continue
		}
		season := show.Seasons[number]
		first, ok := season.Episodes[1]
		if !ok || first.AbsoluteNumber == 0 {
			continue
		}
		absolute := first.AbsoluteNumber - offset
		if absolute < 1 || !anime.HasRegularEpisode(absolute) {
			continue
		}
		count := 0
		for n := range season.Episodes {
			if n != 0 {
				count++
			}
		}
		out = append(out, seasonStart{key: strconv.Itoa(number), absolute: absolute, episodes: count})
	}
	return out
}

// mapToAniDB expresses each season of the other side as a window over AniDB
// season "1".
func mapToAniDB(item *mapping.Item, anime *metadata.Anime, show *metadata.Show) {
	starts := seasonStarts(item, anime, show)
	season := item.Season("1")
	for _, s := range starts {
		season.AddMapping(mapping.SeasonMapping{
			Season: s.key,
			Start:  s.absolute,
			End:    s.absolute + s.episodes - 1,
			Offset: 1 - s.absolute,
		})
	}
	item.Parameters.EpisodeOffset = 0
	item.Parameters.DefaultSeason = "1"
}

// mapToOther creates each qualifying season of the other side with an
// episode offset into AniDB season 1; the first becomes the default season.
func mapToOther(item *mapping.Item, anime *metadata.Anime, show *metadata.Show) {
	starts := seasonStarts(item, anime, show)
	first := ""
	for _, s := range starts {
		if first == "" {
			first = s.key
		}
		item.Season(s.key).Parameters = &mapping.Parameters{
			DefaultSeason: "1",
			EpisodeOffset: s.absolute - 1,
		}
	}
	item.Parameters.EpisodeOffset = 0
	item.Parameters.DefaultSeason = first
}

func fetchErr(provider, id string, found bool, err error) error {
	if err != nil {
		if errors.Is(err, services.ErrMetadataFetch) {
			return err
		}
		return services.Wrap(services.ErrMetadataFetch, "absolute", "fetch",
			fmt.Sprintf("%s %s", provider, id), err)
	}
	if !found {
		return services.Wrap(services.ErrMetadataFetch, "absolute", "fetch",
			fmt.Sprintf("%s %s not found", provider, id), nil)
	}
	return nil
}

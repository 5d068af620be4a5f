package metadata

import (
	"context"
	"maps"
	"slices"
	"strconv"
)

// AniDB episode types as reported in <epno type="...">.
const (
	EpisodeTypeRegular = 1
	EpisodeTypeSpecial = 2
)

// Anime is the subset of AniDB anime metadata the mapper needs.
type Anime struct {
	ID           string
	Title        string
	Type         string
	EpisodeCount int
	Episodes     []AnimeEpisode
}

// AnimeEpisode is one AniDB episode.
type AnimeEpisode struct {
	Number string
	Type   int
}

// HasRegularEpisode reports whether regular episode number n exists.
func (a *Anime) HasRegularEpisode(n int) bool {
	if a == nil {
		return false
	}
	want := strconv.Itoa(n)
	for _, ep := range a.Episodes {
		if ep.Type == EpisodeTypeRegular && ep.Number == want {
			return true
		}
	}
	return false
}

// Show is season/episode metadata for a TV series on the non-AniDB side.
type Show struct {
	ID      string
	Name    string
	Seasons map[int]*ShowSeason
}

// ShowSeason groups the episodes of one season by episode number.
type ShowSeason struct {
	Number   int
	Episodes map[int]ShowEpisode
}

// ShowEpisode is one episode; AbsoluteNumber is 0 when unknown.
type ShowEpisode struct {
	Season         int
	Number         int
	AbsoluteNumber int
	Name           string
}

// SeasonNumbers returns the season numbers in ascending order.
func (s *Show) SeasonNumbers() []int {
	if s == nil {
		return nil
	}
	numbers := slices.Collect(maps.Keys(s.Seasons))
	slices.Sort(numbers)
	return numbers
}

// AddEpisode records ep, creating its season on first use.
func (s *Show) AddEpisode(ep ShowEpisode) {
	if s.Seasons == nil {
		s.Seasons = make(map[int]*ShowSeason)
	}
	season, ok := s.Seasons[ep.Season]
	if !ok {
		season = &ShowSeason{Number: ep.Season, Episodes: make(map[int]ShowEpisode)}
		s.Seasons[ep.Season] = season
	}
	season.Episodes[ep.Number] = ep
}

// Movie is the subset of movie metadata used to verify an identifier.
type Movie struct {
	ID    string
	Title string
}

// AnimeSource fetches AniDB anime by id.
type AnimeSource interface {
	FetchAnime(ctx context.Context, id string) (*Anime, error)
}

// ShowSource fetches series metadata by provider id.
type ShowSource interface {
	FetchShow(ctx context.Context, id string) (*Show, error)
}

// MovieSource fetches movie metadata by provider id.
type MovieSource interface {
	FetchMovie(ctx context.Context, id string) (*Movie, error)
}

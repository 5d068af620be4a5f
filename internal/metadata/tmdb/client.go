package tmdb

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"animap/internal/metadata"
)

// Result is the subset of TMDB movie and TV detail payloads used here.
type Result struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Name         string         `json:"name"`
	ReleaseDate  string         `json:"release_date"`
	FirstAirDate string         `json:"first_air_date"`
	MediaType    string         `json:"media_type"`
	Seasons      []SeasonResult `json:"seasons"`
}

// SeasonResult is one entry of a TV detail payload's season list.
type SeasonResult struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var (
	_ metadata.MovieSource = (*Client)(nil)
	_ metadata.ShowSource  = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetMovieDetails fetches movie details by TMDB ID. A nil result means TMDB
// does not know the id.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Result
	found, err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), "movie details", &payload)
	if err != nil || !found {
		return nil, err
	}
	payload.MediaType = "movie"
	return &payload, nil
}

// GetTVDetails fetches TV show details, including the season list.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Result, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload Result
	found, err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), "tv details", &payload)
	if err != nil || !found {
		return nil, err
	}
	payload.MediaType = "tv"
	return &payload, nil
}

// GetSeasonDetails fetches the full season metadata for a TV show, including episodes.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	if seasonNumber < 0 {
		return nil, errors.New("season number must not be negative")
	}
	var payload SeasonDetails
	found, err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber), "season fetch", &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// FetchMovie implements metadata.MovieSource.
func (c *Client) FetchMovie(ctx context.Context, id string) (*metadata.Movie, error) {
	movieID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("tmdb movie id %q: %w", id, err)
	}
	result, err := c.GetMovieDetails(ctx, movieID)
	if err != nil || result == nil {
		return nil, err
	}
	return &metadata.Movie{ID: strconv.FormatInt(result.ID, 10), Title: result.Title}, nil
}

// FetchShow implements metadata.ShowSource. Seasons above zero are fetched in
// order and their regular episodes numbered continuously to stand in for the
// absolute numbers TMDB does not publish.
func (c *Client) FetchShow(ctx context.Context, id string) (*metadata.Show, error) {
	showID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("tmdb show id %q: %w", id, err)
	}
	details, err := c.GetTVDetails(ctx, showID)
	if err != nil || details == nil {
		return nil, err
	}
	show := &metadata.Show{ID: strconv.FormatInt(details.ID, 10), Name: details.Name}

	numbers := make([]int, 0, len(details.Seasons))
	for _, s := range details.Seasons {
		if s.SeasonNumber >= 1 {
			numbers = append(numbers, s.SeasonNumber)
		}
	}
	absolute := 0
	for _, number := range sortedUnique(numbers) {
		season, err := c.GetSeasonDetails(ctx, showID, number)
		if err != nil {
			return nil, err
		}
		if season == nil {
			continue
		}
		episodes := season.Episodes
		sortEpisodes(episodes)
		for _, ep := range episodes {
			if ep.EpisodeNumber < 1 {
				continue
			}
			absolute++
			show.AddEpisode(metadata.ShowEpisode{
				Season:         number,
				Number:         ep.EpisodeNumber,
				AbsoluteNumber: absolute,
				Name:           ep.Name,
			})
		}
	}
	return show, nil
}

func (c *Client) get(ctx context.Context, path, label string, out any) (bool, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("tmdb %s returned %d (latency=%v)", label, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode tmdb %s: %w", label, err)
	}
	return true, nil
}

func sortedUnique(numbers []int) []int {
	slices.Sort(numbers)
	return slices.Compact(numbers)
}

func sortEpisodes(episodes []Episode) {
	slices.SortStableFunc(episodes, func(a, b Episode) int {
		return cmp.Compare(a.EpisodeNumber, b.EpisodeNumber)
	})
}

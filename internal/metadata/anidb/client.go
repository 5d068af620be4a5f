package anidb

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"animap/internal/metadata"
	"animap/internal/services"
)

// DefaultMinInterval is AniDB's documented request floor.
const DefaultMinInterval = 2 * time.Second

const protocolVersion = "1"

// Client talks to the AniDB HTTP API.
type Client struct {
	name        string
	version     int
	baseURL     string
	minInterval time.Duration
	httpClient  *http.Client
	now         func() time.Time

	mu     sync.Mutex
	last   time.Time
	banned error
}

var _ metadata.AnimeSource = (*Client)(nil)

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

// WithMinInterval overrides the spacing enforced between requests.
func WithMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval >= 0 {
			c.minInterval = interval
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

// New creates an AniDB client for a registered HTTP API client name.
func New(name string, version int, baseURL string, opts ...Option) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("anidb client name required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("anidb base url required")
	}
	if version <= 0 {
		version = 1
	}
	client := &Client{
		name:        name,
		version:     version,
		baseURL:     baseURL,
		minInterval: DefaultMinInterval,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type animeDocument struct {
	XMLName      xml.Name         `xml:"anime"`
	ID           string           `xml:"id,attr"`
	Type         string           `xml:"type"`
	EpisodeCount int              `xml:"episodecount"`
	Titles       []titleElement   `xml:"titles>title"`
	Episodes     []episodeElement `xml:"episodes>episode"`
}

type titleElement struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type episodeElement struct {
	ID   string `xml:"id,attr"`
	EpNo epno   `xml:"epno"`
}

type epno struct {
	Type  int    `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type errorDocument struct {
	XMLName xml.Name `xml:"error"`
	Code    string   `xml:"code,attr"`
	Message string   `xml:",chardata"`
}

// FetchAnime implements metadata.AnimeSource.
func (c *Client) FetchAnime(ctx context.Context, id string) (*metadata.Anime, error) {
	id = strings.TrimSpace(id)
	if _, err := strconv.Atoi(id); err != nil {
		return nil, fmt.Errorf("anidb id %q: %w", id, err)
	}
	if err := c.bannedErr(); err != nil {
		return nil, err
	}
	body, err := c.request(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.decode(id, body)
}

func (c *Client) request(ctx context.Context, id string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse anidb url: %w", err)
	}
	endpoint.RawQuery = url.Values{
		"request":   {"anime"},
		"client":    {c.name},
		"clientver": {strconv.Itoa(c.version)},
		"protover":  {protocolVersion},
		"aid":       {id},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anidb anime returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read anidb response: %w", err)
	}
	return body, nil
}

func (c *Client) decode(id string, body []byte) (*metadata.Anime, error) {
	var probe struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode anidb response: %w", err)
	}
	if probe.XMLName.Local == "error" {
		var failure errorDocument
		if err := xml.Unmarshal(body, &failure); err != nil {
			return nil, fmt.Errorf("decode anidb error: %w", err)
		}
		message := strings.TrimSpace(failure.Message)
		if strings.Contains(strings.ToLower(message), "not found") {
			return nil, nil
		}
		err := services.Wrap(services.ErrMetadataFetch, "anidb", "fetch anime",
			fmt.Sprintf("anidb refused request for %s: %s", id, message), nil)
		c.mu.Lock()
		c.banned = err
		c.mu.Unlock()
		return nil, err
	}

	var doc animeDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode anidb anime: %w", err)
	}
	anime := &metadata.Anime{
		ID:           doc.ID,
		Type:         strings.TrimSpace(doc.Type),
		EpisodeCount: doc.EpisodeCount,
	}
	if anime.ID == "" {
		anime.ID = id
	}
	for _, title := range doc.Titles {
		if title.Type == "main" {
			anime.Title = strings.TrimSpace(title.Value)
			break
		}
	}
	for _, ep := range doc.Episodes {
		anime.Episodes = append(anime.Episodes, metadata.AnimeEpisode{
			Number: strings.TrimSpace(ep.EpNo.Value),
			Type:   ep.EpNo.Type,
		})
	}
	return anime, nil
}

func (c *Client) bannedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banned
}

// wait blocks until minInterval has passed since the previous request.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.last.IsZero() {
		if remaining := c.minInterval - c.now().Sub(c.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.last = c.now()
	return nil
}

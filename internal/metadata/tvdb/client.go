package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
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
)

// maxPages stops runaway pagination on a misbehaving server.
const maxPages = 100

// Client provides access to TheTVDB v4 API.
type Client struct {
	apiKey     string
	pin        string
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

var _ metadata.ShowSource = (*Client)(nil)

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

// New creates a TVDB client. The pin is only required for user-supported keys.
func New(apiKey, pin, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tvdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tvdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		pin:        strings.TrimSpace(pin),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type loginResponse struct {
	Status string `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}

type episodesResponse struct {
	Status string `json:"status"`
	Data   struct {
		Series struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"series"`
		Episodes []episodeRecord `json:"episodes"`
	} `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

type episodeRecord struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	SeasonNumber   int    `json:"seasonNumber"`
	Number         int    `json:"number"`
	AbsoluteNumber int    `json:"absoluteNumber"`
}

// Login exchanges the API key for a bearer token.
func (c *Client) Login(ctx context.Context) error {
	payload := map[string]string{"apikey": c.apiKey}
	if c.pin != "" {
		payload["pin"] = c.pin
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute login (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tvdb login returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet)))
	}
	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode tvdb login: %w", err)
	}
	if decoded.Data.Token == "" {
		return errors.New("tvdb login returned no token")
	}
	c.mu.Lock()
	c.token = decoded.Data.Token
	c.mu.Unlock()
	return nil
}

// FetchShow implements metadata.ShowSource using the default episode order.
func (c *Client) FetchShow(ctx context.Context, id string) (*metadata.Show, error) {
	seriesID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("tvdb series id %q: %w", id, err)
	}
	if seriesID <= 0 {
		return nil, errors.New("series id must be positive")
	}

	var show *metadata.Show
	for page := 0; page < maxPages; page++ {
		resp, found, err := c.episodesPage(ctx, seriesID, page)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		if show == nil {
			show = &metadata.Show{ID: strconv.FormatInt(seriesID, 10), Name: resp.Data.Series.Name}
		}
		for _, ep := range resp.Data.Episodes {
			show.AddEpisode(metadata.ShowEpisode{
				Season:         ep.SeasonNumber,
				Number:         ep.Number,
				AbsoluteNumber: ep.AbsoluteNumber,
				Name:           ep.Name,
			})
		}
		if resp.Links.Next == nil || *resp.Links.Next == "" || len(resp.Data.Episodes) == 0 {
			break
		}
	}
	return show, nil
}

func (c *Client) episodesPage(ctx context.Context, seriesID int64, page int) (*episodesResponse, bool, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/series/%d/episodes/default", c.baseURL, seriesID))
	if err != nil {
		return nil, false, fmt.Errorf("parse tvdb url: %w", err)
	}
	endpoint.RawQuery = url.Values{"page": {strconv.Itoa(page)}}.Encode()

	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.currentToken(ctx)
		if err != nil {
			return nil, false, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, false, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return nil, false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		switch resp.StatusCode {
		case http.StatusOK:
			var decoded episodesResponse
			err := json.NewDecoder(resp.Body).Decode(&decoded)
			resp.Body.Close()
			if err != nil {
				return nil, false, fmt.Errorf("decode tvdb episodes: %w", err)
			}
			return &decoded, true, nil
		case http.StatusNotFound:
			resp.Body.Close()
			return nil, false, nil
		case http.StatusUnauthorized:
			resp.Body.Close()
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			continue
		default:
			resp.Body.Close()
			return nil, false, fmt.Errorf("tvdb episodes returned %d (latency=%v)", resp.StatusCode, latency)
		}
	}
	return nil, false, errors.New("tvdb rejected refreshed token")
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

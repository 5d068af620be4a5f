package anidb_test

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"animap/internal/metadata/anidb"
	"animap/internal/services"
)

const animeXML = `<?xml version="1.0" encoding="UTF-8"?>
<anime id="1530" restricted="false">
  <type>TV Series</type>
  <episodecount>291</episodecount>
  <titles>
    <title xml:lang="ja" type="official">ドラゴンボールZ</title>
    <title xml:lang="x-jat" type="main">Dragon Ball Z</title>
  </titles>
  <episodes>
    <episode id="1"><epno type="1">1</epno></episode>
    <episode id="2"><epno type="1">2</epno></episode>
    <episode id="3"><epno type="2">S1</epno></episode>
  </episodes>
</anime>`

func TestNewRequiresClientName(t *testing.T) {
	if _, err := anidb.New(" ", 1, "http://example.com"); err == nil {
		t.Fatal("expected error when client name missing")
	}
}

func TestFetchAnimeDecodesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("request") != "anime" || q.Get("aid") != "1530" || q.Get("client") != "animap" || q.Get("protover") != "1" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(animeXML))
		_ = gz.Close()
	}))
	t.Cleanup(server.Close)

	client, err := anidb.New("animap", 1, server.URL, anidb.WithMinInterval(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	anime, err := client.FetchAnime(context.Background(), "1530")
	if err != nil {
		t.Fatalf("FetchAnime returned error: %v", err)
	}
	if anime.Title != "Dragon Ball Z" || anime.EpisodeCount != 291 || anime.Type != "TV Series" {
		t.Fatalf("unexpected anime %#v", anime)
	}
	if !anime.HasRegularEpisode(2) {
		t.Fatal("expected regular episode 2")
	}
	if anime.HasRegularEpisode(3) {
		t.Fatal("special S1 must not count as regular episode 3")
	}
}

func TestFetchAnimeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<error code="330">Anime not found</error>`))
	}))
	t.Cleanup(server.Close)

	client, err := anidb.New("animap", 1, server.URL, anidb.WithMinInterval(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	anime, err := client.FetchAnime(context.Background(), "99999")
	if err != nil || anime != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", anime, err)
	}
}

func TestFetchAnimeBanLatches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<error code="500">Banned</error>`))
	}))
	t.Cleanup(server.Close)

	client, err := anidb.New("animap", 1, server.URL, anidb.WithMinInterval(0))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := range 2 {
		_, err := client.FetchAnime(context.Background(), "1")
		if !errors.Is(err, services.ErrMetadataFetch) {
			t.Fatalf("call %d: expected ErrMetadataFetch, got %v", i, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected banned client to stop calling, got %d requests", calls.Load())
	}
}

func TestFetchAnimeSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(animeXML))
	}))
	t.Cleanup(server.Close)

	interval := 50 * time.Millisecond
	client, err := anidb.New("animap", 1, server.URL, anidb.WithMinInterval(interval))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	start := time.Now()
	for range 3 {
		if _, err := client.FetchAnime(context.Background(), "1530"); err != nil {
			t.Fatalf("FetchAnime returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("expected at least %v between three requests, took %v", 2*interval, elapsed)
	}
}

func TestFetchAnimeRejectsNonNumericID(t *testing.T) {
	client, err := anidb.New("animap", 1, "http://example.com")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.FetchAnime(context.Background(), "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

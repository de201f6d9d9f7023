package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestAPIFetcher_SearchMusic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/search") {
			t.Errorf("path = %s, want a search call", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "sad piano background music" || q.Get("type") != "video" || q.Get("maxResults") != "3" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id": map[string]interface{}{"kind": "youtube#video", "videoId": "aaaaaaaaaaa"},
					"snippet": map[string]interface{}{
						"title":        "Sad Piano Music",
						"channelTitle": "Calm Sounds",
						"thumbnails": map[string]interface{}{
							"medium": map[string]interface{}{"url": "https://i.ytimg.com/vi/aaaaaaaaaaa/mq.jpg"},
						},
					},
				},
				{
					"id":      map[string]interface{}{"kind": "youtube#channel", "channelId": "UC123"},
					"snippet": map[string]interface{}{"title": "A channel"},
				},
				{
					"id":      map[string]interface{}{"kind": "youtube#video", "videoId": "bbbbbbbbbbb"},
					"snippet": map[string]interface{}{"title": "Melancholy Strings"},
				},
			},
		})
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f, err := NewAPIFetcher(context.Background(), "key", logger,
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewAPIFetcher() error = %v", err)
	}

	tracks, err := f.SearchMusic(context.Background(), "  sad piano ", 3)
	if err != nil {
		t.Fatalf("SearchMusic() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2 (channels skipped)", len(tracks))
	}
	first := tracks[0]
	if first.URL != "https://www.youtube.com/watch?v=aaaaaaaaaaa" || first.Channel != "Calm Sounds" {
		t.Errorf("first = %+v", first)
	}
	if first.ThumbnailURL != "https://i.ytimg.com/vi/aaaaaaaaaaa/mq.jpg" {
		t.Errorf("ThumbnailURL = %q", first.ThumbnailURL)
	}
	if tracks[1].ThumbnailURL != ThumbnailURL("bbbbbbbbbbb", QualityMedium) {
		t.Errorf("fallback ThumbnailURL = %q", tracks[1].ThumbnailURL)
	}

	if _, err := f.SearchMusic(context.Background(), " ", 3); !errors.Is(err, ErrEmptyTheme) {
		t.Errorf("empty theme error = %v", err)
	}
}

func TestAPIFetcher_SearchMusicError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quotaExceeded"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f, err := NewAPIFetcher(context.Background(), "key", logger,
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.SearchMusic(context.Background(), "upbeat", 0); err == nil {
		t.Error("expected an error when the API rejects the search")
	}
}

func TestNoMusic(t *testing.T) {
	if _, err := (NoMusic{}).SearchMusic(context.Background(), "upbeat", 5); !errors.Is(err, ErrMusicUnavailable) {
		t.Errorf("error = %v, want ErrMusicUnavailable", err)
	}
}

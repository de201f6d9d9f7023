package youtube

import (
	"context"
	"errors"
	"strings"
)

const (
	DefaultMusicResults = 5
	maxMusicResults     = 25
)

var (
	ErrEmptyTheme = errors.New("music theme is required")
	// ErrMusicUnavailable is returned when no YouTube API key is configured.
	ErrMusicUnavailable = errors.New("music search requires a YouTube API key")
)

// MusicTrack is a background music suggestion for a short.
type MusicTrack struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Channel      string `json:"channel,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type MusicSearcher interface {
	SearchMusic(ctx context.Context, theme string, limit int) ([]MusicTrack, error)
}

// SearchMusic finds background music for a mood or theme such as "upbeat"
// or "sad piano".
func (f *APIFetcher) SearchMusic(ctx context.Context, theme string, limit int) ([]MusicTrack, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, ErrEmptyTheme
	}
	if limit <= 0 || limit > maxMusicResults {
		limit = DefaultMusicResults
	}

	resp, err := f.service.Search.
		List([]string{"snippet"}).
		Q(theme + " background music").
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		f.logger.Warn("youtube music search failed", "theme", theme, "error", err)
		return nil, err
	}

	tracks := make([]MusicTrack, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		t := MusicTrack{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			Channel:      item.Snippet.ChannelTitle,
			URL:          WatchURL(item.Id.VideoId),
			ThumbnailURL: ThumbnailURL(item.Id.VideoId, QualityMedium),
		}
		if th := item.Snippet.Thumbnails; th != nil && th.Medium != nil && th.Medium.Url != "" {
			t.ThumbnailURL = th.Medium.Url
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// NoMusic is the MusicSearcher used without an API key.
type NoMusic struct{}

func (NoMusic) SearchMusic(context.Context, string, int) ([]MusicTrack, error) {
	return nil, ErrMusicUnavailable
}

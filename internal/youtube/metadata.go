package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// DefaultTitle is shown for links whose metadata could not be looked up.
const DefaultTitle = "YouTube Video"

var ErrVideoNotFound = errors.New("youtube video not found")

type Metadata struct {
	VideoID      string
	Title        string
	Description  string
	ThumbnailURL string
	// DurationSeconds is zero when unknown.
	DurationSeconds float64
	PublishedAt     string
}

type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (Metadata, error)
}

// StaticFetcher derives everything from the video ID without network access.
type StaticFetcher struct{}

func (StaticFetcher) Fetch(_ context.Context, videoID string) (Metadata, error) {
	return fallbackMetadata(videoID), nil
}

func fallbackMetadata(videoID string) Metadata {
	return Metadata{
		VideoID:      videoID,
		Title:        DefaultTitle,
		ThumbnailURL: ThumbnailURL(videoID, QualityHigh),
	}
}

// APIFetcher looks titles and durations up through the YouTube Data API.
// Lookup failures degrade to the static metadata so a valid link is never
// rejected because the API is unavailable.
type APIFetcher struct {
	service *yt.Service
	logger  *slog.Logger
}

func NewAPIFetcher(ctx context.Context, apiKey string, logger *slog.Logger, opts ...option.ClientOption) (*APIFetcher, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &APIFetcher{service: svc, logger: logger}, nil
}

func (f *APIFetcher) Fetch(ctx context.Context, videoID string) (Metadata, error) {
	md, err := f.lookup(ctx, videoID)
	if err != nil {
		f.logger.Warn("youtube metadata lookup failed", "video_id", videoID, "error", err)
		return fallbackMetadata(videoID), nil
	}
	return md, nil
}

func (f *APIFetcher) lookup(ctx context.Context, videoID string) (Metadata, error) {
	resp, err := f.service.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return Metadata{}, err
	}

	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		md := fallbackMetadata(videoID)
		md.Title = item.Snippet.Title
		md.Description = item.Snippet.Description
		md.PublishedAt = item.Snippet.PublishedAt
		if th := item.Snippet.Thumbnails; th != nil && th.High != nil && th.High.Url != "" {
			md.ThumbnailURL = th.High.Url
		}
		if item.ContentDetails != nil {
			md.DurationSeconds = ParseISODuration(item.ContentDetails.Duration)
		}
		return md, nil
	}
	return Metadata{}, ErrVideoNotFound
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseISODuration converts the API's ISO-8601 durations (PT1H2M3S) into
// seconds. Unparseable input yields 0.
func ParseISODuration(s string) float64 {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var total float64
	for i, mult := range []float64{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0
		}
		total += v * mult
	}
	return total
}

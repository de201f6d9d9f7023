package shorts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
)

const (
	DefaultCount      = 5
	minShortLength    = 10.0
	maxShortLength    = 30.0
	sampleTranscript  = "This is a sample transcript for this short clip."
	placeholderThumbs = 3
)

// ErrNotOnBackend is returned for videos the backend never stored, such as
// YouTube links, which are processed without an upload.
var ErrNotOnBackend = errors.New("video is not stored on the backend")

// Generator picks clip windows for a processed video.
type Generator interface {
	Generate(ctx context.Context, video library.Video) ([]library.Short, error)
}

// SimulatedGenerator picks random windows. It stands in for real clip
// scoring when no backend is configured.
type SimulatedGenerator struct {
	Count int
}

func (g SimulatedGenerator) Generate(_ context.Context, video library.Video) ([]library.Short, error) {
	count := g.Count
	if count <= 0 {
		count = DefaultCount
	}
	total := video.Duration.Seconds()
	if !video.Duration.Known() {
		total = youtubeDefaultLength
	}

	out := make([]library.Short, 0, count)
	for i := 0; i < count; i++ {
		length := math.Round(minShortLength + rand.Float64()*(maxShortLength-minShortLength))
		start := 0.0
		if total > length {
			start = math.Floor(rand.Float64() * (total - length))
		} else {
			length = total
		}
		out = append(out, newShort(video, i, start, start+length))
	}
	return out, nil
}

// BackendGenerator asks the backend for clip windows.
type BackendGenerator struct {
	Shorts cloud.ShortService
	Token  func(ctx context.Context) (string, error)
	Count  int
}

func (g BackendGenerator) Generate(ctx context.Context, video library.Video) ([]library.Short, error) {
	if video.IsYoutubeVideo {
		return nil, ErrNotOnBackend
	}
	count := g.Count
	if count <= 0 {
		count = DefaultCount
	}
	token, err := g.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := g.Shorts.GenerateTimestamps(ctx, token, video.ID, count)
	if err != nil {
		return nil, fmt.Errorf("generate timestamps: %w", err)
	}

	out := make([]library.Short, 0, len(resp.Shorts))
	for i, ts := range resp.Shorts {
		if ts.End <= ts.Start {
			continue
		}
		s := newShort(video, i, ts.Start, ts.End)
		if ts.ID != "" {
			s.ID = ts.ID
		}
		out = append(out, s)
	}
	return out, nil
}

func newShort(video library.Video, i int, start, end float64) library.Short {
	s := library.Short{
		ID:             fmt.Sprintf("short_%d", i+1),
		VideoID:        video.ID,
		Title:          fmt.Sprintf("Engaging Moment %d", i+1),
		TrimStart:      start,
		TrimEnd:        end,
		VideoURL:       video.VideoURL,
		IsShort:        true,
		IsYoutubeVideo: video.IsYoutubeVideo,
		Transcript:     excerpt(video.Transcript, start, end),
	}
	if video.IsYoutubeVideo && video.ThumbnailURL != "" {
		s.ThumbnailURL = video.ThumbnailURL
	} else {
		s.ThumbnailURL = fmt.Sprintf("/placeholder-thumbnail-%d.jpg", i%placeholderThumbs+1)
	}
	s.SyncDisplay()
	return s
}

// excerpt joins the transcript segments overlapping [start, end).
func excerpt(segments []library.TranscriptSegment, start, end float64) string {
	if len(segments) == 0 {
		return sampleTranscript
	}
	var parts []string
	for _, seg := range segments {
		if seg.End > start && seg.Start < end {
			parts = append(parts, strings.TrimSpace(seg.Text))
		}
	}
	return strings.Join(parts, " ")
}

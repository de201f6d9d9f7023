package shorts

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/timecode"
)

func TestSimulatedGenerator(t *testing.T) {
	video := library.Video{ID: "v1", Duration: 300, VideoURL: "/media/x"}

	got, err := SimulatedGenerator{}.Generate(context.Background(), video)
	require.NoError(t, err)
	require.Len(t, got, DefaultCount)

	for i, s := range got {
		require.NoError(t, s.Validate())
		assert.GreaterOrEqual(t, s.Length(), minShortLength)
		assert.LessOrEqual(t, s.Length(), maxShortLength)
		assert.LessOrEqual(t, s.TrimEnd, 300.0)
		assert.Equal(t, "Engaging Moment "+string(rune('1'+i)), s.Title)
		assert.True(t, strings.HasPrefix(s.ThumbnailURL, "/placeholder-thumbnail-"))
		assert.Equal(t, sampleTranscript, s.Transcript)
		assert.Equal(t, timecode.Format(s.TrimStart), s.Timestamp)
		assert.Equal(t, "/media/x", s.VideoURL)
	}
}

func TestSimulatedGenerator_ShortVideo(t *testing.T) {
	got, err := SimulatedGenerator{Count: 2}.Generate(context.Background(), library.Video{ID: "v", Duration: 6})
	require.NoError(t, err)
	for _, s := range got {
		assert.Equal(t, 0.0, s.TrimStart)
		assert.Equal(t, 6.0, s.TrimEnd)
	}
}

func TestSimulatedGenerator_YoutubeUsesVideoThumbnail(t *testing.T) {
	video := library.Video{ID: "v", IsYoutubeVideo: true, ThumbnailURL: "https://i.ytimg.com/vi/x/hqdefault.jpg"}
	got, err := SimulatedGenerator{Count: 1}.Generate(context.Background(), video)
	require.NoError(t, err)
	assert.Equal(t, video.ThumbnailURL, got[0].ThumbnailURL)
	assert.True(t, got[0].IsYoutubeVideo)
	assert.LessOrEqual(t, got[0].TrimEnd, youtubeDefaultLength)
}

type fakeShortService struct {
	mu          sync.Mutex
	generated   int
	saved       []cloud.SaveShortRequest
	fail        map[string]bool
	inFlight    int
	maxInFlight int
}

func newFakeShortService() *fakeShortService {
	return &fakeShortService{fail: map[string]bool{}}
}

func (f *fakeShortService) GenerateTimestamps(_ context.Context, _ string, videoID string, count int) (*cloud.GenerateTimestampsResponse, error) {
	f.mu.Lock()
	f.generated++
	f.mu.Unlock()
	return &cloud.GenerateTimestampsResponse{
		VideoID: videoID,
		Shorts: []cloud.ShortTimestamp{
			{Start: 4.5, End: 20.25, ID: "short_1"},
			{Start: 30, End: 30, ID: "short_2"},
			{Start: 40, End: 55, ID: "short_3"},
		},
	}, nil
}

func (f *fakeShortService) Save(_ context.Context, _ string, req cloud.SaveShortRequest) (*cloud.ShortResponse, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.fail[req.Title] {
		return nil, &cloud.APIError{StatusCode: 500, Detail: "storage unavailable"}
	}
	f.saved = append(f.saved, req)
	return &cloud.ShortResponse{ID: "saved", VideoID: req.VideoID, Title: req.Title}, nil
}

func (f *fakeShortService) List(context.Context, string, string) ([]cloud.ShortResponse, error) {
	return nil, nil
}

func TestBackendGenerator(t *testing.T) {
	video := library.Video{
		ID: "v1",
		Transcript: []library.TranscriptSegment{
			{Start: 0, End: 5, Text: "intro"},
			{Start: 5, End: 19, Text: "the good part"},
			{Start: 42, End: 50, Text: "later"},
		},
	}
	gen := BackendGenerator{
		Shorts: newFakeShortService(),
		Token:  func(context.Context) (string, error) { return "tok", nil },
	}

	got, err := gen.Generate(context.Background(), video)
	require.NoError(t, err)
	require.Len(t, got, 2, "empty windows are dropped")
	assert.Equal(t, "short_1", got[0].ID)
	assert.Equal(t, 4.5, got[0].TrimStart)
	assert.Equal(t, "intro the good part", got[0].Transcript)
	assert.Equal(t, "later", got[1].Transcript)
}

func TestBackendGenerator_YoutubeVideoIsNotOnBackend(t *testing.T) {
	svc := newFakeShortService()
	gen := BackendGenerator{
		Shorts: svc,
		Token:  func(context.Context) (string, error) { return "tok", nil },
	}

	_, err := gen.Generate(context.Background(), library.Video{ID: "local-uuid", IsYoutubeVideo: true})
	assert.ErrorIs(t, err, ErrNotOnBackend)
	assert.Zero(t, svc.generated, "backend must not be asked about a video it never stored")
}

package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StubClient answers every backend call locally. It backs offline mode and
// tests that need a Client without a server.
type StubClient struct {
	auth   *StubAuth
	videos *StubVideos
	shorts *StubShorts
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{
		auth:   &StubAuth{logger: logger},
		videos: &StubVideos{logger: logger, jobs: make(map[string]int)},
		shorts: &StubShorts{logger: logger},
		logger: logger,
	}
}

func (c *StubClient) Auth() AuthService {
	return c.auth
}

func (c *StubClient) Videos() VideoService {
	return c.videos
}

func (c *StubClient) Shorts() ShortService {
	return c.shorts
}

// StubToken is issued for every stub login.
const StubToken = "offline-token"

type StubAuth struct {
	logger *slog.Logger
}

func (s *StubAuth) Login(_ context.Context, creds Credentials) (string, error) {
	s.logger.Info("cloud auth stub: login requested", "email", creds.Email)
	return StubToken, nil
}

func (s *StubAuth) Register(_ context.Context, creds Credentials) (string, error) {
	s.logger.Info("cloud auth stub: register requested", "email", creds.Email)
	return StubToken, nil
}

func (s *StubAuth) ExchangeGoogleCode(_ context.Context, code string) (string, error) {
	s.logger.Info("cloud auth stub: google code exchange requested")
	return StubToken, nil
}

func (s *StubAuth) Me(_ context.Context, token string) (*UserProfile, error) {
	if token != StubToken {
		return nil, &APIError{StatusCode: 401, Detail: "Invalid authentication credentials"}
	}
	return &UserProfile{ID: "offline", Email: "offline@localhost", Name: "Offline User"}, nil
}

func (s *StubAuth) Logout(context.Context, string) error {
	s.logger.Info("cloud auth stub: logout requested")
	return nil
}

// StubVideos completes every job after a few polls.
type StubVideos struct {
	logger *slog.Logger
	mu     sync.Mutex
	jobs   map[string]int
}

const stubPollsToComplete = 4

func (s *StubVideos) Upload(_ context.Context, _ string, f UploadFile, progress ProgressFunc) (*VideoResponse, error) {
	s.logger.Info("cloud video stub: upload requested", "path", f.Path)
	if progress != nil {
		progress(1, 1)
	}
	title := f.Title
	if title == "" {
		title = filepath.Base(f.Path)
	}
	return &VideoResponse{
		ID:         uuid.NewString(),
		Title:      title,
		Filename:   filepath.Base(f.Path),
		UploadDate: time.Now().UTC().Format(time.RFC3339),
		Status:     "uploaded",
	}, nil
}

func (s *StubVideos) Process(_ context.Context, _ string, req ProcessRequest) (*ProcessResponse, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = 0
	s.mu.Unlock()
	s.logger.Info("cloud video stub: process requested", "job_id", id, "youtube", req.IsYoutubeVideo)
	return &ProcessResponse{JobID: id}, nil
}

func (s *StubVideos) JobStatus(_ context.Context, _ string, jobID string) (*JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	polls, ok := s.jobs[jobID]
	if !ok {
		return nil, &APIError{StatusCode: 404, Detail: "Job not found"}
	}
	polls++
	s.jobs[jobID] = polls

	if polls < stubPollsToComplete {
		return &JobStatus{Status: JobStatusProcessing, Progress: float64(polls * 100 / stubPollsToComplete)}, nil
	}
	return &JobStatus{
		Status:   JobStatusCompleted,
		Progress: 100,
		Transcript: []TranscriptSegment{
			{Start: 0, End: 4, Text: "This is a sample transcript for this video."},
		},
		VideoInfo: &VideoInfo{LengthSeconds: float64(120 + rand.Intn(600))},
	}, nil
}

func (s *StubVideos) List(context.Context, string) ([]VideoResponse, error) {
	return nil, nil
}

func (s *StubVideos) Get(_ context.Context, _ string, videoID string) (*VideoResponse, error) {
	return nil, &APIError{StatusCode: 404, Detail: "Video not found"}
}

func (s *StubVideos) GenerateShorts(_ context.Context, _ string, videoID string, _ *ContextPayload) error {
	s.logger.Info("cloud video stub: generate shorts requested", "video_id", videoID)
	return nil
}

type StubShorts struct {
	logger *slog.Logger
}

// GenerateTimestamps mirrors the backend's placeholder generator with a
// fixed two minute duration.
func (s *StubShorts) GenerateTimestamps(_ context.Context, _ string, videoID string, count int) (*GenerateTimestampsResponse, error) {
	const duration = 120.0
	out := &GenerateTimestampsResponse{VideoID: videoID}
	for i := 0; i < count; i++ {
		length := 10 + rand.Float64()*20
		start := rand.Float64() * (duration - length)
		out.Shorts = append(out.Shorts, ShortTimestamp{
			Start: start,
			End:   start + length,
			ID:    fmt.Sprintf("short_%d", i+1),
		})
	}
	return out, nil
}

func (s *StubShorts) Save(_ context.Context, _ string, req SaveShortRequest) (*ShortResponse, error) {
	s.logger.Info("cloud shorts stub: save requested", "video_id", req.VideoID, "title", req.Title)
	return &ShortResponse{
		ID:      fmt.Sprintf("short_%d", 10000+rand.Intn(90000)),
		VideoID: req.VideoID,
		Title:   req.Title,
		Status:  "saved",
	}, nil
}

func (s *StubShorts) List(context.Context, string, string) ([]ShortResponse, error) {
	return nil, nil
}

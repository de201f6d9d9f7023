// Package library persists processed videos, their generated shorts and the
// upload jobs that produced them.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrShortNotFound     = errors.New("short not found")
	ErrTranscriptPresent = errors.New("video already has a transcript")
)

type LibraryService interface {
	SaveVideo(ctx context.Context, v *Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	Videos(ctx context.Context) ([]*Video, error)
	BackfillTranscript(ctx context.Context, videoID string, transcript []TranscriptSegment) error

	SaveShorts(ctx context.Context, videoID string, shorts []Short) error
	UpdateShort(ctx context.Context, s Short) (Short, error)
	MarkShortSaved(ctx context.Context, s Short) error
	Shorts(ctx context.Context, videoID string) ([]Short, error)

	JobTracker
}

// JobTracker records the lifecycle of an upload session.
type JobTracker interface {
	StartJob(ctx context.Context, kind, source string) (*Job, error)
	JobAssigned(ctx context.Context, id, backendJobID string) error
	JobProgress(ctx context.Context, id string, progress int) error
	FinishJob(ctx context.Context, id, videoID string) error
	FailJob(ctx context.Context, id, message string) error
	Jobs(ctx context.Context, limit int) ([]*Job, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) SaveVideo(ctx context.Context, v *Video) error {
	if v.ID == "" {
		v.ID = NewID()
	}
	if v.UploadDate.IsZero() {
		v.UploadDate = s.now()
	}
	if err := s.repo.CreateVideo(ctx, v); err != nil {
		return fmt.Errorf("save video: %w", err)
	}
	s.logger.Info("video saved", "video_id", v.ID, "youtube", v.IsYoutubeVideo, "duration", v.Duration.String())
	return nil
}

func (s *Service) GetVideo(ctx context.Context, id string) (*Video, error) {
	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVideoNotFound
	}
	return v, nil
}

func (s *Service) Videos(ctx context.Context) ([]*Video, error) {
	return s.repo.ListVideos(ctx)
}

// BackfillTranscript attaches a transcript to a video that has none. A video's
// other fields never change after creation.
func (s *Service) BackfillTranscript(ctx context.Context, videoID string, transcript []TranscriptSegment) error {
	v, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if len(v.Transcript) > 0 {
		return ErrTranscriptPresent
	}
	return s.repo.UpdateVideoTranscript(ctx, videoID, transcript)
}

func (s *Service) SaveShorts(ctx context.Context, videoID string, shorts []Short) error {
	now := s.now()
	batch := make([]Short, len(shorts))
	for i, sh := range shorts {
		if err := sh.Validate(); err != nil {
			return fmt.Errorf("short %s: %w", sh.ID, err)
		}
		sh.VideoID = videoID
		sh.IsShort = true
		if sh.CreatedAt.IsZero() {
			sh.CreatedAt = now
		}
		sh.UpdatedAt = now
		batch[i] = sh
	}
	if err := s.repo.ReplaceShorts(ctx, videoID, batch); err != nil {
		return fmt.Errorf("save shorts: %w", err)
	}
	return nil
}

// UpdateShort validates the trim range, refreshes the display strings and
// stores the edit.
func (s *Service) UpdateShort(ctx context.Context, sh Short) (Short, error) {
	if err := sh.Validate(); err != nil {
		return Short{}, err
	}
	sh.SyncDisplay()
	sh.UpdatedAt = s.now()
	if err := s.repo.UpdateShort(ctx, sh); err != nil {
		if isNoRows(err) {
			return Short{}, ErrShortNotFound
		}
		return Short{}, fmt.Errorf("update short: %w", err)
	}
	return sh, nil
}

func (s *Service) MarkShortSaved(ctx context.Context, sh Short) error {
	return s.repo.MarkShortSaved(ctx, sh.VideoID, sh.ID, s.now())
}

func (s *Service) Shorts(ctx context.Context, videoID string) ([]Short, error) {
	return s.repo.ListShorts(ctx, videoID)
}

func (s *Service) StartJob(ctx context.Context, kind, source string) (*Job, error) {
	now := s.now()
	job := &Job{
		ID:         NewID(),
		SourceKind: kind,
		Source:     source,
		Status:     JobStatusUploading,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (s *Service) JobAssigned(ctx context.Context, id, backendJobID string) error {
	if err := s.repo.SetJobBackendID(ctx, id, backendJobID); err != nil {
		return err
	}
	return s.repo.UpdateJobStatus(ctx, id, JobStatusPolling, "")
}

func (s *Service) JobProgress(ctx context.Context, id string, progress int) error {
	return s.repo.UpdateJobProgress(ctx, id, progress)
}

func (s *Service) FinishJob(ctx context.Context, id, videoID string) error {
	if err := s.repo.SetJobVideo(ctx, id, videoID); err != nil {
		return err
	}
	if err := s.repo.UpdateJobProgress(ctx, id, 100); err != nil {
		return err
	}
	return s.repo.UpdateJobStatus(ctx, id, JobStatusCompleted, "")
}

func (s *Service) FailJob(ctx context.Context, id, message string) error {
	return s.repo.UpdateJobStatus(ctx, id, JobStatusFailed, message)
}

func (s *Service) Jobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

package upload

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

const (
	DefaultPollInterval = 2 * time.Second
	completionDelay     = time.Second
)

// TokenSource yields the bearer token for backend calls.
type TokenSource func(ctx context.Context) (string, error)

type BackendConfig struct {
	Videos       cloud.VideoService
	Token        TokenSource
	Clock        clock.Clock
	PollInterval time.Duration
	// Durations fills the length of uploaded files the backend did not measure.
	Durations    DurationReader
	Logger       *slog.Logger
}

// BackendProcessor submits the session to the processing backend and polls
// the job until it completes or fails.
type BackendProcessor struct {
	videos    cloud.VideoService
	token     TokenSource
	clock     clock.Clock
	interval  time.Duration
	durations DurationReader
	logger    *slog.Logger
}

func NewBackendProcessor(cfg BackendConfig) *BackendProcessor {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &BackendProcessor{
		videos:    cfg.Videos,
		token:     cfg.Token,
		clock:     cfg.Clock,
		interval:  cfg.PollInterval,
		durations: cfg.Durations,
		logger:    cfg.Logger,
	}
}

func (b *BackendProcessor) Process(ctx context.Context, req Request, rep Reporter) (*library.Video, error) {
	token, err := b.token(ctx)
	if err != nil {
		return nil, &FailedError{Message: SubmitFailedMessage, Err: err}
	}

	jobID, uploaded, err := b.submit(ctx, token, req, rep)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Error("failed to submit video for processing", "error", err)
		return nil, &FailedError{Message: SubmitFailedMessage, Err: err}
	}
	rep.JobAssigned(jobID)

	logger := b.logger.With("job_id", jobID)
	logger.Info("processing job submitted")

	var (
		final   *cloud.JobStatus
		failure error
	)
	task := clock.Poll(ctx, b.clock, b.interval, func(ctx context.Context) bool {
		status, err := b.videos.JobStatus(ctx, token, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			if cloud.IsUnauthorized(err) {
				failure = &FailedError{Message: cloud.UserMessage(err), Err: err}
				return false
			}
			logger.Warn("job status poll failed, retrying", "error", err)
			return true
		}

		rep.Progress(int(math.Round(status.Progress)))

		switch status.Status {
		case cloud.JobStatusCompleted:
			final = status
			return false
		case cloud.JobStatusFailed:
			msg := status.Error
			if msg == "" {
				msg = ProcessingFailedMessage
			}
			failure = &FailedError{Message: msg}
			return false
		}
		return true
	})
	<-task.Done()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		logger.Warn("processing job failed", "error", failure)
		return nil, failure
	}

	rep.Progress(100)
	select {
	case <-b.clock.After(completionDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	logger.Info("processing job completed", "segments", len(final.Transcript))
	return b.video(ctx, req, jobID, uploaded, final), nil
}

func (b *BackendProcessor) submit(ctx context.Context, token string, req Request, rep Reporter) (string, *cloud.VideoResponse, error) {
	pr := cloud.ProcessRequest{Context: contextPayload(req.Context)}

	var uploaded *cloud.VideoResponse
	switch {
	case req.File != nil:
		resp, err := b.videos.Upload(ctx, token, cloud.UploadFile{Path: req.File.Path, Title: req.File.Name}, rep.Uploaded)
		if err != nil {
			return "", nil, err
		}
		uploaded = resp
		pr.VideoID = resp.ID
	case req.Youtube != nil:
		pr.VideoURL = youtube.WatchURL(req.Youtube.VideoID)
		pr.IsYoutubeVideo = true
	default:
		return "", nil, ErrNoSource
	}

	resp, err := b.videos.Process(ctx, token, pr)
	if err != nil {
		return "", nil, err
	}
	return resp.JobID, uploaded, nil
}

func (b *BackendProcessor) video(ctx context.Context, req Request, jobID string, uploaded *cloud.VideoResponse, status *cloud.JobStatus) *library.Video {
	v := baseVideo(req, b.clock.Now())
	v.JobID = jobID
	if uploaded != nil && uploaded.ID != "" {
		v.ID = uploaded.ID
	}
	if info := status.VideoInfo; info != nil {
		if info.LengthSeconds > 0 {
			v.Duration = library.Duration(info.LengthSeconds)
		}
		if info.ThumbnailURL != "" {
			v.ThumbnailURL = info.ThumbnailURL
		}
		if info.Title != "" && req.Youtube != nil {
			v.Name = info.Title
		}
	}
	if v.Duration == 0 && req.File != nil && b.durations != nil {
		if d, err := b.durations.Duration(ctx, req.File.Path); err != nil {
			b.logger.Warn("failed to measure video duration", "path", req.File.Path, "error", err)
		} else {
			v.Duration = library.Duration(d)
		}
	}
	for _, seg := range status.Transcript {
		v.Transcript = append(v.Transcript, library.TranscriptSegment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return v
}

func contextPayload(vc *library.VideoContext) *cloud.ContextPayload {
	if vc == nil {
		return nil
	}
	return &cloud.ContextPayload{
		Description:    vc.Description,
		TargetAudience: vc.TargetAudience,
		Keywords:       vc.Keywords,
		ContentType:    vc.ContentType,
	}
}

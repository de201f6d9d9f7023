package upload

import (
	"context"
	"time"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

const (
	SubmitFailedMessage     = "Failed to process video. Please try again."
	ProcessingFailedMessage = "Processing failed"
)

// Request is the collected session handed to a Processor. Exactly one of
// File and Youtube is set.
type Request struct {
	File    *LocalFile
	Youtube *YoutubeLink
	Context *library.VideoContext
}

// Reporter receives processor events. Calls after the session was reset are
// dropped by the controller.
type Reporter interface {
	Progress(percent int)
	Uploaded(sent, total int64)
	JobAssigned(jobID string)
}

// Processor turns a collected session into a finished video. Process blocks
// until the video is ready, the backend reports failure, or ctx is done.
type Processor interface {
	Process(ctx context.Context, req Request, rep Reporter) (*library.Video, error)
}

// DurationReader measures the length of a local media file in seconds.
type DurationReader interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FailedError ends a session with a message meant for the user.
type FailedError struct {
	Message string
	Err     error
}

func (e *FailedError) Error() string { return e.Message }

func (e *FailedError) Unwrap() error { return e.Err }

// baseVideo fills the fields every strategy derives from the request alone.
func baseVideo(req Request, now time.Time) *library.Video {
	v := &library.Video{
		ID:         library.NewID(),
		UploadDate: now,
		Context:    req.Context,
	}
	switch {
	case req.File != nil:
		v.Name = req.File.Name
		v.VideoURL = req.File.URL
		v.SourcePath = req.File.Path
	case req.Youtube != nil:
		v.Name = req.Youtube.Title
		v.VideoURL = req.Youtube.EmbedURL
		v.ThumbnailURL = req.Youtube.ThumbnailURL
		v.Duration = req.Youtube.Duration
		v.IsYoutubeVideo = true
		if v.ThumbnailURL == "" {
			v.ThumbnailURL = youtube.ThumbnailURL(req.Youtube.VideoID, youtube.QualityHigh)
		}
	}
	return v
}

// Package upload runs one upload attempt at a time: it collects a local file
// or a YouTube link plus optional context, hands the source to a Processor,
// and emits the finished video exactly once.
package upload

import (
	"errors"

	"github.com/dustin/go-humanize"

	"github.com/reelcut/reelcut-agent/internal/library"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCollecting Phase = "collecting"
	PhaseUploading  Phase = "uploading"
	PhasePolling    Phase = "polling"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Active reports whether a processor is running for the phase.
func (p Phase) Active() bool {
	return p == PhaseUploading || p == PhasePolling
}

type ContextState string

const (
	ContextPending   ContextState = "pending"
	ContextCollected ContextState = "collected"
	ContextSkipped   ContextState = "skipped"
)

var (
	ErrInvalidFileType   = errors.New("please select a valid video file")
	ErrInvalidYoutubeURL = errors.New("please enter a valid YouTube URL")
	ErrBusy              = errors.New("an upload is already in progress")
	ErrNoSource          = errors.New("select a video file or YouTube link first")
	ErrClosed            = errors.New("upload controller closed")
)

// LocalFile is a video picked from disk. URL is the media URL the browser
// plays it from.
type LocalFile struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MIMEType  string `json:"mime_type"`
	URL       string `json:"url"`
}

// Size is the human readable file size, e.g. "42 MB".
func (f LocalFile) Size() string {
	return humanize.Bytes(uint64(f.SizeBytes))
}

type YoutubeLink struct {
	VideoID      string           `json:"video_id"`
	Title        string           `json:"title"`
	ThumbnailURL string           `json:"thumbnail_url"`
	EmbedURL     string           `json:"embed_url"`
	Duration     library.Duration `json:"duration"`
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Phase         Phase                 `json:"phase"`
	File          *LocalFile            `json:"file,omitempty"`
	Youtube       *YoutubeLink          `json:"youtube,omitempty"`
	Context       *library.VideoContext `json:"context,omitempty"`
	ContextState  ContextState          `json:"context_state,omitempty"`
	JobID         string                `json:"job_id,omitempty"`
	Progress      int                   `json:"progress"`
	UploadedBytes int64                 `json:"uploaded_bytes,omitempty"`
	Error         string                `json:"error,omitempty"`
	Video         *library.Video        `json:"video,omitempty"`
}

// Uploaded renders upload progress as "3.1 MB / 12 MB". It is empty unless
// a file upload has started.
func (s Snapshot) Uploaded() string {
	if s.File == nil || s.UploadedBytes == 0 {
		return ""
	}
	return humanize.Bytes(uint64(s.UploadedBytes)) + " / " + s.File.Size()
}

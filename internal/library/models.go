package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelcut/reelcut-agent/internal/timecode"
)

const (
	ContentTypeEducational   = "educational"
	ContentTypeEntertainment = "entertainment"
	ContentTypeTutorial      = "tutorial"
	ContentTypeVlog          = "vlog"
	ContentTypeProductReview = "product review"
)

var ContentTypes = []string{
	ContentTypeEducational,
	ContentTypeEntertainment,
	ContentTypeTutorial,
	ContentTypeVlog,
	ContentTypeProductReview,
}

const (
	JobStatusUploading = "uploading"
	JobStatusPolling   = "polling"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"

	SourceKindFile    = "file"
	SourceKindYoutube = "youtube"
)

var (
	ErrInvalidTrim        = errors.New("trim start must be before trim end")
	ErrInvalidContentType = errors.New("invalid content type")
)

// VideoContext is the optional description a user attaches before processing.
type VideoContext struct {
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	Keywords       []string `json:"keywords"`
	ContentType    string   `json:"content_type"`
}

// Normalize defaults the content type and validates it.
func (c *VideoContext) Normalize() error {
	c.ContentType = strings.ToLower(strings.TrimSpace(c.ContentType))
	if c.ContentType == "" {
		c.ContentType = ContentTypeEducational
	}
	for _, ct := range ContentTypes {
		if ct == c.ContentType {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidContentType, c.ContentType)
}

// ParseKeywords splits comma separated input, trimming entries and dropping
// empty ones.
func ParseKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration is a length in seconds. Zero means unknown and is encoded as the
// string "Unknown".
type Duration float64

const unknownDuration = "Unknown"

func (d Duration) Known() bool { return d > 0 }

func (d Duration) Seconds() float64 { return float64(d) }

func (d Duration) String() string { return timecode.FormatDuration(float64(d)) }

func (d Duration) MarshalJSON() ([]byte, error) {
	if !d.Known() {
		return json.Marshal(unknownDuration)
	}
	return json.Marshal(float64(d))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Duration(f)
	return nil
}

type Video struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Duration       Duration            `json:"duration"`
	UploadDate     time.Time           `json:"upload_date"`
	ThumbnailURL   string              `json:"thumbnail_url"`
	VideoURL       string              `json:"video_url"`
	SourcePath     string              `json:"-"`
	Context        *VideoContext       `json:"context,omitempty"`
	IsYoutubeVideo bool                `json:"is_youtube_video"`
	JobID          string              `json:"job_id,omitempty"`
	Transcript     []TranscriptSegment `json:"transcript,omitempty"`
}

type Short struct {
	ID             string    `json:"id"`
	VideoID        string    `json:"video_id"`
	Title          string    `json:"title"`
	TrimStart      float64   `json:"trim_start"`
	TrimEnd        float64   `json:"trim_end"`
	Duration       string    `json:"duration"`
	Timestamp      string    `json:"timestamp"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	VideoURL       string    `json:"video_url"`
	IsShort        bool      `json:"is_short"`
	IsYoutubeVideo bool      `json:"is_youtube_video"`
	Transcript     string    `json:"transcript,omitempty"`
	Captions       string    `json:"captions,omitempty"`
	Explanation    string    `json:"explanation,omitempty"`
	Hashtags       []string  `json:"hashtags,omitempty"`
	SavedAt        time.Time `json:"saved_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s Short) Validate() error {
	if s.TrimStart < 0 || s.TrimStart >= s.TrimEnd {
		return ErrInvalidTrim
	}
	return nil
}

// SyncDisplay recomputes Duration and Timestamp from the trim range.
func (s *Short) SyncDisplay() {
	s.Duration = timecode.Format(s.TrimEnd - s.TrimStart)
	s.Timestamp = timecode.Format(s.TrimStart)
}

func (s Short) Length() float64 { return s.TrimEnd - s.TrimStart }

// Job tracks one upload session through the processing backend.
type Job struct {
	ID           string    `json:"id"`
	SourceKind   string    `json:"source_kind"`
	Source       string    `json:"source"`
	BackendJobID string    `json:"backend_job_id,omitempty"`
	VideoID      string    `json:"video_id,omitempty"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

package api

import (
	"time"

	"github.com/reelcut/reelcut-agent/internal/cloud"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/processing"
	"github.com/reelcut/reelcut-agent/internal/shorts"
	"github.com/reelcut/reelcut-agent/internal/upload"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Backend string `json:"backend"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	*cloud.UserProfile
	Picture string `json:"picture,omitempty"`
}

type UploadFileRequest struct {
	Path string `json:"path"`
}

type UploadYoutubeRequest struct {
	URL string `json:"url"`
}

// ContextRequest accepts keywords as a list or as the comma separated text
// typed into the context dialog.
type ContextRequest struct {
	Description    string   `json:"description"`
	TargetAudience string   `json:"target_audience"`
	Keywords       []string `json:"keywords,omitempty"`
	KeywordsText   string   `json:"keywords_text,omitempty"`
	ContentType    string   `json:"content_type"`
}

func (c ContextRequest) VideoContext() library.VideoContext {
	keywords := library.ParseKeywords(c.KeywordsText)
	for _, k := range c.Keywords {
		keywords = append(keywords, library.ParseKeywords(k)...)
	}
	return library.VideoContext{
		Description:    c.Description,
		TargetAudience: c.TargetAudience,
		Keywords:       keywords,
		ContentType:    c.ContentType,
	}
}

// UploadResponse is the upload session plus the processing view derived
// from its progress.
type UploadResponse struct {
	upload.Snapshot
	Size     string            `json:"size,omitempty"`
	Uploaded string            `json:"uploaded,omitempty"`
	Message  string            `json:"message,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Steps    []processing.Step `json:"steps,omitempty"`
}

func SnapshotToResponse(s upload.Snapshot) UploadResponse {
	resp := UploadResponse{Snapshot: s, Uploaded: s.Uploaded()}
	if s.File != nil {
		resp.Size = s.File.Size()
	}
	switch s.Phase {
	case upload.PhaseUploading, upload.PhasePolling, upload.PhaseComplete:
		resp.Message = processing.Message(s.Progress)
		resp.Badge = processing.Badge(s.Progress)
		resp.Steps = processing.Steps(s.Progress)
	}
	return resp
}

type VideoResponse struct {
	*library.Video
	DurationText string `json:"duration_text"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

func VideoToResponse(v *library.Video) VideoResponse {
	return VideoResponse{Video: v, DurationText: v.Duration.String()}
}

type OpenVideoRequest struct {
	VideoID string `json:"video_id"`
}

// UpdateShortRequest carries the editable fields of a short. Absent fields
// keep their current value.
type UpdateShortRequest struct {
	Title     *string  `json:"title,omitempty"`
	TrimStart *float64 `json:"trim_start,omitempty"`
	TrimEnd   *float64 `json:"trim_end,omitempty"`
	Captions  *string  `json:"captions,omitempty"`
}

func (u UpdateShortRequest) Apply(s library.Short) library.Short {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.TrimStart != nil {
		s.TrimStart = *u.TrimStart
	}
	if u.TrimEnd != nil {
		s.TrimEnd = *u.TrimEnd
	}
	if u.Captions != nil {
		s.Captions = *u.Captions
	}
	return s
}

type PreviewRequest struct {
	ShortID  string `json:"short_id,omitempty"`
	Original bool   `json:"original,omitempty"`
}

type PreviewResponse struct {
	Short *library.Short `json:"short,omitempty"`
	Video *library.Video `json:"video,omitempty"`
}

type SaveAllResponse struct {
	Saved   int                 `json:"saved"`
	Failed  int                 `json:"failed"`
	Results []shorts.SaveResult `json:"results"`
}

type JobResponse struct {
	ID           string `json:"id"`
	SourceKind   string `json:"source_kind"`
	Source       string `json:"source"`
	BackendJobID string `json:"backend_job_id,omitempty"`
	VideoID      string `json:"video_id,omitempty"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func JobToResponse(j *library.Job) JobResponse {
	return JobResponse{
		ID:           j.ID,
		SourceKind:   j.SourceKind,
		Source:       j.Source,
		BackendJobID: j.BackendJobID,
		VideoID:      j.VideoID,
		Status:       j.Status,
		Progress:     j.Progress,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
}

type AuthResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

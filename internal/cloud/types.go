package cloud

// Credentials is the body of POST /auth/login and /auth/register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Error bool   `json:"error"`
	Token string `json:"token"`
}

type UserProfile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Picture returns the best available profile image URL.
func (p UserProfile) Picture() string {
	if p.ProfilePicture != "" {
		return p.ProfilePicture
	}
	return p.AvatarURL
}

// ContextPayload is the user supplied video context in the backend's
// camelCase wire form.
type ContextPayload struct {
	Description    string   `json:"description,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	ContentType    string   `json:"contentType,omitempty"`
}

type VideoResponse struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Filename   string                 `json:"filename"`
	UploadDate string                 `json:"upload_date"`
	FileSize   int64                  `json:"file_size"`
	Status     string                 `json:"status"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

type ProcessRequest struct {
	VideoID        string          `json:"video_id,omitempty"`
	VideoURL       string          `json:"video_url,omitempty"`
	IsYoutubeVideo bool            `json:"is_youtube_video"`
	Context        *ContextPayload `json:"context,omitempty"`
}

type ProcessResponse struct {
	JobID string `json:"jobId"`
}

const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type VideoInfo struct {
	Title         string  `json:"title,omitempty"`
	LengthSeconds float64 `json:"lengthSeconds,omitempty"`
	ThumbnailURL  string  `json:"thumbnailUrl,omitempty"`
}

// JobStatus is one poll response for a processing job.
type JobStatus struct {
	Status     string              `json:"status"`
	Progress   float64             `json:"progress"`
	Transcript []TranscriptSegment `json:"transcript,omitempty"`
	VideoInfo  *VideoInfo          `json:"videoInfo,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type GenerateShortsRequest struct {
	Context *ContextPayload `json:"context,omitempty"`
}

type GenerateTimestampsRequest struct {
	VideoID string `json:"video_id"`
	Count   int    `json:"count"`
}

type ShortTimestamp struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	ID    string  `json:"id"`
}

type GenerateTimestampsResponse struct {
	VideoID string           `json:"video_id"`
	Shorts  []ShortTimestamp `json:"shorts"`
}

type SaveShortRequest struct {
	VideoID     string  `json:"video_id"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
}

type ShortResponse struct {
	ID           string `json:"id"`
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Timestamp    string `json:"timestamp"`
	Duration     string `json:"duration"`
	Status       string `json:"status"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Package export writes a video's shorts as an edit decision list so they
// can be conformed in a desktop editor.
package export

const FormatEDL = "edl"

// Request is the body of POST /export/edl.
type Request struct {
	VideoID   string   `json:"video_id"`
	ShortIDs  []string `json:"short_ids,omitempty"`
	FrameRate float64  `json:"frame_rate"`
	OutputDir string   `json:"output_dir"`
}

// Clip is one event of the list. Times are seconds into the source.
type Clip struct {
	Name      string
	MediaPath string
	Start     float64
	End       float64
}

type Result struct {
	Status     string   `json:"status"`
	Format     string   `json:"format"`
	OutputPath string   `json:"output_path"`
	ClipCount  int      `json:"clip_count"`
	Missing    []string `json:"missing_short_ids,omitempty"`
}

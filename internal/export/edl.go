package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelcut/reelcut-agent/internal/library"
)

var ErrNoClips = errors.New("no shorts to export")

func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	record := 0.0
	for i, clip := range clips {
		length := clip.End - clip.Start
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				toTimecode(clip.Start, fps), toTimecode(clip.End, fps),
				toTimecode(record, fps), toTimecode(record+length, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.Name),
			fmt.Sprintf("* SOURCE FILE:  %s", clip.MediaPath),
		)
		record += length
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// toTimecode renders seconds as HH:MM:SS:FF at the given frame rate.
func toTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// Clips selects the shorts to export, keeping list order. An empty ids
// selects every short; ids with no matching short are returned as missing.
func Clips(video library.Video, shorts []library.Short, ids []string) ([]Clip, []string) {
	media := video.SourcePath
	if media == "" {
		media = video.VideoURL
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var clips []Clip
	for i, s := range shorts {
		if len(ids) > 0 && !want[s.ID] {
			continue
		}
		delete(want, s.ID)
		clips = append(clips, Clip{
			Name:      ClipName(s.Title, i+1),
			MediaPath: media,
			Start:     s.TrimStart,
			End:       s.TrimEnd,
		})
	}

	var missing []string
	for _, id := range ids {
		if want[id] {
			missing = append(missing, id)
		}
	}
	return clips, missing
}

// WriteEDL writes the list to dir as "<video name>_shorts.edl".
func WriteEDL(dir string, video library.Video, clips []Clip, frameRate float64) (string, error) {
	if len(clips) == 0 {
		return "", ErrNoClips
	}
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(video))
	content := GenerateEDL(clips, SanitizeName(video.Name, maxVideoName), frameRate)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write edl: %w", err)
	}
	return path, nil
}

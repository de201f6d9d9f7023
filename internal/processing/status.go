// Package processing renders processing progress as a step checklist and
// shows the transcript of a finished video.
package processing

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/timecode"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepComplete   StepStatus = "complete"
)

type Step struct {
	Name      string     `json:"name"`
	Threshold int        `json:"threshold"`
	Status    StepStatus `json:"status"`
}

var pipeline = []struct {
	name      string
	threshold int
}{
	{"Extract Audio", 25},
	{"Generate Transcript", 50},
	{"Analyze Content", 75},
	{"Generate Shorts", 100},
}

// Steps maps progress onto the four processing steps. A step is complete
// once progress reaches its threshold and in progress within the 25 points
// before it.
func Steps(progress int) []Step {
	steps := make([]Step, len(pipeline))
	for i, p := range pipeline {
		status := StepPending
		switch {
		case progress >= p.threshold:
			status = StepComplete
		case progress > p.threshold-25:
			status = StepInProgress
		}
		steps[i] = Step{Name: p.name, Threshold: p.threshold, Status: status}
	}
	return steps
}

func Message(progress int) string {
	switch {
	case progress >= 100:
		return "Processing complete!"
	case progress < 20:
		return "Preparing your video..."
	case progress < 40:
		return "Extracting audio..."
	case progress < 60:
		return "Generating transcript..."
	case progress < 80:
		return "Analyzing content..."
	default:
		return "Finding engaging moments..."
	}
}

func Badge(progress int) string {
	if progress >= 100 {
		return "Complete"
	}
	return fmt.Sprintf("%d%%", progress)
}

type Tab string

const (
	TabProcessing Tab = "processing"
	TabTranscript Tab = "transcript"
)

// View is everything the status view shows. Tab is the only state it owns.
type View struct {
	Tab        Tab
	Progress   int
	Transcript []library.TranscriptSegment
}

// Tabs lists the selectable tabs; the transcript tab only exists once a
// transcript is available.
func (v View) Tabs() []Tab {
	if len(v.Transcript) == 0 {
		return []Tab{TabProcessing}
	}
	return []Tab{TabProcessing, TabTranscript}
}

func Render(w io.Writer, v View) error {
	if v.Tab == TabTranscript && len(v.Transcript) > 0 {
		return renderTranscript(w, v.Transcript)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", Message(v.Progress), Badge(v.Progress))
	fmt.Fprintf(&b, "%s\n", bar(v.Progress, 30))
	for _, s := range Steps(v.Progress) {
		fmt.Fprintf(&b, "  %s %s\n", marker(s.Status), s.Name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderTranscript(w io.Writer, segments []library.TranscriptSegment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, seg := range segments {
		fmt.Fprintf(tw, "%s - %s\t%s\n", timecode.Format(seg.Start), timecode.Format(seg.End), seg.Text)
	}
	return tw.Flush()
}

func marker(s StepStatus) string {
	switch s {
	case StepComplete:
		return "[x]"
	case StepInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func bar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reelcut/reelcut-agent/internal/library"
)

func TestGenerateEDL_SingleClip(t *testing.T) {
	clips := []Clip{{
		Name:      "Engaging Moment 1",
		MediaPath: "/videos/talk.mp4",
		Start:     65,
		End:       80.5,
	}}

	edl := GenerateEDL(clips, "talk.mp4", 30.0)

	if !strings.Contains(edl, "TITLE: talk.mp4") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:01:05:00 00:01:20:15 00:00:00:00 00:00:15:15") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Engaging Moment 1") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* SOURCE FILE:  /videos/talk.mp4") {
		t.Fatalf("missing source comment: %q", edl)
	}
}

func TestGenerateEDL_RecordOffsetAccumulates(t *testing.T) {
	clips := []Clip{
		{Name: "A", MediaPath: "/a.mp4", Start: 10, End: 20},
		{Name: "B", MediaPath: "/a.mp4", Start: 40, End: 41.5},
	}

	edl := GenerateEDL(clips, "Multi", 30.0)

	if !strings.Contains(edl, "002  AX       V     C        00:00:40:00 00:00:41:15 00:00:10:00 00:00:11:15") {
		t.Fatalf("second event line mismatch or bad record offset: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl := GenerateEDL([]Clip{{Name: "Clip", Start: 0, End: 1}}, "Drop", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestToTimecode(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     int
		want    string
	}{
		{name: "zero", seconds: 0, fps: 30, want: "00:00:00:00"},
		{name: "half second", seconds: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "one minute", seconds: 60, fps: 25, want: "00:01:00:00"},
		{name: "one hour", seconds: 3600, fps: 30, want: "01:00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := toTimecode(tc.seconds, tc.fps); got != tc.want {
				t.Fatalf("toTimecode(%v, %d) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}

func testShorts() []library.Short {
	return []library.Short{
		{ID: "short_1", Title: "Intro <hook>", TrimStart: 1, TrimEnd: 12},
		{ID: "short_2", Title: "Demo", TrimStart: 30, TrimEnd: 55},
		{ID: "short_3", Title: "Outro", TrimStart: 90, TrimEnd: 100},
	}
}

func TestClips_SelectsAndReportsMissing(t *testing.T) {
	video := library.Video{ID: "v1", Name: "talk.mp4", SourcePath: "/videos/talk.mp4"}

	clips, missing := Clips(video, testShorts(), []string{"short_3", "short_1", "short_9"})
	if len(clips) != 2 {
		t.Fatalf("len(clips) = %d, want 2", len(clips))
	}
	if clips[0].Name != "Intro _hook_" || clips[1].Name != "Outro" {
		t.Errorf("clips out of list order or unsanitized: %+v", clips)
	}
	if clips[0].MediaPath != "/videos/talk.mp4" {
		t.Errorf("MediaPath = %q", clips[0].MediaPath)
	}
	if len(missing) != 1 || missing[0] != "short_9" {
		t.Errorf("missing = %v", missing)
	}

	all, _ := Clips(library.Video{VideoURL: "https://www.youtube.com/embed/x"}, testShorts(), nil)
	if len(all) != 3 || all[0].MediaPath != "https://www.youtube.com/embed/x" {
		t.Errorf("all clips = %+v", all)
	}
}

func TestWriteEDL(t *testing.T) {
	dir := t.TempDir()
	video := library.Video{ID: "v1", Name: "My Talk.mp4", SourcePath: "/videos/talk.mp4"}
	clips, _ := Clips(video, testShorts(), nil)

	path, err := WriteEDL(dir, video, clips, 30)
	if err != nil {
		t.Fatalf("WriteEDL() error = %v", err)
	}
	if path != filepath.Join(dir, "My Talk_shorts.edl") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "003  AX") {
		t.Errorf("expected three events:\n%s", data)
	}

	if _, err := WriteEDL(dir, video, nil, 30); err != ErrNoClips {
		t.Errorf("error = %v, want ErrNoClips", err)
	}
}

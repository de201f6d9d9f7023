// Package pipeline inspects local media files with ffprobe.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var ErrFFprobeUnavailable = errors.New("ffprobe not available")

type Inspector interface {
	Inspect(ctx context.Context, filePath string) (*MediaInfo, error)
	Duration(ctx context.Context, filePath string) (float64, error)
}

type MediaInfo struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
	AudioCodec string
}

const inspectTimeout = 15 * time.Second

// FFprobe shells out to the ffprobe binary.
type FFprobe struct {
	binary string
	logger *slog.Logger
}

// NewFFprobe resolves binary on PATH. It returns ErrFFprobeUnavailable when
// the binary cannot be found.
func NewFFprobe(binary string, logger *slog.Logger) (*FFprobe, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFprobeUnavailable, err)
	}
	return &FFprobe{binary: path, logger: logger}, nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func (f *FFprobe) Inspect(ctx context.Context, filePath string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	f.logger.Debug("ffprobe finished", "duration_ms", time.Since(start).Milliseconds())

	return parseMediaInfo(stdout.Bytes())
}

func parseMediaInfo(data []byte) (*MediaInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	res := &MediaInfo{}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		res.Duration = d
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if res.Codec != "" {
				continue
			}
			res.Codec = s.CodecName
			res.Width = s.Width
			res.Height = s.Height
			res.FrameRate = parseRate(s.RFrameRate)
		case "audio":
			if res.AudioCodec == "" {
				res.AudioCodec = s.CodecName
			}
		}
	}
	return res, nil
}

// parseRate parses ffprobe's "30000/1001" style rates.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func (f *FFprobe) Duration(ctx context.Context, filePath string) (float64, error) {
	res, err := f.Inspect(ctx, filePath)
	if err != nil {
		return 0, err
	}
	return res.Duration, nil
}

// StubInspector reports every file as having unknown properties.
type StubInspector struct {
	logger *slog.Logger
}

func NewStubInspector(logger *slog.Logger) *StubInspector {
	return &StubInspector{logger: logger}
}

func (p *StubInspector) Inspect(_ context.Context, filePath string) (*MediaInfo, error) {
	p.logger.Debug("ffprobe stub: inspect requested", "path", filePath)
	return &MediaInfo{}, nil
}

func (p *StubInspector) Duration(context.Context, string) (float64, error) {
	return 0, nil
}

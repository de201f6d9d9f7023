package shorts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/timecode"
)

const (
	previewInterval = 100 * time.Millisecond
	// youtubeDefaultLength is assumed when an embedded video's length is unknown.
	youtubeDefaultLength = 60.0
)

var (
	ErrInvalidTrim         = library.ErrInvalidTrim
	ErrPlaybackUnsupported = errors.New("playback control is not available for YouTube videos")
)

// Editor holds the trim range of one short while it is being edited. It
// works on a copy; Save returns the result for the caller to commit.
type Editor struct {
	clock  clock.Clock
	player Player

	mu        sync.Mutex
	short     library.Short
	trimStart float64
	trimEnd   float64
	preview   *clock.PollTask
}

// NewEditor derives the trim range from the short's display strings. YouTube
// shorts ignore player since the embed cannot be controlled.
func NewEditor(s library.Short, player Player, c clock.Clock) *Editor {
	if c == nil {
		c = clock.Real{}
	}
	if s.IsYoutubeVideo {
		player = nil
	}
	e := &Editor{clock: c, player: player, short: s}
	e.trimStart, e.trimEnd = initialTrim(s, player)
	return e
}

func initialTrim(s library.Short, player Player) (float64, float64) {
	start, errStart := timecode.Parse(s.Timestamp)
	length, errLen := timecode.Parse(s.Duration)
	if errStart == nil && errLen == nil && length > 0 {
		return start, start + length
	}
	if s.TrimEnd > s.TrimStart {
		return s.TrimStart, s.TrimEnd
	}
	if errStart != nil {
		start = 0
	}
	if player != nil && player.Duration() > start {
		return start, player.Duration()
	}
	return start, start + youtubeDefaultLength
}

func (e *Editor) Trim() (start, end float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trimStart, e.trimEnd
}

func (e *Editor) CanPlay() bool { return e.player != nil }

// SetTrimStart moves the start of the range. The playhead jumps to the new
// start while playing, or when it is now before the range.
func (e *Editor) SetTrimStart(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 || v >= e.trimEnd {
		return ErrInvalidTrim
	}
	e.trimStart = v
	if e.player != nil && (e.player.Playing() || e.player.Position() < v) {
		e.player.Seek(v)
	}
	return nil
}

// SetTrimEnd moves the end of the range. The playhead is pulled back if it
// is now past the range.
func (e *Editor) SetTrimEnd(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v <= e.trimStart {
		return ErrInvalidTrim
	}
	if e.player != nil && e.player.Duration() > 0 && v > e.player.Duration() {
		return ErrInvalidTrim
	}
	e.trimEnd = v
	if e.player != nil && e.player.Position() > v {
		e.player.Seek(v)
	}
	return nil
}

func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.short.Title = title
}

func (e *Editor) SetCaptions(captions string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.short.Captions = captions
}

// PreviewTrim plays the trimmed range once, pausing when the playhead
// reaches the end. A running preview is replaced.
func (e *Editor) PreviewTrim(ctx context.Context) (*clock.PollTask, error) {
	if e.player == nil {
		return nil, ErrPlaybackUnsupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.preview.Stop()
	e.player.Seek(e.trimStart)
	e.player.Play()

	player := e.player
	e.preview = clock.Poll(ctx, e.clock, previewInterval, func(context.Context) bool {
		e.mu.Lock()
		end := e.trimEnd
		e.mu.Unlock()
		if player.Position() >= end {
			player.Pause()
			return false
		}
		return true
	})
	return e.preview, nil
}

// Save returns the edited short with display strings matching the range.
func (e *Editor) Save() library.Short {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.short
	s.TrimStart = e.trimStart
	s.TrimEnd = e.trimEnd
	s.SyncDisplay()
	return s
}

// Close stops any preview and pauses playback.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preview.Running() {
		e.preview.Stop()
		if e.player != nil {
			e.player.Pause()
		}
	}
	e.preview = nil
}

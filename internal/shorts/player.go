package shorts

import (
	"sync"
	"time"

	"github.com/reelcut/reelcut-agent/internal/clock"
)

// Player is the playback surface the trim editor drives.
type Player interface {
	Position() float64
	// Duration is zero when unknown.
	Duration() float64
	Seek(seconds float64)
	Play()
	Pause()
	Playing() bool
}

// VirtualPlayer is a playhead driven by a clock instead of a decoder. The
// CLI previews trims with it.
type VirtualPlayer struct {
	clock    clock.Clock
	duration float64

	mu       sync.Mutex
	offset   float64
	playing  bool
	playedAt time.Time
}

func NewVirtualPlayer(c clock.Clock, duration float64) *VirtualPlayer {
	if c == nil {
		c = clock.Real{}
	}
	return &VirtualPlayer{clock: c, duration: duration}
}

func (p *VirtualPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *VirtualPlayer) positionLocked() float64 {
	pos := p.offset
	if p.playing {
		pos += p.clock.Now().Sub(p.playedAt).Seconds()
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

func (p *VirtualPlayer) Duration() float64 { return p.duration }

func (p *VirtualPlayer) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = seconds
	p.playedAt = p.clock.Now()
}

func (p *VirtualPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.playing = true
	p.playedAt = p.clock.Now()
}

func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.offset = p.positionLocked()
	p.playing = false
}

func (p *VirtualPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

package upload

import (
	"context"
	"math/rand"
	"time"

	"github.com/reelcut/reelcut-agent/internal/clock"
	"github.com/reelcut/reelcut-agent/internal/library"
)

const (
	simulatedStep     = 5
	simulatedInterval = 200 * time.Millisecond
	simulatedHandoff  = 1500 * time.Millisecond
)

// SimulatedProcessor fakes processing with a timer and a random duration.
// It performs no analysis and exists so the workflow runs without a backend.
type SimulatedProcessor struct {
	clock  clock.Clock
	durations DurationReader
}

func NewSimulatedProcessor(c clock.Clock) *SimulatedProcessor {
	if c == nil {
		c = clock.Real{}
	}
	return &SimulatedProcessor{clock: c}
}

// WithDurations makes local files report their measured duration instead of a
// random one.
func (p *SimulatedProcessor) WithDurations(d DurationReader) *SimulatedProcessor {
	p.durations = d
	return p
}

func (p *SimulatedProcessor) Process(ctx context.Context, req Request, rep Reporter) (*library.Video, error) {
	progress := 0
	task := clock.Poll(ctx, p.clock, simulatedInterval, func(context.Context) bool {
		progress += simulatedStep
		if progress > 100 {
			progress = 100
		}
		rep.Progress(progress)
		return progress < 100
	})
	<-task.Done()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case <-p.clock.After(simulatedHandoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	v := baseVideo(req, p.clock.Now())
	if req.File != nil {
		v.Duration = library.Duration(120 + rand.Intn(600))
		if p.durations != nil {
			if d, err := p.durations.Duration(ctx, req.File.Path); err == nil && d > 0 {
				v.Duration = library.Duration(d)
			}
		}
	}
	return v, nil
}

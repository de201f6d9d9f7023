package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PollTask is a cancellable periodic loop. Stop is idempotent and safe to
// call from inside the polled function.
type PollTask struct {
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	once    sync.Once
}

// Poll runs fn on every tick of interval until fn returns false, ctx is
// done, or Stop is called.
func Poll(ctx context.Context, c Clock, interval time.Duration, fn func(ctx context.Context) bool) *PollTask {
	ctx, cancel := context.WithCancel(ctx)
	p := &PollTask{cancel: cancel, done: make(chan struct{})}
	p.running.Store(true)

	ticker := c.NewTicker(interval)
	go func() {
		defer close(p.done)
		defer p.running.Store(false)
		defer ticker.Stop()
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if ctx.Err() != nil {
					return
				}
				if !fn(ctx) {
					return
				}
			}
		}
	}()
	return p
}

func (p *PollTask) Stop() {
	if p == nil {
		return
	}
	p.once.Do(p.cancel)
}

// Done is closed once the loop has exited.
func (p *PollTask) Done() <-chan struct{} { return p.done }

func (p *PollTask) Running() bool {
	return p != nil && p.running.Load()
}

// Wait blocks until the loop exits or ctx is done.
func (p *PollTask) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

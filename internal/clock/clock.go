// Package clock abstracts the tickers and timers that drive polling loops so
// the loops can be stepped deterministically in tests.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Manual only moves when told to. Tick delivers one tick to every live ticker
// and blocks until each has been received; After fires immediately and
// advances Now by the requested delay.
type Manual struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	tickers map[*manualTicker]struct{}
	delays  []time.Duration
}

func NewManual(start time.Time) *Manual {
	m := &Manual{now: start, tickers: make(map[*manualTicker]struct{})}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) NewTicker(d time.Duration) Ticker {
	t := &manualTicker{
		owner:    m,
		interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	m.mu.Lock()
	m.tickers[t] = struct{}{}
	m.cond.Broadcast()
	m.mu.Unlock()
	return t
}

func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.delays = append(m.delays, d)
	now := m.now
	m.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Delays returns every duration passed to After so far.
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

// Tick waits for at least one ticker to exist, then advances Now by the
// shortest live interval and delivers that instant to every live ticker.
func (m *Manual) Tick() {
	m.mu.Lock()
	for len(m.tickers) == 0 {
		m.cond.Wait()
	}
	var step time.Duration
	live := make([]*manualTicker, 0, len(m.tickers))
	for t := range m.tickers {
		if step == 0 || t.interval < step {
			step = t.interval
		}
		live = append(live, t)
	}
	m.now = m.now.Add(step)
	now := m.now
	m.mu.Unlock()

	for _, t := range live {
		select {
		case t.c <- now:
		case <-t.stopped:
		}
	}
}

// TickN calls Tick n times.
func (m *Manual) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

// Tickers reports how many tickers are live.
func (m *Manual) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

type manualTicker struct {
	owner    *Manual
	interval time.Duration
	c        chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		close(t.stopped)
		t.owner.mu.Lock()
		delete(t.owner.tickers, t)
		t.owner.mu.Unlock()
	})
}

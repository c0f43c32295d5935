package runloop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a recurring timer whose fires are delivered on its loop's
// goroutine.  Fires that fall due while a previous one is still queued
// are coalesced, so a busy loop never builds a backlog of ticks.
type Timer struct {
	loop     *Loop
	mode     Mode
	interval time.Duration
	fn       func(*Timer)

	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
	valid   atomic.Bool
	pending atomic.Bool
	fires   atomic.Int64
}

// AddTimer arms a timer that calls fn on the loop every interval while
// the loop runs in mode.  fn may be nil; the timer then only keeps the
// loop alive.  interval must be positive.
func (l *Loop) AddTimer(interval time.Duration, mode Mode, fn func(*Timer)) *Timer {
	if interval <= 0 {
		panic("runloop: non-positive timer interval")
	}
	t := &Timer{
		loop:     l,
		mode:     mode,
		interval: interval,
		fn:       fn,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}
	t.valid.Store(true)

	l.mu.Lock()
	l.timers[t] = struct{}{}
	l.mu.Unlock()

	go t.tick()
	return t
}

// Interval returns the timer period.
func (t *Timer) Interval() time.Duration { return t.interval }

// Fires returns how many times the timer has fired.
func (t *Timer) Fires() int64 { return t.fires.Load() }

// IsValid reports whether the timer is still armed.
func (t *Timer) IsValid() bool { return t.valid.Load() }

// Invalidate disarms the timer and removes it from its loop.  A fire
// already queued on the loop is dropped.  Safe to call more than once.
func (t *Timer) Invalidate() {
	t.once.Do(func() {
		t.valid.Store(false)
		t.ticker.Stop()
		close(t.done)

		t.loop.mu.Lock()
		delete(t.loop.timers, t)
		t.loop.mu.Unlock()
		t.loop.signal()
	})
}

func (t *Timer) tick() {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			if t.pending.CompareAndSwap(false, true) {
				t.loop.Perform(t.mode, t.fire)
			}
		}
	}
}

func (t *Timer) fire() {
	t.pending.Store(false)
	if !t.valid.Load() {
		return
	}
	t.fires.Add(1)
	if t.fn != nil {
		t.fn(t)
	}
}

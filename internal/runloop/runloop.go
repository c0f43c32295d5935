// Package runloop implements a cooperative, single-goroutine event loop.
//
// A Loop dispatches tasks posted with Perform and fires recurring
// timers, all on whichever goroutine calls Run.  Like a platform run
// loop it only stays alive while it has something to wait for: a
// scheduled input source, a valid timer, or queued work.  A loop with
// none of those returns from Run straight away, which is why long-lived
// owners arm a keep-alive timer before pumping.
package runloop

import (
	"sync"
)

// Mode names the set of tasks and timers a loop services while it runs.
type Mode string

const (
	// DefaultMode is the mode Run uses.
	DefaultMode Mode = "default"

	// CommonModes matches whatever mode the loop is running in.
	CommonModes Mode = "common"
)

// Result tells why Run returned.
type Result int

const (
	// Finished means the loop had no sources, timers or work left.
	Finished Result = iota
	// Stopped means Stop was called.
	Stopped
)

func (r Result) String() string {
	switch r {
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type task struct {
	mode Mode
	fn   func()
}

// Loop is a cooperative event loop.  Perform, AddTimer, AddSource,
// RemoveSource and Stop are safe from any goroutine; Run must be
// called from exactly one.
type Loop struct {
	mu      sync.Mutex
	tasks   []task
	timers  map[*Timer]struct{}
	sources int
	stopped bool
	running bool
	mode    Mode

	wake chan struct{}
}

// New returns an idle loop.
func New() *Loop {
	return &Loop{
		timers: make(map[*Timer]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// Perform queues fn to run on the loop goroutine the next time the loop
// services mode.
func (l *Loop) Perform(mode Mode, fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task{mode: mode, fn: fn})
	l.mu.Unlock()
	l.signal()
}

// AddSource registers an input source that keeps the loop alive until
// the matching RemoveSource.
func (l *Loop) AddSource() {
	l.mu.Lock()
	l.sources++
	l.mu.Unlock()
}

// RemoveSource drops a source added with AddSource.
func (l *Loop) RemoveSource() {
	l.mu.Lock()
	if l.sources > 0 {
		l.sources--
	}
	l.mu.Unlock()
	l.signal()
}

// Sources returns the number of registered input sources.
func (l *Loop) Sources() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sources
}

// Timers returns the number of valid timers on the loop.
func (l *Loop) Timers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Stop makes Run return after the task in progress.  It is sticky: a
// loop that was stopped before Run was entered returns immediately.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

// IsStopped reports whether Stop has been called.
func (l *Loop) IsStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// IsRunning reports whether a goroutine is currently inside Run.
func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Run pumps the loop in DefaultMode.
func (l *Loop) Run() Result {
	return l.RunMode(DefaultMode)
}

// RunMode pumps the loop in mode, blocking the calling goroutine until
// Stop is called or nothing is left to wait for.  Tasks queued for
// other modes are held until a Run in their mode.
func (l *Loop) RunMode(mode Mode) Result {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		panic("runloop: Run called while the loop is already running")
	}
	l.running = true
	l.mode = mode
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return Stopped
		}
		batch := l.takeLocked(mode)
		alive := len(batch) > 0 || l.sources > 0 || len(l.timers) > 0
		l.mu.Unlock()

		if !alive {
			return Finished
		}
		if len(batch) == 0 {
			<-l.wake
			continue
		}

		for i, t := range batch {
			if l.IsStopped() {
				l.requeue(batch[i:])
				return Stopped
			}
			t.fn()
		}
	}
}

// takeLocked removes and returns the queued tasks that mode services.
func (l *Loop) takeLocked(mode Mode) []task {
	if len(l.tasks) == 0 {
		return nil
	}
	var batch, held []task
	for _, t := range l.tasks {
		if t.mode == mode || t.mode == CommonModes {
			batch = append(batch, t)
		} else {
			held = append(held, t)
		}
	}
	l.tasks = held
	return batch
}

// requeue puts unrun tasks back at the front of the queue.
func (l *Loop) requeue(rest []task) {
	l.mu.Lock()
	l.tasks = append(append([]task(nil), rest...), l.tasks...)
	l.mu.Unlock()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

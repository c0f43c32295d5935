// Package streamthread runs one persistent streaming connection on a
// dedicated goroutine.
//
// A Thread owns a session and the three streams it is carried over
// (decoder input, encoder output, direct output).  Start brings the
// connection up on a private run loop that a keep-alive timer holds
// open for as long as the thread lives; CancelAndDisconnect tears it
// down exactly once, from any goroutine, either closing the session and
// streams or leaving them to the caller.
//
// Every transition of the thread's shared state happens on a serial
// queue, which is the only lock the thread uses.
package streamthread

import (
	"context"
	"time"

	"github.com/google/uuid"

	"streampump/config"
	"streampump/internal/metrics"
	"streampump/internal/runloop"
	"streampump/internal/serial"
	"streampump/internal/session"
	"streampump/internal/stream"
	"streampump/util"
)

// Config holds the collaborators and tuneables of a Thread.
type Config struct {
	Session       session.Session
	DecoderInput  stream.InputStream
	EncoderOutput stream.OutputStream
	DirectOutput  stream.Stream

	// RunLoopInterval is the keep-alive timer period.  Non-positive
	// values select config.DefaultRunLoopInterval.
	RunLoopInterval time.Duration

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Thread is a stream-pumping goroutine bound to one session.
// It cannot be restarted once stopped.
type Thread struct {
	id            string
	session       session.Session
	decoderInput  stream.InputStream
	encoderOutput stream.OutputStream
	directOutput  stream.Stream
	interval      time.Duration
	logger        *util.Logger
	metrics       *metrics.Collector

	loop  *runloop.Loop
	queue serial.Queue

	// Guarded by queue.
	started    bool
	running    bool
	didCleanUp bool
	timer      *runloop.Timer
	onStop     func()

	stopped chan struct{} // closed when teardown commits
	exited  chan struct{} // closed when the run loop goroutine returns
}

// New creates a Thread ready to Start.
func New(cfg *Config) *Thread {
	interval := cfg.RunLoopInterval
	if interval <= 0 {
		interval = config.DefaultRunLoopInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = util.NewLogger(0)
	}
	id := uuid.NewString()

	return &Thread{
		id:            id,
		session:       cfg.Session,
		decoderInput:  cfg.DecoderInput,
		encoderOutput: cfg.EncoderOutput,
		directOutput:  cfg.DirectOutput,
		interval:      interval,
		logger:        logger.Named("thread " + util.ShortID(id)),
		metrics:       cfg.Metrics,
		loop:          runloop.New(),
		stopped:       make(chan struct{}),
		exited:        make(chan struct{}),
	}
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string { return t.id }

// RunLoopInterval returns the keep-alive timer period.
func (t *Thread) RunLoopInterval() time.Duration { return t.interval }

// SyncQueue returns the queue that serializes the thread's state
// transitions.  A task submitted with Sync after CancelAndDisconnect
// returns is guaranteed to observe the completed teardown.
func (t *Thread) SyncQueue() *serial.Queue { return &t.queue }

// SetOnStop installs fn to be called once, after teardown completes.
// It replaces any previously installed callback; after teardown it is
// ignored.
func (t *Thread) SetOnStop(fn func()) {
	t.queue.Sync(func() {
		if !t.didCleanUp {
			t.onStop = fn
		}
	})
}

// IsRunning reports whether the thread is between a successful start
// and the beginning of teardown.
func (t *Thread) IsRunning() bool {
	var v bool
	t.queue.Sync(func() { v = t.running })
	return v
}

// DidCleanUp reports whether teardown has completed.
func (t *Thread) DidCleanUp() bool {
	var v bool
	t.queue.Sync(func() { v = t.didCleanUp })
	return v
}

// HasTimer reports whether the keep-alive timer is armed.
func (t *Thread) HasTimer() bool {
	var v bool
	t.queue.Sync(func() { v = t.timer != nil && t.timer.IsValid() })
	return v
}

// Done is closed once teardown has committed.
func (t *Thread) Done() <-chan struct{} { return t.stopped }

// Wait blocks until the run loop goroutine has returned or ctx is done.
// It returns immediately for a thread that was never started.
func (t *Thread) Wait(ctx context.Context) error {
	var started bool
	t.queue.Sync(func() { started = t.started })
	if !started {
		return nil
	}
	select {
	case <-t.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

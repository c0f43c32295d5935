// Package metrics provides lightweight, lock-free counters for tracking
// runtime statistics of stream threads and the sessions they carry.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a streampump process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	threadsStarted    atomic.Int64
	threadsStopped    atomic.Int64
	runLoopTicks      atomic.Int64
	sessionsConnected atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	dialAttempts      atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastTick     time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Stream thread metrics ────────────────────────────────────────────

// ThreadStarted records a stream thread entering its run loop.
func (c *Collector) ThreadStarted() {
	if c == nil {
		return
	}
	c.threadsStarted.Add(1)
}

// ThreadStopped records a stream thread finishing teardown.
func (c *Collector) ThreadStopped() {
	if c == nil {
		return
	}
	c.threadsStopped.Add(1)
}

// ActiveThreads returns started minus stopped threads.
func (c *Collector) ActiveThreads() int64 {
	if c == nil {
		return 0
	}
	return c.threadsStarted.Load() - c.threadsStopped.Load()
}

// TotalThreads returns the lifetime number of started threads.
func (c *Collector) TotalThreads() int64 {
	if c == nil {
		return 0
	}
	return c.threadsStarted.Load()
}

// RunLoopTick records one keep-alive timer fire.
func (c *Collector) RunLoopTick() {
	if c == nil {
		return
	}
	c.runLoopTicks.Add(1)
	c.mu.Lock()
	c.lastTick = time.Now()
	c.mu.Unlock()
}

// RunLoopTicks returns the total number of keep-alive fires.
func (c *Collector) RunLoopTicks() int64 {
	if c == nil {
		return 0
	}
	return c.runLoopTicks.Load()
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionConnected records a session attaching to its streams.
func (c *Collector) SessionConnected() {
	if c == nil {
		return
	}
	c.sessionsConnected.Add(1)
}

// SessionsConnected returns the lifetime session connect count.
func (c *Collector) SessionsConnected() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsConnected.Load()
}

// DialAttempt records one attempt to reach the broker.
func (c *Collector) DialAttempt() {
	if c == nil {
		return
	}
	c.dialAttempts.Add(1)
}

// DialAttempts returns the total number of dial attempts.
func (c *Collector) DialAttempts() int64 {
	if c == nil {
		return 0
	}
	return c.dialAttempts.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the decoder input.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the encoder output.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ThreadsActive     int64  `json:"threads_active"`
	ThreadsTotal      int64  `json:"threads_total"`
	RunLoopTicks      int64  `json:"run_loop_ticks"`
	SessionsConnected int64  `json:"sessions_connected"`
	DialAttempts      int64  `json:"dial_attempts"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastTick          string `json:"last_tick,omitempty"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ThreadsActive:     c.ActiveThreads(),
		ThreadsTotal:      c.threadsStarted.Load(),
		RunLoopTicks:      c.runLoopTicks.Load(),
		SessionsConnected: c.sessionsConnected.Load(),
		DialAttempts:      c.dialAttempts.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastTick.IsZero() {
		s.LastTick = c.lastTick.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

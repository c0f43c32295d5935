package streamthread

import (
	"fmt"

	"streampump/internal/runloop"
	"streampump/internal/stream"
)

// Start brings the connection up on a new goroutine and returns
// immediately.  Only the first call on a thread that has not been torn
// down has any effect.
func (t *Thread) Start() {
	var ok bool
	t.queue.Sync(func() {
		if t.started || t.didCleanUp {
			return
		}
		t.started = true
		ok = true
	})
	if !ok {
		t.logger.Debug("start ignored: already started or torn down")
		return
	}
	go t.run()
}

func (t *Thread) run() {
	defer close(t.exited)

	if t.DidCleanUp() {
		return
	}

	t.decoderInput.Schedule(t.loop, runloop.DefaultMode)
	t.encoderOutput.Schedule(t.loop, runloop.DefaultMode)
	t.directOutput.Schedule(t.loop, runloop.DefaultMode)

	// Failures here belong to the streams and the session, which
	// report them through their own status and events.
	if err := t.directOutput.Open(); err != nil {
		t.logger.Error("opening direct output: %v", err)
		t.metrics.RecordError(fmt.Sprint(err))
	}
	if err := t.session.Connect(t.decoderInput, t.encoderOutput); err != nil {
		t.logger.Error("session connect: %v", err)
		t.metrics.RecordError(fmt.Sprint(err))
	}

	var armed bool
	t.queue.Sync(func() {
		if t.didCleanUp {
			return
		}
		t.timer = t.loop.AddTimer(t.interval, runloop.DefaultMode, t.tick)
		t.running = true
		t.metrics.ThreadStarted()
		armed = true
	})
	if !armed {
		t.logger.Debug("torn down before the run loop started")
		return
	}

	t.logger.Verbose("run loop started (keep-alive every %s)", t.interval)
	res := t.loop.Run()
	t.logger.Verbose("run loop exited: %s", res)
}

// tick is the keep-alive timer handler.  The timer exists only so the
// loop always has something to wait for.
func (t *Thread) tick(*runloop.Timer) {
	t.metrics.RunLoopTick()
}

// CancelAndDisconnect tears the thread down.  With shouldDisconnect the
// session is closed first, then the decoder input, encoder output and
// direct output streams; without it they are left open for the caller.
// Either way the run loop is stopped and the OnStop callback runs.
//
// It is safe to call from any goroutine and any number of times; only
// the first call has an effect.  It returns once teardown is committed.
func (t *Thread) CancelAndDisconnect(shouldDisconnect bool) {
	var (
		onStop     func()
		did        bool
		wasRunning bool
	)
	t.queue.Sync(func() {
		if t.didCleanUp {
			return
		}
		wasRunning = t.running

		if t.timer != nil {
			t.timer.Invalidate()
			t.timer = nil
		}

		if shouldDisconnect {
			t.closeAll()
		}

		t.running = false
		t.didCleanUp = true
		t.loop.Stop()

		onStop, t.onStop = t.onStop, nil
		did = true
	})
	if !did {
		return
	}

	close(t.stopped)
	if wasRunning {
		t.metrics.ThreadStopped()
	}
	if shouldDisconnect {
		t.logger.Verbose("disconnected")
	} else {
		t.logger.Verbose("stopped; session and streams retained")
	}

	if onStop != nil {
		onStop()
	}
}

// closeAll runs on the serial queue.
func (t *Thread) closeAll() {
	if err := t.session.Close(); err != nil {
		t.logger.Warn("closing session: %v", err)
	}
	streams := []struct {
		role string
		s    stream.Stream
	}{
		{"decoder input", t.decoderInput},
		{"encoder output", t.encoderOutput},
		{"direct output", t.directOutput},
	}
	for _, st := range streams {
		if err := st.s.Close(); err != nil {
			t.logger.Warn("closing %s: %v", st.role, err)
		}
	}
}

package streamthread

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streampump/config"
	"streampump/internal/metrics"
	"streampump/internal/runloop"
)

const (
	testInterval = 100 * time.Millisecond
	testDeadline = time.Second
)

type harness struct {
	log     *callLog
	session *mockSession
	decoder *mockStream
	encoder *mockStream
	direct  *mockStream
	metrics *metrics.Collector
	thread  *Thread
	stops   atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := &callLog{}
	h := &harness{
		log:     log,
		session: newMockSession(log),
		decoder: newMockStream("decoder-input", log),
		encoder: newMockStream("encoder-output", log),
		direct:  newMockStream("direct-output", log),
		metrics: metrics.New(),
	}
	h.thread = New(&Config{
		Session:         h.session,
		DecoderInput:    h.decoder,
		EncoderOutput:   h.encoder,
		DirectOutput:    h.direct,
		RunLoopInterval: testInterval,
		Metrics:         h.metrics,
	})
	h.thread.SetOnStop(func() { h.stops.Add(1) })
	t.Cleanup(func() { h.thread.CancelAndDisconnect(false) })
	return h
}

// start starts the thread and waits until it is pumping.
func (h *harness) start(t *testing.T) {
	t.Helper()
	h.thread.Start()

	select {
	case <-h.session.connected:
	case <-time.After(testDeadline):
		t.Fatal("session.Connect was not called")
	}
	require.Eventually(t, h.thread.IsRunning, testDeadline, 5*time.Millisecond)
}

func (h *harness) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case <-h.thread.Done():
	case <-time.After(testDeadline):
		t.Fatal("thread did not stop")
	}
	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()
	require.NoError(t, h.thread.Wait(ctx), "run loop goroutine did not exit")
}

func TestStart_OpensDirectOutputAndConnectsSession(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	assert.Equal(t, 1, h.log.count("direct-output.open"))
	assert.Equal(t, 1, h.log.count("session.connect"))
	assert.Zero(t, h.log.count("decoder-input.open"), "the session opens the decoder input")
	assert.Zero(t, h.log.count("encoder-output.open"), "the session opens the encoder output")

	in, out := h.session.endpoints()
	assert.Same(t, h.decoder, in)
	assert.Same(t, h.encoder, out)

	for _, s := range []*mockStream{h.decoder, h.encoder, h.direct} {
		loop, mode := s.scheduledOn()
		assert.Same(t, h.thread.loop, loop, s.name)
		assert.Equal(t, runloop.DefaultMode, mode, s.name)
	}

	assert.Equal(t, []string{
		"decoder-input.schedule",
		"encoder-output.schedule",
		"direct-output.schedule",
		"direct-output.open",
		"session.connect",
	}, h.log.snapshot())

	assert.True(t, h.thread.HasTimer())
	assert.False(t, h.thread.DidCleanUp())
}

func TestStart_KeepAliveTimerHoldsLoopOpen(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	// The mocks register no run-loop sources, so the loop would finish
	// at once without the timer.
	require.Eventually(t, func() bool {
		return h.metrics.RunLoopTicks() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, h.thread.IsRunning())
	assert.True(t, h.thread.loop.IsRunning())
	assert.EqualValues(t, 1, h.metrics.ActiveThreads())
}

func TestCancelAndDisconnect_True(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.thread.CancelAndDisconnect(true)
	h.waitStopped(t)

	for _, call := range []string{"session.close", "decoder-input.close", "encoder-output.close", "direct-output.close"} {
		assert.Equal(t, 1, h.log.count(call), call)
	}

	calls := h.log.snapshot()
	assert.Equal(t, []string{
		"session.close",
		"decoder-input.close",
		"encoder-output.close",
		"direct-output.close",
	}, calls[len(calls)-4:], "session closes before its streams")

	assert.EqualValues(t, 1, h.stops.Load())
	assert.False(t, h.thread.IsRunning())
	assert.True(t, h.thread.DidCleanUp())
	assert.False(t, h.thread.HasTimer())
	assert.Zero(t, h.metrics.ActiveThreads())
}

func TestCancelAndDisconnect_False(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.thread.CancelAndDisconnect(false)
	h.waitStopped(t)

	for _, call := range []string{"session.close", "decoder-input.close", "encoder-output.close", "direct-output.close"} {
		assert.Zero(t, h.log.count(call), call)
	}
	assert.EqualValues(t, 1, h.stops.Load())
	assert.False(t, h.thread.IsRunning())
	assert.True(t, h.thread.DidCleanUp())
	assert.False(t, h.thread.HasTimer())
}

func TestCancelAndDisconnect_Idempotent(t *testing.T) {
	tests := []struct {
		first, second bool
		wantCloses    int
	}{
		{true, true, 1},
		{true, false, 1},
		{false, true, 0},
		{false, false, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v-then-%v", tt.first, tt.second), func(t *testing.T) {
			h := newHarness(t)
			h.start(t)

			h.thread.CancelAndDisconnect(tt.first)
			h.thread.CancelAndDisconnect(tt.second)
			h.waitStopped(t)

			assert.EqualValues(t, 1, h.stops.Load())
			assert.Equal(t, tt.wantCloses, h.log.count("session.close"))
			assert.Equal(t, tt.wantCloses, h.log.count("decoder-input.close"))
			assert.Equal(t, tt.wantCloses, h.log.count("encoder-output.close"))
			assert.Equal(t, tt.wantCloses, h.log.count("direct-output.close"))
			assert.True(t, h.thread.DidCleanUp())
			assert.False(t, h.thread.IsRunning())
		})
	}
}

func TestCancelAndDisconnect_ConcurrentCallers(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.thread.CancelAndDisconnect(i%2 == 0)
		}(i)
	}
	wg.Wait()
	h.waitStopped(t)

	assert.EqualValues(t, 1, h.stops.Load())
	closes := h.log.count("session.close")
	assert.LessOrEqual(t, closes, 1)
	assert.Equal(t, closes, h.log.count("direct-output.close"))
}

func TestCancelAndDisconnect_SerializedThroughQueue(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.thread.CancelAndDisconnect(true)

	done := make(chan struct{})
	var sawCleanUp, sawRunning, sawTimer bool
	go func() {
		h.thread.SyncQueue().Sync(func() {
			sawCleanUp = h.thread.didCleanUp
			sawRunning = h.thread.running
			sawTimer = h.thread.timer != nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(testDeadline):
		t.Fatal("serial queue deadlocked after teardown")
	}
	assert.True(t, sawCleanUp)
	assert.False(t, sawRunning)
	assert.False(t, sawTimer)
}

func TestOnStop_FiresAfterStateCommitted(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	type observed struct{ running, cleanedUp bool }
	seen := make(chan observed, 1)
	h.thread.SetOnStop(func() {
		seen <- observed{h.thread.IsRunning(), h.thread.DidCleanUp()}
	})

	h.thread.CancelAndDisconnect(false)

	select {
	case o := <-seen:
		assert.False(t, o.running)
		assert.True(t, o.cleanedUp)
	case <-time.After(testDeadline):
		t.Fatal("onStop did not fire")
	}
}

func TestOnStop_Unset(t *testing.T) {
	h := newHarness(t)
	h.thread.SetOnStop(nil)
	h.start(t)

	assert.NotPanics(t, func() { h.thread.CancelAndDisconnect(true) })
	h.waitStopped(t)
	assert.True(t, h.thread.DidCleanUp())
}

func TestStart_Twice(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.thread.Start()

	// Give a stray second run a chance to show up.
	time.Sleep(2 * testInterval)
	assert.Equal(t, 1, h.log.count("session.connect"))
	assert.Equal(t, 1, h.log.count("direct-output.open"))
}

func TestCancelBeforeStart(t *testing.T) {
	h := newHarness(t)

	h.thread.CancelAndDisconnect(true)
	assert.EqualValues(t, 1, h.stops.Load())
	assert.True(t, h.thread.DidCleanUp())
	assert.Equal(t, 1, h.log.count("session.close"))

	h.thread.Start()
	time.Sleep(2 * testInterval)
	assert.Zero(t, h.log.count("session.connect"), "a torn-down thread cannot start")
	assert.False(t, h.thread.IsRunning())
	assert.NoError(t, h.thread.Wait(context.Background()))
	assert.Zero(t, h.metrics.ActiveThreads())
}

func TestWait_HonoursContext(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.thread.Wait(ctx), context.DeadlineExceeded)
}

func TestNew_DefaultInterval(t *testing.T) {
	log := &callLog{}
	th := New(&Config{
		Session:       newMockSession(log),
		DecoderInput:  newMockStream("decoder-input", log),
		EncoderOutput: newMockStream("encoder-output", log),
		DirectOutput:  newMockStream("direct-output", log),
	})
	assert.Equal(t, config.DefaultRunLoopInterval, th.RunLoopInterval())
	assert.NotEmpty(t, th.ID())
	assert.False(t, th.IsRunning())
	assert.False(t, th.DidCleanUp())
	assert.False(t, th.HasTimer())
}

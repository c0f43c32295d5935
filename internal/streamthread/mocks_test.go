package streamthread

import (
	"sync"

	"streampump/internal/runloop"
	"streampump/internal/stream"
)

// callLog records collaborator calls in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.snapshot() {
		if c == call {
			n++
		}
	}
	return n
}

// mockStream implements stream.InputStream and stream.OutputStream.
// It registers no run-loop source, so only the keep-alive timer keeps
// the thread's loop alive.
type mockStream struct {
	name string
	log  *callLog

	mu        sync.Mutex
	loop      *runloop.Loop
	mode      runloop.Mode
	status    stream.Status
	delegate  stream.Delegate
	scheduled int
}

var (
	_ stream.InputStream  = (*mockStream)(nil)
	_ stream.OutputStream = (*mockStream)(nil)
)

func newMockStream(name string, log *callLog) *mockStream {
	return &mockStream{name: name, log: log}
}

func (m *mockStream) Schedule(loop *runloop.Loop, mode runloop.Mode) {
	m.mu.Lock()
	m.loop, m.mode = loop, mode
	m.scheduled++
	m.mu.Unlock()
	m.log.add(m.name + ".schedule")
}

func (m *mockStream) Open() error {
	m.mu.Lock()
	m.status = stream.StatusOpen
	m.mu.Unlock()
	m.log.add(m.name + ".open")
	return nil
}

func (m *mockStream) Close() error {
	m.mu.Lock()
	m.status = stream.StatusClosed
	m.mu.Unlock()
	m.log.add(m.name + ".close")
	return nil
}

func (m *mockStream) Name() string { return m.name }

func (m *mockStream) Status() stream.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockStream) Err() error { return nil }

func (m *mockStream) SetDelegate(d stream.Delegate) {
	m.mu.Lock()
	m.delegate = d
	m.mu.Unlock()
}

func (m *mockStream) Read([]byte) (int, error) { return 0, nil }

func (m *mockStream) HasBytesAvailable() bool { return false }

func (m *mockStream) Write(p []byte) (int, error) { return len(p), nil }

func (m *mockStream) scheduledOn() (*runloop.Loop, runloop.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop, m.mode
}

// mockSession records Connect/Close and announces Connect on a channel.
type mockSession struct {
	log       *callLog
	connected chan struct{}
	once      sync.Once

	mu  sync.Mutex
	in  stream.InputStream
	out stream.OutputStream
}

func newMockSession(log *callLog) *mockSession {
	return &mockSession{log: log, connected: make(chan struct{})}
}

func (m *mockSession) Connect(in stream.InputStream, out stream.OutputStream) error {
	m.mu.Lock()
	m.in, m.out = in, out
	m.mu.Unlock()
	m.log.add("session.connect")
	m.once.Do(func() { close(m.connected) })
	return nil
}

func (m *mockSession) Close() error {
	m.log.add("session.close")
	return nil
}

func (m *mockSession) endpoints() (stream.InputStream, stream.OutputStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.in, m.out
}

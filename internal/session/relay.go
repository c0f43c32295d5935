package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	sperr "streampump/internal/errors"
	"streampump/internal/metrics"
	"streampump/internal/stream"
	"streampump/util"
)

var (
	_ Session         = (*Relay)(nil)
	_ stream.Delegate = (*Relay)(nil)
)

// Relay is a Session that moves raw bytes: whatever arrives on the
// decoder input is written to a sink stream, and whatever is read from
// a local reader is written to the encoder output.
type Relay struct {
	id      string
	local   io.Reader
	sink    stream.OutputStream
	logger  *util.Logger
	metrics *metrics.Collector

	mu        sync.Mutex
	in        stream.InputStream
	out       stream.OutputStream
	connected bool
	closed    bool
	err       error

	done     chan struct{}
	doneOnce sync.Once
}

// NewRelay creates a Relay.  local may be nil for a receive-only
// session; sink may be nil to discard received bytes.
func NewRelay(local io.Reader, sink stream.OutputStream, logger *util.Logger, m *metrics.Collector) *Relay {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	id := uuid.NewString()
	return &Relay{
		id:      id,
		local:   local,
		sink:    sink,
		logger:  logger.Named("session " + util.ShortID(id)),
		metrics: m,
		done:    make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (r *Relay) ID() string { return r.id }

// Done is closed when the session ends: the remote side finished, a
// stream failed, or Close was called.
func (r *Relay) Done() <-chan struct{} { return r.done }

// Err returns the stream failure that ended the session, if any.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Connect opens in and out and starts relaying.
func (r *Relay) Connect(in stream.InputStream, out stream.OutputStream) error {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return sperr.ErrSessionClosed
	case r.connected:
		r.mu.Unlock()
		return sperr.ErrAlreadyConnected
	}
	r.connected = true
	r.in, r.out = in, out
	r.mu.Unlock()

	in.SetDelegate(r)
	out.SetDelegate(r)

	if err := in.Open(); err != nil {
		r.finish(err)
		return fmt.Errorf("relay connect: %w", err)
	}
	if err := out.Open(); err != nil {
		r.finish(err)
		return fmt.Errorf("relay connect: %w", err)
	}

	r.metrics.SessionConnected()
	r.logger.Verbose("connected (%s → %s)", in.Name(), out.Name())

	if r.local != nil {
		go r.pumpLocal(out)
	}
	return nil
}

// Close stops the relay.  The streams are left to their owner.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.logger.Debug("closed")
	r.finish(nil)
	return nil
}

// HandleEvent implements stream.Delegate.  It runs on the stream
// thread's run loop.
func (r *Relay) HandleEvent(s stream.Evented, ev stream.Event) {
	switch ev {
	case stream.EventOpenCompleted:
		r.logger.Debug("%s open", s.Name())
	case stream.EventHasBytesAvailable:
		if in, ok := s.(stream.InputStream); ok {
			r.drain(in)
		}
	case stream.EventEndEncountered:
		r.logger.Verbose("%s: remote side finished", s.Name())
		r.finish(nil)
	case stream.EventErrorOccurred:
		err := s.Err()
		r.logger.Error("%v", err)
		r.metrics.RecordError(fmt.Sprint(err))
		r.finish(err)
	}
}

func (r *Relay) drain(in stream.InputStream) {
	bp := util.GetBuf()
	defer util.PutBuf(bp)
	buf := *bp

	for {
		n, err := in.Read(buf)
		if n == 0 || err != nil {
			return
		}
		r.metrics.BytesReceived(int64(n))
		if r.sink == nil {
			continue
		}
		if _, err := r.sink.Write(buf[:n]); err != nil {
			r.logger.Warn("dropping %d bytes: %v", n, err)
		}
	}
}

// pumpLocal copies the local reader into out until either side fails
// or the session is closed.
func (r *Relay) pumpLocal(out stream.OutputStream) {
	bp := util.GetBuf()
	defer util.PutBuf(bp)
	buf := *bp

	for {
		n, err := r.local.Read(buf)
		if n > 0 {
			if r.isClosed() {
				return
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				r.logger.Debug("local pump stopped: %v", werr)
				return
			}
			r.metrics.BytesSent(int64(n))
		}
		if err != nil {
			if !util.IsEOF(err) {
				r.logger.Warn("reading local input: %v", err)
			}
			return
		}
	}
}

func (r *Relay) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Relay) finish(err error) {
	r.doneOnce.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.done)
	})
}

package stream

import (
	"io"
	"sync"

	sperr "streampump/internal/errors"
)

var _ OutputStream = (*Output)(nil)

// Output is an OutputStream over an io.Writer.  Writes go straight to
// the writer on the calling goroutine and are serialized.
type Output struct {
	base
	w   io.Writer
	wmu sync.Mutex
}

// NewOutput returns an unopened output stream writing to w.  c, if
// non-nil, is closed when the stream is closed.
func NewOutput(name string, w io.Writer, c io.Closer) *Output {
	return &Output{base: base{name: name, closer: c}, w: w}
}

// Open makes the stream writable.  The stream must have been scheduled
// first.
func (s *Output) Open() error {
	s.mu.Lock()
	wasOpen := s.status == StatusOpen
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if !wasOpen {
		s.post(s, EventOpenCompleted, nil)
		s.post(s, EventHasSpaceAvailable, nil)
	}
	return nil
}

// Write writes p to the underlying writer.  A failed write moves the
// stream to StatusError and notifies the delegate.
func (s *Output) Write(p []byte) (int, error) {
	s.mu.Lock()
	st, serr := s.status, s.err
	s.mu.Unlock()

	switch st {
	case StatusOpen:
	case StatusClosed:
		return 0, sperr.WrapStream(s.name, "write", sperr.ErrStreamClosed)
	case StatusError:
		return 0, serr
	default:
		return 0, sperr.WrapStream(s.name, "write", sperr.ErrStreamNotOpen)
	}

	s.wmu.Lock()
	n, err := s.w.Write(p)
	s.wmu.Unlock()
	if err == nil {
		return n, nil
	}

	wrapped := sperr.WrapStream(s.name, "write", err)
	s.mu.Lock()
	s.failLocked(wrapped)
	s.mu.Unlock()
	s.post(s, EventErrorOccurred, nil)
	return n, wrapped
}

// Close stops the stream.  Only the first call has any effect.
func (s *Output) Close() error {
	s.mu.Lock()
	did := s.closeLocked()
	s.mu.Unlock()

	if !did {
		return nil
	}
	return s.closeUnderlying()
}

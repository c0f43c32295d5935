package stream

import (
	"bytes"
	"io"

	sperr "streampump/internal/errors"
	"streampump/util"
)

var _ InputStream = (*Input)(nil)

// Input is an InputStream over an io.Reader.  Once open, a goroutine
// reads the reader and queues each chunk on the run loop, where it is
// appended to the stream's buffer just before the delegate hears
// EventHasBytesAvailable.
//
// Closing the stream closes its closer (if any), which is what unblocks
// the reader goroutine.  With a nil closer the goroutine lingers until
// the reader returns on its own.
type Input struct {
	base
	r   io.Reader
	buf bytes.Buffer
}

// NewInput returns an unopened input stream reading r.  c, if non-nil,
// is closed when the stream is closed.
func NewInput(name string, r io.Reader, c io.Closer) *Input {
	return &Input{base: base{name: name, closer: c}, r: r}
}

// Open starts reading.  The stream must have been scheduled first.
func (s *Input) Open() error {
	s.mu.Lock()
	wasOpen := s.status == StatusOpen
	if err := s.openLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if wasOpen {
		return nil
	}
	s.post(s, EventOpenCompleted, nil)
	go s.readLoop()
	return nil
}

// Read drains buffered bytes into p without blocking.
func (s *Input) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() > 0 {
		return s.buf.Read(p)
	}
	switch s.status {
	case StatusOpen:
		return 0, nil
	case StatusAtEnd:
		return 0, io.EOF
	case StatusError:
		return 0, s.err
	case StatusClosed:
		return 0, sperr.WrapStream(s.name, "read", sperr.ErrStreamClosed)
	default:
		return 0, sperr.WrapStream(s.name, "read", sperr.ErrStreamNotOpen)
	}
}

// HasBytesAvailable reports whether Read would return data.
func (s *Input) HasBytesAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len() > 0
}

// Close stops the stream.  Only the first call has any effect.
func (s *Input) Close() error {
	s.mu.Lock()
	did := s.closeLocked()
	s.buf.Reset()
	s.mu.Unlock()

	if !did {
		return nil
	}
	return s.closeUnderlying()
}

func (s *Input) readLoop() {
	for {
		bp := util.GetBuf()
		n, err := s.r.Read(*bp)
		if n > 0 {
			chunk := append([]byte(nil), (*bp)[:n]...)
			s.post(s, EventHasBytesAvailable, func() {
				s.mu.Lock()
				if s.status != StatusClosed {
					s.buf.Write(chunk)
				}
				s.mu.Unlock()
			})
		}
		util.PutBuf(bp)

		if err == nil {
			continue
		}
		if s.Status() == StatusClosed {
			return
		}
		if util.IsEOF(err) {
			s.post(s, EventEndEncountered, func() {
				s.mu.Lock()
				if s.status == StatusOpen {
					s.status = StatusAtEnd
				}
				s.mu.Unlock()
			})
			return
		}
		wrapped := sperr.WrapStream(s.name, "read", err)
		s.post(s, EventErrorOccurred, func() {
			s.mu.Lock()
			s.failLocked(wrapped)
			s.mu.Unlock()
		})
		return
	}
}

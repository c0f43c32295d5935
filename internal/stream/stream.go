// Package stream provides run-loop scheduled byte streams.
//
// A stream is opened and closed explicitly, and reports what happens to
// it (open completed, bytes available, end of stream, error) as events
// delivered to its Delegate on the run loop it has been scheduled on.
// Input streams read from an io.Reader on a background goroutine and
// hand the bytes to the loop; output streams write synchronously.
package stream

import (
	"streampump/internal/runloop"
)

// Event is something that happened to a stream.
type Event int

const (
	EventNone Event = iota
	EventOpenCompleted
	EventHasBytesAvailable
	EventHasSpaceAvailable
	EventErrorOccurred
	EventEndEncountered
)

func (e Event) String() string {
	switch e {
	case EventOpenCompleted:
		return "open-completed"
	case EventHasBytesAvailable:
		return "has-bytes-available"
	case EventHasSpaceAvailable:
		return "has-space-available"
	case EventErrorOccurred:
		return "error-occurred"
	case EventEndEncountered:
		return "end-encountered"
	default:
		return "none"
	}
}

// Status is the lifecycle state of a stream.
type Status int

const (
	StatusNotOpen Status = iota
	StatusOpen
	StatusAtEnd
	StatusClosed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotOpen:
		return "not-open"
	case StatusOpen:
		return "open"
	case StatusAtEnd:
		return "at-end"
	case StatusClosed:
		return "closed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Delegate receives stream events on the stream's run loop.
type Delegate interface {
	HandleEvent(s Evented, ev Event)
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(s Evented, ev Event)

// HandleEvent calls f(s, ev).
func (f DelegateFunc) HandleEvent(s Evented, ev Event) { f(s, ev) }

// Stream is the capability set the stream thread needs from every
// stream it manages.
type Stream interface {
	// Schedule binds the stream's event delivery to loop in mode.  It
	// must be called before the stream is expected to deliver events.
	Schedule(loop *runloop.Loop, mode runloop.Mode)

	// Open starts the stream.
	Open() error

	// Close stops the stream and releases its resources.  Calling it
	// more than once is harmless.
	Close() error
}

// Evented is a Stream that reports its state to a Delegate.
type Evented interface {
	Stream

	// Name identifies the stream in logs and errors.
	Name() string

	// Status returns the current lifecycle state.
	Status() Status

	// Err returns the error that moved the stream to StatusError.
	Err() error

	// SetDelegate installs the event receiver.
	SetDelegate(d Delegate)
}

// InputStream is a stream that yields bytes.
type InputStream interface {
	Evented

	// Read drains buffered bytes into p.  It never blocks: with nothing
	// buffered it returns 0 and a nil error while the stream is open.
	Read(p []byte) (int, error)

	// HasBytesAvailable reports whether Read would return data.
	HasBytesAvailable() bool
}

// OutputStream is a stream that accepts bytes.
type OutputStream interface {
	Evented
	Write(p []byte) (int, error)
}

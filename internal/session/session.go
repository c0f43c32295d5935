// Package session defines the protocol-level collaborator of a stream
// thread and provides Relay, a byte-level session that forwards traffic
// between the thread's streams and local I/O.
//
// A session is handed the decoder input and encoder output streams once,
// opens them itself, and reads and writes protocol bytes over them from
// the thread's run loop.  It never owns the streams' lifetime: closing
// a session only stops it from emitting, the thread closes the streams.
package session

import (
	"streampump/internal/stream"
)

// Session is the capability the stream thread drives.
type Session interface {
	// Connect attaches the session to its input and output streams and
	// opens them.  It is called exactly once per session.
	Connect(in stream.InputStream, out stream.OutputStream) error

	// Close stops the session.  It must be safe to call even if Connect
	// never ran or failed.
	Close() error
}

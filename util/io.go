package util

import (
	"errors"
	"io"
	"net"
	"os"
)

// DefaultBufSize is the standard buffer size for stream reads (32 KiB).
const DefaultBufSize = 32 * 1024

// IsClosedErr returns true for errors that are expected when a stream's
// underlying reader or connection is closed out from under a pending
// read during teardown.
func IsClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// IsEOF reports whether err marks a clean end of stream.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

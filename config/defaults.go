package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, environment variable loading and the packages that
// fall back to them.

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultRunLoopInterval is the stream thread's keep-alive timer
	// period.  It only needs to be short enough that the run loop never
	// runs dry; it does not drive any protocol traffic.
	DefaultRunLoopInterval = time.Second

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultDialAttempts is how many times connect mode tries to reach
	// the broker before giving up.
	DefaultDialAttempts = 3

	// DefaultDialBackoff is the delay before the second dial attempt.
	DefaultDialBackoff = 500 * time.Millisecond

	// DefaultMaxDialBackoff caps the delay between dial attempts.
	DefaultMaxDialBackoff = 10 * time.Second

	// DefaultStopTimeout bounds how long connect mode waits for the
	// stream thread's goroutine to exit after teardown.
	DefaultStopTimeout = 5 * time.Second
)

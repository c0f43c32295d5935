package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"streampump/config"
	"streampump/internal/metrics"
	"streampump/internal/retry"
	"streampump/internal/session"
	"streampump/internal/stream"
	"streampump/internal/streamthread"
	"streampump/internal/transport"
	"streampump/util"
)

// Stream names as they appear in logs and errors.
const (
	decoderInputName  = "decoder-input"
	encoderOutputName = "encoder-output"
	directOutputName  = "direct-output"
)

// ConnectMode dials the broker and pumps the connection on a stream
// thread until the context is cancelled or the remote side finishes.
type ConnectMode struct {
	Dialer  transport.Dialer
	Backoff *retry.Backoff // nil → a single attempt
	Network string
	Address string

	RunLoopInterval time.Duration
	// Retain stops the thread without disconnecting; the mode closes
	// the retained session and streams itself once the thread is gone.
	Retain      bool
	StopTimeout time.Duration

	Logger  *util.Logger
	Metrics *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *ConnectMode) stopTimeout() time.Duration {
	if m.StopTimeout > 0 {
		return m.StopTimeout
	}
	return config.DefaultStopTimeout
}

// Run dials the broker, starts a stream thread over the connection and
// tears it down when ctx is cancelled or the session ends.  It returns
// the stream failure that ended the session, if any.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	in, out := stream.NewConnPair(decoderInputName, encoderOutputName, conn)
	direct := stream.NewOutput(directOutputName, m.stdout(), nil)
	relay := session.NewRelay(m.stdin(), direct, m.Logger, m.Metrics)

	th := streamthread.New(&streamthread.Config{
		Session:         relay,
		DecoderInput:    in,
		EncoderOutput:   out,
		DirectOutput:    direct,
		RunLoopInterval: m.RunLoopInterval,
		Logger:          m.Logger,
		Metrics:         m.Metrics,
	})

	stopped := make(chan struct{})
	th.SetOnStop(func() { close(stopped) })
	th.Start()

	select {
	case <-ctx.Done():
		m.Logger.Verbose("interrupted, stopping")
	case <-relay.Done():
		m.Logger.Verbose("session %s ended", util.ShortID(relay.ID()))
	}

	th.CancelAndDisconnect(!m.Retain)
	<-stopped

	waitCtx, cancel := context.WithTimeout(context.Background(), m.stopTimeout())
	defer cancel()
	if err := th.Wait(waitCtx); err != nil {
		m.Logger.Warn("stream thread did not exit: %v", err)
	}

	if m.Retain {
		m.closeRetained(relay, in, out, direct)
	}

	m.Logger.Debug("metrics: %s", m.Metrics.JSON())
	return relay.Err()
}

// dial connects to the broker, retrying transient failures.
func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	b := m.Backoff
	if b == nil {
		b = &retry.Backoff{MaxAttempts: 1}
	}
	if b.OnRetry == nil {
		b.OnRetry = func(attempt int, err error, wait time.Duration) {
			m.Logger.Warn("attempt %d failed: %v (retrying in %s)",
				attempt, err, wait.Round(time.Millisecond))
		}
	}

	var conn net.Conn
	err := b.Do(ctx, func(attempt int) error {
		m.Metrics.DialAttempt()
		m.Logger.Verbose("connecting to %s (%s), attempt %d", m.Address, m.Network, attempt)

		c, err := m.Dialer.Dial(ctx, m.Network, m.Address)
		if err != nil {
			m.Metrics.RecordError(err.Error())
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

// closeRetained releases what a retaining teardown left open.
func (m *ConnectMode) closeRetained(sess session.Session, streams ...stream.Stream) {
	m.Logger.Verbose("closing retained connection")
	if err := sess.Close(); err != nil {
		m.Logger.Debug("session close: %v", err)
	}
	for _, s := range streams {
		if err := s.Close(); err != nil {
			m.Logger.Debug("stream close: %v", err)
		}
	}
}

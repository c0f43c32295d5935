package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperr "streampump/internal/errors"
)

// startEcho runs a TCP server that echoes every byte back.
func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				io.Copy(conn, conn) //nolint:errcheck
			}()
		}
	}()
	return ln.Addr().String()
}

func TestTCPDialer_Connect(t *testing.T) {
	addr := startEcho(t)

	d := &TCPDialer{Timeout: 2 * time.Second}
	conn, err := d.Dial(context.Background(), "tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("CONNECT"))
	require.NoError(t, err)

	buf := make([]byte, 7)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "CONNECT", string(buf))
}

func TestTCPDialer_ContextCancel(t *testing.T) {
	d := &TCPDialer{Timeout: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dial(ctx, "tcp", "127.0.0.1:1")
	require.Error(t, err)

	var ne *sperr.NetworkError
	assert.True(t, sperr.As(err, &ne))
}

func TestTCPDialer_RefusedIsRetryable(t *testing.T) {
	// Grab a free port, then close the listener so nothing answers.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	d := &TCPDialer{Timeout: time.Second}
	_, err = d.Dial(context.Background(), "tcp", addr)
	require.Error(t, err)
	assert.True(t, sperr.IsRetryable(err))
}

func TestTCPDialer_Close(t *testing.T) {
	d := &TCPDialer{}
	assert.NoError(t, d.Close())
}

func TestDialerInterface(t *testing.T) {
	var _ Dialer = (*TCPDialer)(nil)
	var _ Dialer = (*SSHDialer)(nil)
}

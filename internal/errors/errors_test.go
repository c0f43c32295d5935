package errors

import (
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "broker:1883", Err: io.EOF, Retryable: true},
			want: "dial broker:1883: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "write", Addr: "broker:1883", Err: fmt.Errorf("broken pipe")},
			want: "write broker:1883: broken pipe",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}
	assert.True(t, Is(err, io.EOF))
}

func TestSSHError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := WrapSSH("handshake", "bastion.example.com", 22, inner)
	assert.Equal(t, "ssh handshake bastion.example.com:22: connection refused", err.Error())
	assert.True(t, Is(err, inner))
}

func TestStreamError(t *testing.T) {
	err := WrapStream("encoder-output", "write", ErrStreamNotOpen)
	assert.Equal(t, "stream encoder-output: write: stream is not open", err.Error())
	assert.True(t, Is(err, ErrStreamNotOpen))

	var se *StreamError
	require.True(t, As(fmt.Errorf("relay: %w", err), &se))
	assert.Equal(t, "encoder-output", se.Stream)
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "value and hint",
			err:  ConfigError{Field: "keepalive", Value: "0s", Message: "must be positive", Hint: "try --keepalive 1s"},
			want: "config: --keepalive=0s: must be positive\n  hint: try --keepalive 1s",
		},
		{
			name: "missing value",
			err:  ConfigError{Field: "host", Message: "is required"},
			want: "config: --host: is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", fmt.Errorf("nope"), false},
		{"network retryable", &NetworkError{Retryable: true}, true},
		{"network permanent", &NetworkError{Retryable: false}, false},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("refused")}, true},
		{"read failure", &net.OpError{Op: "read", Net: "tcp", Err: fmt.Errorf("reset")}, false},
		{"dns temporary", &net.DNSError{Err: "servfail", IsTemporary: true}, true},
		{"dns permanent", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestWrap_DetectsRetryable(t *testing.T) {
	err := Wrap("dial", "broker:1883", &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("refused")})
	assert.True(t, err.Retryable)
	assert.True(t, IsRetryable(fmt.Errorf("connect: %w", err)))
}

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed(ErrStreamClosed))
	assert.True(t, IsClosed(WrapStream("x", "read", net.ErrClosed)))
	assert.True(t, IsClosed(io.ErrClosedPipe))
	assert.False(t, IsClosed(io.EOF))
	assert.False(t, IsClosed(nil))
}

func TestJoin(t *testing.T) {
	a, b := New("a"), New("b")
	joined := Join(a, b)
	assert.True(t, Is(joined, a))
	assert.True(t, Is(joined, b))
	assert.Nil(t, Unwrap(a))
}

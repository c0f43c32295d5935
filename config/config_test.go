package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1883", 1883, false},
		{"1", 1, false},
		{"65535", 65535, false},
		{"0", 0, true},
		{"65536", 0, true},
		{"-1", 0, true},
		{"mqtt", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		spec    string
		user    string
		host    string
		port    int
		wantErr bool
	}{
		{"admin@bastion.example.com:2222", "admin", "bastion.example.com", 2222, false},
		{"admin@bastion", "admin", "bastion", DefaultSSHPort, false},
		{"bastion:2200", "", "bastion", 2200, false},
		{"bastion", "", "bastion", DefaultSSHPort, false},
		{"admin@bastion:99999", "", "", 0, true},
		{"", "", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultRunLoopInterval, cfg.RunLoopInterval)
	assert.Equal(t, DefaultDialAttempts, cfg.DialAttempts)
	assert.Equal(t, DefaultConnTimeout, cfg.Timeout)
	assert.False(t, cfg.Retain)
	assert.Equal(t, time.Second, DefaultRunLoopInterval)
}

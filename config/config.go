// Package config defines the runtime configuration for streampump and
// provides helpers for parsing tunnel specifications and ports.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	sperr "streampump/internal/errors"
)

// Config holds every tuneable for a single streampump connection.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host      string
	Port      int // broker port
	LocalPort int // -p: local source port (0 = ephemeral)
	Timeout   time.Duration
	NoDNS     bool

	// DialAttempts is the total number of tries when dialing the broker.
	DialAttempts int

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Stream thread ────────────────────────────────────────────────
	RunLoopInterval time.Duration // keep-alive timer period
	Retain          bool          // stop pumping on exit without disconnecting

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	DryRun  bool
}

// Default returns a Config populated with the package defaults.
func Default() *Config {
	return &Config{
		Timeout:         DefaultConnTimeout,
		DialAttempts:    DefaultDialAttempts,
		RunLoopInterval: DefaultRunLoopInterval,
	}
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a numeric port in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Failures are reported as *errors.ConfigError.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &sperr.ConfigError{
			Field:   "host",
			Message: "broker hostname is required",
			Hint:    "usage: streampump [options] <host> <port>",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &sperr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "broker port must be in 1-65535",
			Hint:    "MQTT brokers usually listen on 1883 (plain) or 8883 (TLS)",
		}
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 {
		return &sperr.ConfigError{Field: "source-port", Value: c.LocalPort, Message: "must be in 0-65535"}
	}
	if c.Timeout < 0 {
		return &sperr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.RunLoopInterval <= 0 {
		return &sperr.ConfigError{
			Field:   "keepalive",
			Value:   c.RunLoopInterval,
			Message: "keep-alive interval must be positive",
			Hint:    fmt.Sprintf("the default is %s", DefaultRunLoopInterval),
		}
	}
	if c.DialAttempts < 1 {
		return &sperr.ConfigError{Field: "dial-attempts", Value: c.DialAttempts, Message: "must be at least 1"}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &sperr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}
	return nil
}

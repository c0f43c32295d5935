package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the STREAMPUMP_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// duration syntax ("250ms") or a plain number of seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed values override the existing value.  Call it BEFORE flag
// parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("STREAMPUMP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("STREAMPUMP_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := envInt("STREAMPUMP_SOURCE_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if v := envDuration("STREAMPUMP_TIMEOUT"); v > 0 {
		cfg.Timeout = v
	}
	if envBool("STREAMPUMP_NO_DNS") {
		cfg.NoDNS = true
	}
	if v := envInt("STREAMPUMP_DIAL_ATTEMPTS"); v > 0 {
		cfg.DialAttempts = v
	}

	// SSH tunnel
	if v := os.Getenv("STREAMPUMP_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("STREAMPUMP_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("STREAMPUMP_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("STREAMPUMP_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("STREAMPUMP_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("STREAMPUMP_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Stream thread
	if v := envDuration("STREAMPUMP_KEEPALIVE"); v > 0 {
		cfg.RunLoopInterval = v
	}
	if envBool("STREAMPUMP_RETAIN") {
		cfg.Retain = true
	}

	// Output
	if v := envInt("STREAMPUMP_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return 0
}

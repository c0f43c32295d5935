package core

import (
	"streampump/config"
	sperr "streampump/internal/errors"
	"streampump/internal/metrics"
	"streampump/internal/retry"
	"streampump/internal/transport"
	"streampump/util"
)

// Build constructs the Mode described by cfg.  The configuration is
// expected to have passed Validate.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	m, err := buildConnect(cfg, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildConnect(cfg *config.Config, logger *util.Logger) (*ConnectMode, error) {
	address, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS)
	if err != nil {
		return nil, err
	}

	return &ConnectMode{
		Dialer:          buildDialer(cfg, logger),
		Backoff:         buildBackoff(cfg),
		Network:         "tcp",
		Address:         address,
		RunLoopInterval: cfg.RunLoopInterval,
		Retain:          cfg.Retain,
		StopTimeout:     config.DefaultStopTimeout,
		Logger:          logger,
		Metrics:         metrics.New(),
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&transport.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}

	return &transport.TCPDialer{
		Timeout:   cfg.Timeout,
		LocalPort: cfg.LocalPort,
	}
}

// buildBackoff returns the dial retry policy.  SSH and configuration
// failures are not retried.
func buildBackoff(cfg *config.Config) *retry.Backoff {
	attempts := cfg.DialAttempts
	if attempts < 1 {
		attempts = config.DefaultDialAttempts
	}
	return &retry.Backoff{
		InitialDelay: config.DefaultDialBackoff,
		MaxDelay:     config.DefaultMaxDialBackoff,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
		Jitter:       true,
		Retryable:    sperr.IsRetryable,
	}
}

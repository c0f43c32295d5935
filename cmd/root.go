// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"streampump/config"
	"streampump/internal/core"
	"streampump/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X streampump/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// usageOut is where help and version text go.
var usageOut io.Writer = os.Stderr //nolint:gochecknoglobals

// Execute parses args and runs streampump.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("streampump", flag.ContinueOnError)
	fs.SetOutput(usageOut)

	// ── connection ───────────────────────────────────────────────
	fs.IntVarP(&cfg.LocalPort, "source-port", "p", cfg.LocalPort, "Local source port")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")
	fs.IntVar(&cfg.DialAttempts, "dial-attempts", cfg.DialAttempts, "Broker dial attempts before giving up")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Connect timeout in seconds")

	// ── stream thread ────────────────────────────────────────────
	fs.DurationVarP(&cfg.RunLoopInterval, "keepalive", "i", cfg.RunLoopInterval, "Run-loop keep-alive interval")
	fs.BoolVar(&cfg.Retain, "retain", cfg.Retain, "Stop pumping on exit without disconnecting first")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(usageOut, "streampump %s\n", version)
		return nil
	}

	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	if cfg.Verbose == 0 {
		cfg.Verbose = envVerbose
	}

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		logger.Info("configuration OK: %s:%d", cfg.Host, cfg.Port)
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional reads "<host> <port>".  Either may be omitted when
// already supplied through the environment.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(usageOut, `streampump – persistent broker stream pump v%s

Keeps one streaming connection to a broker pumping on a dedicated
run loop until interrupted or the broker hangs up.

Usage:
  streampump [options] <host> <port>
  streampump -T user@gateway [options] <host> <port>

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(usageOut, `
Environment:
  STREAMPUMP_HOST, STREAMPUMP_PORT, STREAMPUMP_KEEPALIVE, STREAMPUMP_RETAIN,
  STREAMPUMP_TUNNEL, STREAMPUMP_SSH_KEY, ... (flags take precedence)

Examples:
  streampump broker.local 1883                     Pump a broker connection
  echo "..." | streampump -v broker.local 1883     Send stdin to the broker
  streampump -T admin@bastion mqtt-internal 1883   Through an SSH gateway
  streampump -i 250ms --retain broker.local 1883   Faster keep-alive, retain on exit
`)
}

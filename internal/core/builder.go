package core

import (
	"io"
	"syscall"

	"evrelay/config"
	"evrelay/internal/envwire"
	"evrelay/internal/listener"
	"evrelay/internal/metrics"
	"evrelay/internal/pump"
	"evrelay/internal/resolve"
	"evrelay/internal/transport"
	"evrelay/util"
)

// Streams are the process-level inputs a Mode runs against.  cmd passes
// os.Environ(), os.Stdin and os.Stdout; tests pass pipes and synthetic
// environments.
type Streams struct {
	Env    []string
	Stdin  syscall.Conn
	Stdout syscall.Conn
}

// Build constructs the appropriate Mode from the given configuration.
func Build(cfg *config.Config, s Streams, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	stdout, err := pump.NewFileSink("stdout", s.Stdout)
	if err != nil {
		return nil, err
	}
	if cfg.Listen {
		return buildListen(cfg, stdout, logger, m), nil
	}
	return buildForward(cfg, s, stdout, logger, m)
}

// ── mode builders ────────────────────────────────────────────────────

func buildForward(cfg *config.Config, s Streams, stdout io.Writer, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	stdin, err := pump.NewFileSource("stdin", s.Stdin)
	if err != nil {
		return nil, err
	}

	duplex := SelectDuplex(s.Env, cfg.ModeVar, cfg.ModeValue)
	logger.Verbose("%s=%q selects %s", cfg.ModeVar, lookupOr(s.Env, cfg.ModeVar), duplex)

	return &Mission{
		Target:   resolve.Target{Host: cfg.Host, Port: cfg.Port},
		Env:      s.Env,
		Duplex:   duplex,
		Resolver: resolve.New(logger),
		Connector: &transport.Connector{
			Dialer:  &transport.TCPDialer{},
			Logger:  logger,
			Metrics: m,
		},
		Pump:    pump.New(logger),
		Stdin:   stdin,
		Stdout:  stdout,
		Logger:  logger,
		Metrics: m,
	}, nil
}

func buildListen(cfg *config.Config, stdout io.Writer, logger *util.Logger, m *metrics.Collector) Mode {
	var responder *listener.Responder
	if cfg.Execute != "" || cfg.Command != "" || len(cfg.Responders) > 0 {
		responder = &listener.Responder{
			Program: cfg.Execute,
			Command: cfg.Command,
			Routes:  cfg.Responders,
		}
	}
	return &listener.Mode{
		Address:   util.FormatAddr(cfg.Host, cfg.Port),
		KeepOpen:  cfg.KeepOpen,
		ModeVar:   cfg.ModeVar,
		ModeValue: cfg.ModeValue,
		Responder: responder,
		Stdout:    stdout,
		Logger:    logger,
		Metrics:   m,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

func lookupOr(env []string, key string) string {
	if v, ok := envwire.Lookup(env, key); ok {
		return v
	}
	return "<unset>"
}

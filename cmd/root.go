// Package cmd wires up the CLI flags and dispatches to the forwarder or
// the listener.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"evrelay/config"
	"evrelay/internal/core"
	evErrors "evrelay/internal/errors"
	"evrelay/internal/metrics"
	"evrelay/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X evrelay/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the forwarder (or, with -l, the
// listener).  A *errors.UsageError means the command line was wrong and
// no network activity took place.
func Execute(ctx context.Context, args []string) error {
	flags := config.Default()
	var showVersion, showHelp bool
	fs := newFlagSet(flags, &showVersion, &showHelp)

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		printUsage(os.Stderr, fs)
		return evErrors.Usagef("%v", err)
	}

	if showHelp {
		printUsage(os.Stdout, fs)
		return nil
	}
	if showVersion {
		fmt.Printf("evrelay %s\n", version)
		return nil
	}

	// ── positional arguments ─────────────────────────────────────
	rest := fs.Args()
	if len(rest) < 2 {
		printUsage(os.Stderr, fs)
		return evErrors.Usagef("host and port are required")
	}

	// ── layer configuration ──────────────────────────────────────
	cfg, ignored, err := load(fs, flags)
	if err != nil {
		return err
	}
	cfg.Host, cfg.Port = rest[0], rest[1]

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	for _, name := range ignored {
		logger.Verbose("ignoring listener setting %q from config file or environment", name)
	}

	if cfg.DryRun {
		fmt.Fprintf(os.Stderr, "evrelay: %s %s ok (mode %s=%s, listen=%t)\n",
			cfg.Host, cfg.Port, cfg.ModeVar, cfg.ModeValue, cfg.Listen)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	m := metrics.New()

	if cfg.Listen {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("stdin is a terminal; end the payload with ^D")
	}

	mode, err := core.Build(cfg, core.Streams{
		Env:    os.Environ(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}, logger, m)
	if err != nil {
		return err
	}

	err = mode.Run(ctx)
	if cfg.Stats {
		fmt.Fprintln(os.Stderr, m.JSON())
	}
	return err
}

// ExitCode maps the result of Execute to a process exit status: 0 on
// success, 2 for a usage error, 1 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case evErrors.IsUsage(err):
		return 2
	default:
		return 1
	}
}

// ── helpers ──────────────────────────────────────────────────────────

// newFlagSet binds every flag onto flags.  Only flags actually given on
// the command line are applied over the lower configuration layers.
func newFlagSet(flags *config.Config, showVersion, showHelp *bool) *flag.FlagSet {
	fs := flag.NewFlagSet("evrelay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// ── listener ─────────────────────────────────────────────────
	fs.BoolVarP(&flags.Listen, "listen", "l", false, "Listen for events instead of forwarding one")
	fs.BoolVarP(&flags.KeepOpen, "keep-open", "k", false, "Serve connections until interrupted (with -l)")
	fs.StringVarP(&flags.Execute, "exec", "e", "", "Answer queries with this program (with -l)")
	fs.StringVarP(&flags.Command, "command", "c", "", "Answer queries with this shell command (with -l)")
	fs.StringToStringVar(&flags.Responders, "respond", nil, "Answer the named query with a shell command, name=command (with -l, repeatable)")

	// ── mode selector ────────────────────────────────────────────
	fs.StringVar(&flags.ModeVar, "mode-var", config.DefaultModeVar, "Environment variable that selects the response phase")
	fs.StringVar(&flags.ModeValue, "mode-value", config.DefaultModeValue, "Value of --mode-var that enables the response phase")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&flags.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&flags.Stats, "stats", false, "Print transfer statistics as JSON on exit")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Validate configuration and exit")
	fs.StringVar(&flags.ConfigFile, "config", "", "TOML configuration file")

	fs.BoolVar(showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(showHelp, "help", "h", false, "Show this help")
	return fs
}

// load assembles the effective configuration: defaults, then the config
// file, then EVRELAY_* variables, then any flag given on the command
// line.
//
// Outside listen mode, listener-only settings are an error when given
// as flags.  When they come from the file or the environment they are
// dropped and returned as ignored, since the agent hands every handler
// the same environment.
func load(fs *flag.FlagSet, flags *config.Config) (*config.Config, []string, error) {
	cfg := config.Default()

	path := flags.ConfigFile
	if path == "" {
		path = config.ConfigFileFromEnv()
	}
	if path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return nil, nil, err
		}
		cfg.ConfigFile = path
	}

	config.LoadFromEnv(cfg)

	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		given[f.Name] = true
		switch f.Name {
		case "listen":
			cfg.Listen = flags.Listen
		case "keep-open":
			cfg.KeepOpen = flags.KeepOpen
		case "exec":
			cfg.Execute = flags.Execute
		case "command":
			cfg.Command = flags.Command
		case "respond":
			cfg.Responders = flags.Responders
		case "mode-var":
			cfg.ModeVar = flags.ModeVar
		case "mode-value":
			cfg.ModeValue = flags.ModeValue
		case "verbose":
			cfg.Verbose = flags.Verbose
		case "stats":
			cfg.Stats = flags.Stats
		case "dry-run":
			cfg.DryRun = flags.DryRun
		}
	})

	if cfg.Listen {
		return cfg, nil, nil
	}
	var ignored []string
	for _, name := range cfg.DropListenerSettings() {
		if given[name] {
			return nil, nil, &evErrors.ConfigError{
				Field:   name,
				Message: "only applies to listen mode",
				Hint:    "add -l to run a listener that answers queries",
			}
		}
		ignored = append(ignored, name)
	}
	return cfg, ignored, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `evrelay v%s

Forward an agent event (environment, then stdin) to a stream endpoint.
When %s=%s the endpoint's reply is copied to stdout.

Usage:
  evrelay [options] <host> <port>          Forward one event
  evrelay -l [options] <host> <port>       Listen for events

Options:
`, version, config.DefaultModeVar, config.DefaultModeValue)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprintf(w, `
Examples:
  serf agent -event-handler "evrelay 127.0.0.1 7000"
  evrelay -l -k -c uptime 127.0.0.1 7000
  evrelay -l -k --respond disk="df -h" 127.0.0.1 7000
  echo payload | SERF_EVENT=user evrelay agent.local 7000
`)
}

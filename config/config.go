// Package config defines the runtime configuration for evrelay and the
// layers it is assembled from: built-in defaults, an optional TOML
// file, EVRELAY_* environment variables, and command-line flags.
package config

import (
	"strings"

	evErrors "evrelay/internal/errors"
)

// Config holds every tuneable for a single evrelay invocation.
type Config struct {
	// ── Destination ──────────────────────────────────────────────────
	Host string
	Port string // numeric or service name

	// ── Mode selector ────────────────────────────────────────────────
	ModeVar   string // environment variable consulted for full duplex
	ModeValue string // value that enables the response phase

	// ── Listener (development peer) ──────────────────────────────────
	Listen   bool
	KeepOpen bool
	Execute    string            // -e: responder program
	Command    string            // -c: responder shell command
	Responders map[string]string // --respond: query name -> shell command

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Stats      bool
	DryRun     bool
	ConfigFile string
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		ModeVar:   DefaultModeVar,
		ModeValue: DefaultModeValue,
	}
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Missing positionals are a usage problem and are checked by cmd.
func (c *Config) Validate() error {
	if c.ModeVar == "" {
		return &evErrors.ConfigError{
			Field:   "mode-var",
			Message: "must not be empty",
			Hint:    "the default is " + DefaultModeVar,
		}
	}
	if strings.ContainsAny(c.ModeVar, "=\x00") {
		return &evErrors.ConfigError{
			Field:   "mode-var",
			Value:   c.ModeVar,
			Message: "must not contain '=' or NUL",
			Hint:    "use the variable name only, e.g. " + DefaultModeVar,
		}
	}
	if c.Verbose < 0 {
		return &evErrors.ConfigError{Field: "verbose", Value: c.Verbose, Message: "must not be negative"}
	}

	if c.Execute != "" && c.Command != "" {
		return &evErrors.ConfigError{
			Field:   "exec",
			Value:   c.Execute,
			Message: "-e and -c are mutually exclusive",
		}
	}
	for name, command := range c.Responders {
		if name == "" || strings.TrimSpace(command) == "" {
			return &evErrors.ConfigError{
				Field:   "respond",
				Value:   name + "=" + command,
				Message: "query name and command must both be set",
				Hint:    "e.g. --respond uptime=uptime",
			}
		}
	}
	return nil
}

// DropListenerSettings clears every listener-only setting and returns
// the flag names of those that were set.  The forwarder calls it so a
// shared config file or environment meant for a listener does not
// affect forwarding.
func (c *Config) DropListenerSettings() []string {
	var dropped []string
	if c.KeepOpen {
		dropped = append(dropped, "keep-open")
		c.KeepOpen = false
	}
	if c.Execute != "" {
		dropped = append(dropped, "exec")
		c.Execute = ""
	}
	if c.Command != "" {
		dropped = append(dropped, "command")
		c.Command = ""
	}
	if len(c.Responders) > 0 {
		dropped = append(dropped, "respond")
		c.Responders = nil
	}
	return dropped
}

// Package errors provides domain-specific error types for evrelay.
//
// Every failure on the forwarding path is terminal to the process.
// These types carry the context (operation, target, descriptor) that
// the final one-line diagnostic needs, and let cmd map a failure to an
// exit status without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNoCandidates = errors.New("no candidate endpoints")
	ErrInvalidFd    = errors.New("invalid descriptor")
)

// ── Structured error types ───────────────────────────────────────────

// ResolutionError is returned when a host/port pair cannot be mapped to
// any stream endpoint.  Err carries the resolver's own diagnostic.
type ResolutionError struct {
	Host string
	Port string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %s: %v", e.Host, e.Port, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConnectError is returned when every candidate endpoint failed.
type ConnectError struct {
	Target   string  // host:port as given by the user
	Attempts []error // one entry per candidate, in attempt order
}

func (e *ConnectError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("connect %s: %v", e.Target, ErrNoCandidates)
	}
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("connect %s: failed to connect host (%s)",
		e.Target, strings.Join(msgs, "; "))
}

// Unwrap exposes every attempt to [errors.Is] and [errors.As].
func (e *ConnectError) Unwrap() []error { return e.Attempts }

// ReadinessError is returned when the readiness wait itself fails.
type ReadinessError struct {
	Source string // "stdin", "socket", ...
	Err    error
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("%s select: %v", e.Source, e.Err)
}

func (e *ReadinessError) Unwrap() error { return e.Err }

// PumpError is returned when a readiness-confirmed read fails with
// anything other than "would block", or when the sink rejects a write.
type PumpError struct {
	Op     string // "read" or "write"
	Source string
	Err    error
}

func (e *PumpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *PumpError) Unwrap() error { return e.Err }

// NetworkError represents a failure in a plain network operation such
// as sending the environment block or shutting down the write half.
type NetworkError struct {
	Op   string // "send environment", "shutdown", ...
	Addr string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UsageError reports bad command-line invocation.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return "usage: " + e.Message }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// Usagef creates a UsageError from a format string.
func Usagef(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// ── Classification helpers ───────────────────────────────────────────

// IsUsage reports whether err stems from a bad invocation.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use evrelay/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

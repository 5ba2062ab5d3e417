package config

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultModeVar is the variable the agent sets to the event type.
	DefaultModeVar = "SERF_EVENT"

	// DefaultModeValue is the event type that expects a response.
	DefaultModeValue = "query"

	// EnvPrefix prefixes every evrelay setting read from the
	// environment.  These variables are forwarded like any other.
	EnvPrefix = "EVRELAY_"
)

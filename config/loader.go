package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the EVRELAY_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// ConfigFileFromEnv returns the config file named by EVRELAY_CONFIG.
func ConfigFileFromEnv() string {
	return os.Getenv(EnvPrefix + "CONFIG")
}

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "MODE_VAR"); v != "" {
		cfg.ModeVar = v
	}
	if v := os.Getenv(EnvPrefix + "MODE_VALUE"); v != "" {
		cfg.ModeValue = v
	}
	if v := envInt(EnvPrefix + "VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool(EnvPrefix + "STATS") {
		cfg.Stats = true
	}

	// Listener
	if envBool(EnvPrefix + "KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := os.Getenv(EnvPrefix + "RESPONDER"); v != "" {
		cfg.Command = v
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

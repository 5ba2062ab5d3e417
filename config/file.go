package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the TOML layout:
//
//	mode_var   = "SERF_EVENT"
//	mode_value = "query"
//	verbose    = 2
//	stats      = true
//
//	[listener]
//	keep_open = true
//	command   = "uptime"
//
//	[listener.responders]
//	disk = "df -h"
type fileConfig struct {
	ModeVar   string `toml:"mode_var"`
	ModeValue string `toml:"mode_value"`
	Verbose   int    `toml:"verbose"`
	Stats     bool   `toml:"stats"`

	Listener struct {
		KeepOpen bool   `toml:"keep_open"`
		Command  string `toml:"command"`
		Execute  string `toml:"exec"`

		Responders map[string]string `toml:"responders"`
	} `toml:"listener"`
}

// LoadFile overlays the TOML file at path onto cfg.  Only keys present
// in the file override cfg; unknown keys are an error so typos do not
// pass silently.
func LoadFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("mode_var") {
		cfg.ModeVar = strings.TrimSpace(raw.ModeVar)
	}
	if meta.IsDefined("mode_value") {
		cfg.ModeValue = raw.ModeValue
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("stats") {
		cfg.Stats = raw.Stats
	}
	if meta.IsDefined("listener", "keep_open") {
		cfg.KeepOpen = raw.Listener.KeepOpen
	}
	if meta.IsDefined("listener", "command") {
		cfg.Command = raw.Listener.Command
	}
	if meta.IsDefined("listener", "exec") {
		cfg.Execute = raw.Listener.Execute
	}
	if meta.IsDefined("listener", "responders") {
		cfg.Responders = raw.Listener.Responders
	}
	return nil
}

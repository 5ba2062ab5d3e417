package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evrelay.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
mode_var   = "EVENT_KIND"
mode_value = "request"
verbose    = 2
stats      = true

[listener]
keep_open = true
command   = "echo pong"

[listener.responders]
disk   = "df -h"
uptime = "uptime"
`)
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatal(err)
	}
	if cfg.ModeVar != "EVENT_KIND" || cfg.ModeValue != "request" {
		t.Errorf("mode selector = %s=%s", cfg.ModeVar, cfg.ModeValue)
	}
	if cfg.Verbose != 2 || !cfg.Stats {
		t.Errorf("Verbose=%d Stats=%v", cfg.Verbose, cfg.Stats)
	}
	if !cfg.KeepOpen || cfg.Command != "echo pong" {
		t.Errorf("listener = %v %q", cfg.KeepOpen, cfg.Command)
	}
	if len(cfg.Responders) != 2 || cfg.Responders["disk"] != "df -h" {
		t.Errorf("responders = %v", cfg.Responders)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "verbose = 1\n")
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatal(err)
	}
	if cfg.ModeVar != DefaultModeVar || cfg.ModeValue != DefaultModeValue {
		t.Errorf("defaults overridden: %s=%s", cfg.ModeVar, cfg.ModeValue)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"syntax", "mode_var = ", "load config"},
		{"unknown key", "mode_vra = \"X\"\n", "unknown keys: mode_vra"},
		{"wrong type", "verbose = \"loud\"\n", "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadFile(Default(), writeFile(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if err := LoadFile(Default(), filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

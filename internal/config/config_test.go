package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.DataDir != "/var/lib/smt/data" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.StateDir != "/var/lib/smt/state" {
		t.Errorf("state dir = %q", cfg.StateDir)
	}
	if cfg.Limits.UnknownSkip != 3 {
		t.Errorf("unknown_skip = %d, want 3", cfg.Limits.UnknownSkip)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_File(t *testing.T) {
	yaml := `
logging:
  level: debug
data_dir: /tmp/smt/data
state_dir: /tmp/smt/state
limits:
  unknown_skip: 5
plugins:
  disk:
    enabled: true
    interval: 90s
    settings:
      mounts: ["/", "/home"]
      critical: "95"
  cpu:
    enabled: false
`
	path := filepath.Join(t.TempDir(), "smt.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.DataDir != "/tmp/smt/data" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.Limits.UnknownSkip != 5 {
		t.Errorf("unknown_skip = %d, want 5", cfg.Limits.UnknownSkip)
	}

	disk := cfg.Plugin("disk")
	if !disk.Enabled {
		t.Error("disk plugin should be enabled")
	}
	if disk.Interval != 90*time.Second {
		t.Errorf("disk interval = %v, want 90s", disk.Interval)
	}
	if got := Strings(disk.Settings, "mounts"); len(got) != 2 || got[0] != "/" || got[1] != "/home" {
		t.Errorf("mounts = %v", got)
	}
	if got := String(disk.Settings, "critical", ""); got != "95" {
		t.Errorf("critical = %q, want 95", got)
	}

	if cfg.Plugin("cpu").Enabled {
		t.Error("cpu plugin should be disabled")
	}
	if cfg.Plugin("nonexistent").Enabled {
		t.Error("unmentioned plugin should default to disabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("plugins: [not: a: map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSettingHelpers_WrongTypes(t *testing.T) {
	settings := map[string]interface{}{
		"count": 3,
		"list":  []interface{}{"a", 1, "b"},
	}
	if got := String(settings, "count", "fallback"); got != "fallback" {
		t.Errorf("String on non-string = %q", got)
	}
	if got := Strings(settings, "list"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Strings skipping non-strings = %v", got)
	}
	if got := Strings(settings, "missing"); got != nil {
		t.Errorf("Strings on missing key = %v, want nil", got)
	}
}

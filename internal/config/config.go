// Package config loads the daemon configuration. Defaults live in code; an
// optional YAML file merges over them. Plugin-specific settings stay untyped
// and are interpreted by the plugin factories.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// PluginConfig configures one plugin instance. The map key in Config.Plugins
// is both the plugin name and the registered collector kind.
type PluginConfig struct {
	// Enabled controls whether the plugin is started. Plugins are disabled
	// by default and must be enabled explicitly.
	Enabled bool `koanf:"enabled"`

	// Interval overrides the plugin's default sampling interval.
	Interval time.Duration `koanf:"interval"`

	// Settings holds plugin-specific configuration.
	Settings map[string]interface{} `koanf:"settings"`
}

// Config is the full daemon configuration.
type Config struct {
	Logging struct {
		Level string `koanf:"level"`
	} `koanf:"logging"`

	DataDir  string `koanf:"data_dir"`
	StateDir string `koanf:"state_dir"`

	Limits struct {
		// UnknownSkip is the number of consecutive missing samples
		// tolerated before a datasource is classified unknown.
		UnknownSkip int `koanf:"unknown_skip"`
	} `koanf:"limits"`

	Plugins map[string]PluginConfig `koanf:"plugins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		DataDir:  "/var/lib/smt/data",
		StateDir: "/var/lib/smt/state",
		Plugins:  map[string]PluginConfig{},
	}
	cfg.Logging.Level = "info"
	cfg.Limits.UnknownSkip = 3
	return cfg
}

// Load returns the defaults merged with the YAML file at path. An empty
// path means defaults only; a path that cannot be read or parsed is a
// configuration error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Plugin returns the configuration block for the named plugin, zero when
// the plugin is not mentioned in the file.
func (c *Config) Plugin(name string) PluginConfig {
	return c.Plugins[name]
}

// ParseLevel maps a configured level string to a slog level, defaulting to
// info for anything unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String reads a string setting, falling back to def when absent or of the
// wrong type.
func String(settings map[string]interface{}, key, def string) string {
	if v, ok := settings[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Strings reads a list-of-strings setting. Non-string elements are skipped.
func Strings(settings map[string]interface{}, key string) []string {
	v, ok := settings[key]
	if !ok {
		return nil
	}
	var out []string
	switch list := v.(type) {
	case []string:
		out = append(out, list...)
	case []interface{}:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

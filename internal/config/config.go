// Package config loads engine configuration from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the engine configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error, silent.
	LogLevel string `toml:"log_level"`

	// PluginPaths are searched in order for plugin directories.
	PluginPaths []string `toml:"plugin_paths"`

	// Scripts are loaded at startup, after plugin pre-script init.
	Scripts []string `toml:"scripts"`

	// WatchPlugins enables plugin directory watching.
	WatchPlugins bool `toml:"watch_plugins"`

	// SQLiteLog configures the built-in SQLite log writer.
	SQLiteLog SQLiteLogConfig `toml:"sqlite_log"`
}

// SQLiteLogConfig configures the Kestrel::SQLiteLog plugin.
type SQLiteLogConfig struct {
	// Enabled registers the plugin at startup.
	Enabled bool `toml:"enabled"`

	// Path is the database file; ":memory:" keeps the log in memory.
	Path string `toml:"path"`
}

// FileName is the default configuration file name.
const FileName = "kestrel.toml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		PluginPaths: []string{"plugins"},
		SQLiteLog: SQLiteLogConfig{
			Path: "kestrel.db",
		},
	}
}

// Load reads the configuration file at path, applies defaults for unset
// fields, and then applies environment overrides. A missing file is not an
// error; defaults and environment alone are a valid configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// keep defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// DefaultPath returns the configuration file path: $KESTREL_CONFIG if set,
// otherwise kestrel.toml in the working directory.
func DefaultPath() string {
	if p := os.Getenv("KESTREL_CONFIG"); p != "" {
		return p
	}
	return FileName
}

// Environment variables override file settings.
const (
	envLogLevel   = "KESTREL_LOG_LEVEL"
	envPluginPath = "KESTREL_PLUGIN_PATH" // list separator like $PATH
	envSQLitePath = "KESTREL_SQLITE_PATH"
)

func (c *Config) applyEnv() {
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(envPluginPath); v != "" {
		c.PluginPaths = filepath.SplitList(v)
	}
	if v := os.Getenv(envSQLitePath); v != "" {
		c.SQLiteLog.Path = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "silent", "":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for _, s := range c.Scripts {
		if !strings.HasSuffix(s, ".lua") {
			return fmt.Errorf("script %q is not a .lua file", s)
		}
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.PluginPaths) != 1 || cfg.PluginPaths[0] != "plugins" {
		t.Errorf("PluginPaths = %v", cfg.PluginPaths)
	}
	if cfg.SQLiteLog.Enabled {
		t.Error("SQLiteLog should default to disabled")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.toml")
	src := `
log_level = "debug"
plugin_paths = ["/opt/kestrel/plugins", "plugins"]
scripts = ["boot.lua"]
watch_plugins = true

[sqlite_log]
enabled = true
path = ":memory:"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.PluginPaths) != 2 {
		t.Errorf("PluginPaths = %v", cfg.PluginPaths)
	}
	if len(cfg.Scripts) != 1 || cfg.Scripts[0] != "boot.lua" {
		t.Errorf("Scripts = %v", cfg.Scripts)
	}
	if !cfg.WatchPlugins {
		t.Error("WatchPlugins not set")
	}
	if !cfg.SQLiteLog.Enabled || cfg.SQLiteLog.Path != ":memory:" {
		t.Errorf("SQLiteLog = %+v", cfg.SQLiteLog)
	}
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel.toml")
	if err := os.WriteFile(path, []byte("log_level = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken TOML should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envLogLevel, "trace")
	t.Setenv(envPluginPath, "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv(envSQLitePath, "/tmp/k.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "trace" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.PluginPaths) != 2 || cfg.PluginPaths[0] != "/a" || cfg.PluginPaths[1] != "/b" {
		t.Errorf("PluginPaths = %v", cfg.PluginPaths)
	}
	if cfg.SQLiteLog.Path != "/tmp/k.db" {
		t.Errorf("SQLiteLog.Path = %q", cfg.SQLiteLog.Path)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("KESTREL_CONFIG", "")
	if got := DefaultPath(); got != FileName {
		t.Errorf("DefaultPath = %q", got)
	}
	t.Setenv("KESTREL_CONFIG", "/etc/kestrel/kestrel.toml")
	if got := DefaultPath(); got != "/etc/kestrel/kestrel.toml" {
		t.Errorf("DefaultPath = %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("bad log level accepted")
	}

	cfg = Default()
	cfg.Scripts = []string{"boot.py"}
	if err := cfg.Validate(); err == nil {
		t.Error("non-lua script accepted")
	}
}

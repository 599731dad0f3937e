package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/val"
)

func newStarted(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
		cfg.PluginPaths = nil
	}
	e, err := New(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return e
}

func TestQueueAndDrain(t *testing.T) {
	e := newStarted(t, nil)

	err := e.Interp().DoString(`
		hits = 0
		function net_ev(n) hits = hits + n end
		function get_hits() return hits end
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}

	if !e.Queue("net_ev", val.ValList{val.Int(2)}) {
		t.Fatal("event with a live handler was dropped")
	}
	e.Queue("net_ev", val.ValList{val.Int(3)})
	e.Drain()

	got, err := e.Interp().CallFunction("get_hits", nil)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if got.AsInt() != 5 {
		t.Errorf("hits = %d, want 5", got.AsInt())
	}
}

func TestQueueDropsUnhandled(t *testing.T) {
	e := newStarted(t, nil)
	if e.Queue("nobody_home", nil) {
		t.Error("event without handler should be dropped")
	}
	if e.Events().Pending() != 0 {
		t.Error("dropped event still pending")
	}
}

func TestScriptAPI(t *testing.T) {
	e := newStarted(t, nil)
	e.AdvanceTime(7.25)

	err := e.Interp().DoString(`
		seen = nil
		function probe(s) seen = s end
		function get_seen() return seen end

		queued = kestrel_queue("probe", "ping")
		kestrel_drain()
		now = kestrel_time()
		function get_queued() return queued end
		function get_now() return now end
	`)
	if err != nil {
		t.Fatalf("DoString: %v", err)
	}

	if got, _ := e.Interp().CallFunction("get_queued", nil); !got.AsBool() {
		t.Error("kestrel_queue reported failure")
	}
	if got, _ := e.Interp().CallFunction("get_seen", nil); got.AsString() != "ping" {
		t.Errorf("handler saw %s", got.Describe())
	}
	if got, _ := e.Interp().CallFunction("get_now", nil); got.AsDouble() != 7.25 {
		t.Errorf("kestrel_time = %s", got.Describe())
	}
}

func TestStartLoadsScripts(t *testing.T) {
	dir := t.TempDir()
	boot := filepath.Join(dir, "boot.lua")
	if err := os.WriteFile(boot, []byte(`function booted() return true end`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.PluginPaths = nil
	cfg.Scripts = []string{boot}
	e := newStarted(t, cfg)

	got, err := e.Interp().CallFunction("booted", nil)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if !got.AsBool() {
		t.Error("boot script did not run")
	}
}

func TestStartBadScript(t *testing.T) {
	cfg := config.Default()
	cfg.PluginPaths = nil
	cfg.Scripts = []string{filepath.Join(t.TempDir(), "missing.lua")}

	e, err := New(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Shutdown()
	if err := e.Start(); err == nil {
		t.Error("missing startup script should fail Start")
	}
}

func TestStartTwice(t *testing.T) {
	e := newStarted(t, nil)
	if err := e.Start(); err == nil {
		t.Error("second Start should fail")
	}
}

func TestSQLiteLogWiredIntoScripts(t *testing.T) {
	cfg := config.Default()
	cfg.PluginPaths = nil
	cfg.SQLiteLog.Enabled = true
	cfg.SQLiteLog.Path = ":memory:"
	e := newStarted(t, cfg)

	got, err := e.Interp().CallFunction("SQLiteLog::write", val.ValList{val.String("conn"), val.String("hello")})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !got.AsBool() {
		t.Error("write failed")
	}
	n, err := e.Interp().CallFunction("SQLiteLog::count", val.ValList{val.String("conn")})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n.AsInt() != 1 {
		t.Errorf("count = %d, want 1", n.AsInt())
	}
}

func TestDynamicPluginsActivated(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "filter")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		"name": "Demo::Filter",
		"description": "blocks files",
		"apiVersion": 3,
		"hooks": [{"hook": "LoadFile", "priority": 10}]
	}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	script := `function hook_load_file(file, ext) if ext == "blocked" then return 0 end return -1 end`
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.PluginPaths = []string{root}
	e := newStarted(t, cfg)

	if _, ok := e.Plugins().Lookup("Demo::Filter"); !ok {
		t.Fatal("dynamic plugin not registered")
	}
	if err := e.Interp().LoadFile("whatever.blocked"); err == nil {
		t.Error("plugin should veto the load")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	if _, err := New(cfg, logging.Nop()); err == nil {
		t.Error("invalid config accepted")
	}
}

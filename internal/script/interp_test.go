package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/val"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newInterp(t *testing.T, plugins ...plugin.Plugin) (*Interp, *plugin.Manager) {
	t.Helper()
	m := plugin.NewManager(nil)
	for _, p := range plugins {
		if err := m.RegisterPlugin(p); err != nil {
			t.Fatalf("RegisterPlugin() error = %v", err)
		}
	}
	i := New(m, nil)
	t.Cleanup(i.Close)
	return i, m
}

func TestLoadFileDefault(t *testing.T) {
	i, _ := newInterp(t)
	path := writeScript(t, t.TempDir(), "init.lua", `answer = 42`)

	if err := i.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if err := i.DoString(`assert(answer == 42)`); err != nil {
		t.Errorf("script state lost: %v", err)
	}
}

// loadPlugin intercepts file loading with a fixed result.
type loadPlugin struct {
	plugin.Base
	result int
	files  []string
}

func (p *loadPlugin) Configure() plugin.Configuration {
	return plugin.NewConfiguration("Test::Load", "load interceptor")
}

func (p *loadPlugin) HookLoadFile(file, ext string) int {
	p.files = append(p.files, file+"|"+ext)
	return p.result
}

func TestLoadFileClaimedByPlugin(t *testing.T) {
	lp := &loadPlugin{result: 1}
	i, _ := newInterp(t, lp)
	lp.EnableHook(plugin.HookLoadFile, 0)

	// The file does not exist; a claiming plugin must prevent the
	// interpreter from touching it.
	if err := i.LoadFile("/nonexistent/custom.dat"); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(lp.files) != 1 || lp.files[0] != "/nonexistent/custom.dat|dat" {
		t.Errorf("hook saw %v", lp.files)
	}
}

func TestLoadFileClaimedFailureIsFatal(t *testing.T) {
	lp := &loadPlugin{result: 0}
	i, _ := newInterp(t, lp)
	lp.EnableHook(plugin.HookLoadFile, 0)

	err := i.LoadFile("broken.dat")
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("LoadFile() error = %v, want ErrLoadFailed", err)
	}
}

func TestLoadQueued(t *testing.T) {
	lp := &loadPlugin{result: -1}
	i, m := newInterp(t, lp)

	path := writeScript(t, t.TempDir(), "extra.lua", `extra = true`)
	if !lp.RequestScriptLoad(path) {
		t.Fatal("RequestScriptLoad() = false")
	}

	if err := i.LoadQueued(); err != nil {
		t.Fatalf("LoadQueued() error = %v", err)
	}
	if err := i.DoString(`assert(extra == true)`); err != nil {
		t.Errorf("queued script not loaded: %v", err)
	}
	if files := m.ExtractScriptLoads(); len(files) != 0 {
		t.Errorf("loads not drained: %v", files)
	}
}

func TestCallFunctionDefault(t *testing.T) {
	i, _ := newInterp(t)
	if err := i.DoString(`function double(n) return n * 2 end`); err != nil {
		t.Fatal(err)
	}
	i.DeclareFunc("double", val.KindInt)

	got, err := i.CallFunction("double", val.ValList{val.Int(21)})
	if err != nil {
		t.Fatalf("CallFunction() error = %v", err)
	}
	if got.AsInt() != 42 {
		t.Errorf("double(21) = %s", got.Describe())
	}
}

// callPlugin replaces a script function call.
type callPlugin struct {
	plugin.Base
	result *val.Val
}

func (p *callPlugin) Configure() plugin.Configuration {
	return plugin.NewConfiguration("Test::Call", "call interceptor")
}

func (p *callPlugin) HookCallFunction(fn *val.Func, frame *val.Frame, args val.ValList) (bool, *val.Val) {
	return true, p.result
}

func TestCallFunctionHandledByPlugin(t *testing.T) {
	cp := &callPlugin{result: val.Int(7)}
	i, _ := newInterp(t, cp)
	cp.EnableHook(plugin.HookCallFunction, 0)
	i.DeclareFunc("lucky", val.KindInt)

	// No script implementation exists; the plugin's handled result must
	// short-circuit execution.
	got, err := i.CallFunction("lucky", nil)
	if err != nil {
		t.Fatalf("CallFunction() error = %v", err)
	}
	if got.AsInt() != 7 {
		t.Errorf("lucky() = %s", got.Describe())
	}
}

func TestCallFunctionUnknown(t *testing.T) {
	i, _ := newInterp(t)
	_, err := i.CallFunction("ghost", nil)
	if !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("CallFunction() error = %v, want ErrUnknownFunction", err)
	}
}

func TestHasHandler(t *testing.T) {
	i, _ := newInterp(t)
	if i.HasHandler("onthing") {
		t.Error("HasHandler() before definition")
	}
	if err := i.DoString(`function onthing() end`); err != nil {
		t.Fatal(err)
	}
	if !i.HasHandler("onthing") {
		t.Error("HasHandler() = false after definition")
	}
}

func TestConvertRoundValues(t *testing.T) {
	i, _ := newInterp(t)
	if err := i.DoString(`function echo(v) return v end`); err != nil {
		t.Fatal(err)
	}

	tests := []*val.Val{
		val.Bool(true),
		val.Int(5),
		val.Double(1.5),
		val.String("hello"),
		val.List(val.ValList{val.Int(1), val.String("a")}),
	}

	for _, in := range tests {
		got, err := i.CallFunction("echo", val.ValList{in})
		if err != nil {
			t.Fatalf("echo(%s) error = %v", in.Describe(), err)
		}
		if got.Describe() != in.Describe() {
			t.Errorf("echo(%s) = %s", in.Describe(), got.Describe())
		}
	}
}

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrelhq/kestrel/internal/plugin"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{
		"name": "Demo::Filter",
		"description": "filters things",
		"version": "1.2",
		"apiVersion": 3,
		"hooks": [{"hook": "LoadFile", "priority": 10}]
	}`)

	m, err := LoadManifestFromDir(dir)
	if err != nil {
		t.Fatalf("LoadManifestFromDir: %v", err)
	}
	if m.Name != "Demo::Filter" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want default init.lua", m.Main)
	}
	if got := m.VersionNumber(); got != (plugin.VersionNumber{Major: 1, Minor: 2}) {
		t.Errorf("VersionNumber = %v", got)
	}
	if m.Dir() != dir {
		t.Errorf("Dir = %q, want %q", m.Dir(), dir)
	}
	if want := filepath.Join(dir, "init.lua"); m.MainPath() != want {
		t.Errorf("MainPath = %q, want %q", m.MainPath(), want)
	}
	if got := m.String(); got != "Demo::Filter v1.2" {
		t.Errorf("String = %q", got)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifestFromDir(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr error
	}{
		{"missing name", Manifest{Main: "init.lua"}, ErrMissingName},
		{"no namespace", Manifest{Name: "Filter", Main: "init.lua"}, ErrInvalidName},
		{"bad version", Manifest{Name: "A::B", Version: "1", Main: "init.lua"}, ErrInvalidVersion},
		{"bad main", Manifest{Name: "A::B", Main: "init.py"}, ErrInvalidMain},
		{"bad hook", Manifest{Name: "A::B", Main: "init.lua", Hooks: []HookSpec{{Hook: "NoSuchHook"}}}, ErrUnknownHook},
		{"valid", Manifest{Name: "A::B", Version: "0.1", Main: "init.lua", Hooks: []HookSpec{{Hook: "QueueEvent", Priority: 5}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManifestUnsetVersion(t *testing.T) {
	m := Manifest{Name: "A::B", Main: "init.lua"}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.VersionNumber().Valid() {
		t.Error("empty version should be unset")
	}
	if got := m.String(); got != "A::B" {
		t.Errorf("String = %q", got)
	}
}

func TestManifestHookRegistrations(t *testing.T) {
	m := Manifest{
		Name: "A::B",
		Main: "init.lua",
		Hooks: []HookSpec{
			{Hook: "CallFunction", Priority: 7},
			{Hook: "MetaHookPost", Priority: -1},
		},
	}
	regs := m.hookRegistrations()
	if len(regs) != 2 {
		t.Fatalf("got %d registrations", len(regs))
	}
	if regs[0] != (plugin.HookRegistration{Hook: plugin.HookCallFunction, Priority: 7}) {
		t.Errorf("regs[0] = %+v", regs[0])
	}
	if regs[1] != (plugin.HookRegistration{Hook: plugin.MetaHookPost, Priority: -1}) {
		t.Errorf("regs[1] = %+v", regs[1])
	}
}

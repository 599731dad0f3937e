package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrelhq/kestrel/internal/logging"
)

func TestWatcherManifestChange(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "p")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w, err := Watch([]string{dir}, logging.Nop(), func(d string) { changes <- d })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeManifest(t, dir, `{"name": "A::B", "apiVersion": 3}`)

	select {
	case got := <-changes:
		if got != dir {
			t.Errorf("change dir = %q, want %q", got, dir)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherIgnoresScriptEdits(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "p")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w, err := Watch([]string{dir}, logging.Nop(), func(d string) { changes <- d })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	// Rewriting an existing script is not a manifest change.
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected change for %q", got)
	case <-time.After(500 * time.Millisecond):
	}
}

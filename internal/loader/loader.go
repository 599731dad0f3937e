package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
)

// Loader discovers plugins under a set of search paths and activates them
// with the plugin manager. Each plugin is a directory containing plugin.json
// and a Lua entry script.
type Loader struct {
	paths []string
	log   *logging.Logger
}

// New creates a loader searching the given paths in order. When the same
// plugin name appears in multiple paths, the first occurrence wins.
func New(paths []string, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{paths: paths, log: log.Sub("loader")}
}

// Discover scans the search paths and returns the manifests of all valid
// plugins, sorted by name. Directories without a manifest are skipped;
// directories with a broken manifest are logged and skipped.
func (l *Loader) Discover() []*Manifest {
	seen := make(map[string]*Manifest)
	for _, path := range l.paths {
		l.discoverInPath(path, seen)
	}

	out := make([]*Manifest, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *Loader) discoverInPath(path string, seen map[string]*Manifest) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn().Err(err).Str("path", path).Msg("cannot read plugin path")
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(path, entry.Name())
		m, err := LoadManifestFromDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			l.log.Warn().Err(err).Str("dir", dir).Msg("skipping plugin")
			continue
		}
		if _, dup := seen[m.Name]; dup {
			l.log.Debug().Str("name", m.Name).Str("dir", dir).Msg("shadowed by earlier path")
			continue
		}
		seen[m.Name] = m
	}
}

// Find returns the manifest of the named plugin, searching all paths.
func (l *Loader) Find(name string) (*Manifest, error) {
	for _, m := range l.Discover() {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("plugin not found: %s", name)
}

// Activate builds a script plugin from the manifest and registers it. The
// entry script runs later, during pre-script initialization.
func (l *Loader) Activate(mgr *plugin.Manager, m *Manifest) (*ScriptPlugin, error) {
	p := NewScriptPlugin(m, l.log)
	if err := mgr.ActivateDynamic(p, m.Dir(), filepath.Join(m.Dir(), ManifestName)); err != nil {
		return nil, fmt.Errorf("activating %s: %w", m.Name, err)
	}
	l.log.Info().Str("name", m.Name).Str("dir", m.Dir()).Msg("plugin activated")
	return p, nil
}

// ActivateAll discovers and activates every plugin found. A plugin that
// fails activation is logged and skipped; the remaining plugins still load.
func (l *Loader) ActivateAll(mgr *plugin.Manager) []*ScriptPlugin {
	var out []*ScriptPlugin
	for _, m := range l.Discover() {
		p, err := l.Activate(mgr, m)
		if err != nil {
			l.log.Error().Err(err).Str("name", m.Name).Msg("plugin rejected")
			continue
		}
		out = append(out, p)
	}
	return out
}

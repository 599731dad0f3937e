package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrelhq/kestrel/internal/plugin"
)

// Manifest describes a dynamically loadable plugin. Each plugin directory
// carries a plugin.json with its identity, the API version it was built
// against, and the hooks its entry script implements.
type Manifest struct {
	Name        string `json:"name"`        // Namespaced identifier (e.g. "Demo::Filter")
	Description string `json:"description"` // Short description
	Version     string `json:"version"`     // "major.minor", optional
	APIVersion  int    `json:"apiVersion"`  // Plugin API level the plugin targets
	Main        string `json:"main"`        // Entry script, default "init.lua"

	// Hooks the entry script implements, with priorities.
	Hooks []HookSpec `json:"hooks"`

	// Internal: plugin directory the manifest was loaded from.
	dir string
}

// HookSpec is one hook registration declared in a manifest.
type HookSpec struct {
	Hook     string `json:"hook"`
	Priority int    `json:"priority"`
}

// Validation errors.
var (
	ErrMissingName    = errors.New("manifest: name is required")
	ErrInvalidName    = errors.New("manifest: name must be namespaced, e.g. Demo::Filter")
	ErrInvalidVersion = errors.New("manifest: version must be major.minor")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua file")
	ErrUnknownHook    = errors.New("manifest: unknown hook")
)

// namePattern validates namespaced plugin names.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*::[A-Za-z][A-Za-z0-9_]*$`)

// versionPattern validates "major.minor" version strings.
var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// hookByName maps manifest hook names to hook types. Meta hooks are
// deliberately included; instrumentation plugins subscribe to them the same
// way.
var hookByName = map[string]plugin.HookType{
	"LoadFile":          plugin.HookLoadFile,
	"CallFunction":      plugin.HookCallFunction,
	"QueueEvent":        plugin.HookQueueEvent,
	"DrainEvents":       plugin.HookDrainEvents,
	"UpdateNetworkTime": plugin.HookUpdateNetworkTime,
	"ObjDtor":           plugin.HookObjDtor,
	"MetaHookPre":       plugin.MetaHookPre,
	"MetaHookPost":      plugin.MetaHookPost,
}

// LoadManifest loads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	m.dir = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestFromDir loads plugin.json from a plugin directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestName))
}

// ManifestName is the manifest file name inside a plugin directory.
const ManifestName = "plugin.json"

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
}

// Validate checks the manifest.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if m.Version != "" && !versionPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	for _, h := range m.Hooks {
		if _, ok := hookByName[h.Hook]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHook, h.Hook)
		}
	}
	return nil
}

// Dir returns the plugin directory the manifest was loaded from.
func (m *Manifest) Dir() string { return m.dir }

// MainPath returns the full path to the entry script.
func (m *Manifest) MainPath() string { return filepath.Join(m.dir, m.Main) }

// VersionNumber parses the manifest version into the plugin version type.
// An empty version yields the unset marker.
func (m *Manifest) VersionNumber() plugin.VersionNumber {
	if m.Version == "" {
		return plugin.UnsetVersion()
	}
	parts := strings.SplitN(m.Version, ".", 2)
	major, _ := strconv.Atoi(parts[0])
	minor, _ := strconv.Atoi(parts[1])
	return plugin.VersionNumber{Major: major, Minor: minor}
}

// hookRegistrations resolves the declared hooks.
func (m *Manifest) hookRegistrations() []plugin.HookRegistration {
	out := make([]plugin.HookRegistration, 0, len(m.Hooks))
	for _, h := range m.Hooks {
		out = append(out, plugin.HookRegistration{Hook: hookByName[h.Hook], Priority: h.Priority})
	}
	return out
}

// String renders the manifest identity.
func (m *Manifest) String() string {
	if m.Version == "" {
		return m.Name
	}
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}

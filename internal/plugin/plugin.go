package plugin

import (
	"fmt"
	"strings"

	"github.com/kestrelhq/kestrel/internal/val"
)

// Plugin is the interface all plugins implement. Embed Base to pick up
// identity bookkeeping and the default "not handled" hook bodies, then
// override Configure plus whichever lifecycle and hook methods the plugin
// needs. Lifecycle overrides must chain to the Base implementation.
type Plugin interface {
	// Configure is called once when the plugin is registered to query its
	// static configuration.
	Configure() Configuration

	// Name returns the plugin's namespaced name.
	Name() string

	// Description returns a short textual description.
	Description() string

	// Version returns the plugin's version. Versions are only meaningful
	// for dynamically loaded plugins.
	Version() VersionNumber

	// APIVersion returns the plugin API level the plugin was built
	// against. Only plugins matching the engine's current APIVersion are
	// activated.
	APIVersion() int

	// DynamicPlugin reports whether the plugin was loaded dynamically.
	DynamicPlugin() bool

	// PluginDirectory returns the base directory a dynamic plugin was
	// loaded from, and an empty string for static plugins.
	PluginDirectory() string

	// PluginPath returns the full path a dynamic plugin was loaded from,
	// and an empty string for static plugins.
	PluginPath() string

	// Components returns a snapshot of the components the plugin has
	// registered.
	Components() []Component

	// BuiltinItems returns the builtin items the plugin declares. It may
	// only be called after the item initialization phase has run.
	BuiltinItems() []BuiltinItem

	// EnabledHooks returns a snapshot of the plugin's enabled hooks with
	// their priorities.
	EnabledHooks() []HookRegistration

	// Describe renders the plugin's identity; in verbose mode it includes
	// the component and builtin item listings.
	Describe(verbose bool) string

	// InitPreScript is called early during startup, before any script is
	// parsed. Plugins typically enable hooks and register components here.
	InitPreScript()

	// InitPostScript is called late during startup, after scripts are
	// parsed.
	InitPostScript()

	// Done is called at shutdown.
	Done()

	// HookLoadFile is offered every input file the engine is about to
	// load, between pre- and post-script initialization. It returns 1 if
	// the plugin took over the file and loaded it successfully, 0 if it
	// took over the file but failed (the engine treats this as fatal for
	// that file), and -1 if the plugin is not interested.
	HookLoadFile(file, ext string) int

	// HookCallFunction is offered every script function call before the
	// interpreter executes it. Returning handled=true replaces the call;
	// the returned value is owned by the interpreter and must match the
	// function's declared return kind. Args may be mutated in place as
	// long as types are preserved.
	HookCallFunction(fn *val.Func, frame *val.Frame, args val.ValList) (handled bool, result *val.Val)

	// HookQueueEvent is offered every event about to be queued. Returning
	// true means the plugin assumed ownership of the event and the engine
	// must not queue it.
	HookQueueEvent(ev *val.Event) bool

	// HookDrainEvents is called whenever the event queue is drained.
	HookDrainEvents()

	// HookUpdateNetworkTime is called on every advance of network time.
	HookUpdateNetworkTime(t float64)

	// HookObjDtor is called when an object the plugin registered interest
	// in is destroyed. The reference identifies an already-destroyed
	// object and is usable only for identity comparison.
	HookObjDtor(obj val.ObjRef)

	// MetaHookPre is called just before a hook point executes, whether or
	// not any plugin implements the hook.
	MetaHookPre(hook HookType, args HookArgumentList)

	// MetaHookPost is called just after a hook point executed, carrying
	// the same args plus the effective result (void if unhandled).
	MetaHookPost(hook HookType, args HookArgumentList, result HookArgument)

	// base exposes the framework bookkeeping. It forces plugins to embed
	// Base and gives the Manager access to stamping and registration
	// internals.
	base() *Base
}

// HookRegistration is one (hook, priority) entry of a plugin.
type HookRegistration struct {
	Hook     HookType
	Priority int
}

// Base supplies the framework half of a plugin: identity storage, component
// and item registration, hook enablement, and default no-op hook bodies.
type Base struct {
	mgr   *Manager
	owner Plugin // the full plugin this Base is embedded in; set at registration

	cfg        Configuration
	configured bool

	dynamic bool
	baseDir string
	soPath  string

	components []Component
	items      []BuiltinItem
	itemsReady bool

	scriptLoads  []string
	postInitDone bool

	// Hook configuration as of startup; diagnostics print this rather than
	// the live registry, so later runtime changes stay invisible there.
	startupHooks []HookRegistration

	// Hooks enabled before registration (e.g. from a constructor) are
	// buffered until the manager attaches.
	pending []HookRegistration

	preChained  bool
	postChained bool
	doneChained bool
}

// Name implements Plugin.
func (b *Base) Name() string { return b.cfg.Name }

// Description implements Plugin.
func (b *Base) Description() string { return b.cfg.Description }

// Version implements Plugin.
func (b *Base) Version() VersionNumber { return b.cfg.Version }

// APIVersion implements Plugin.
func (b *Base) APIVersion() int { return b.cfg.apiVersion }

// DynamicPlugin implements Plugin.
func (b *Base) DynamicPlugin() bool { return b.dynamic }

// PluginDirectory implements Plugin.
func (b *Base) PluginDirectory() string { return b.baseDir }

// PluginPath implements Plugin.
func (b *Base) PluginPath() string { return b.soPath }

// Components implements Plugin. The returned slice is a copy; the components
// themselves remain owned by the plugin.
func (b *Base) Components() []Component {
	out := make([]Component, len(b.components))
	copy(out, b.components)
	return out
}

// BuiltinItems implements Plugin. Calling it before the item initialization
// phase has run is a contract violation.
func (b *Base) BuiltinItems() []BuiltinItem {
	if !b.itemsReady {
		panic(fmt.Sprintf("plugin %s: BuiltinItems called before item initialization", b.cfg.Name))
	}
	out := make([]BuiltinItem, len(b.items))
	copy(out, b.items)
	return out
}

// AddComponent registers a component. The plugin takes exclusive ownership.
func (b *Base) AddComponent(c Component) {
	b.components = append(b.components, c)
}

// AddBuiltinItem records a builtin item the plugin defines. The record is
// informational only; the plugin still registers the item itself with the
// interpreter. Entries are appended as given, without deduplication.
func (b *Base) AddBuiltinItem(id string, kind ItemKind) {
	b.items = append(b.items, NewBuiltinItem(id, kind))
}

// RequestScriptLoad queues a file for the engine to load at startup, as if it
// had been given on the command line. The file may only be queued for now and
// loaded later. It must not be called after InitPostScript has completed.
// Returns true if the request was queued.
func (b *Base) RequestScriptLoad(file string) bool {
	if b.postInitDone {
		panic(fmt.Sprintf("plugin %s: RequestScriptLoad after post-script initialization", b.cfg.Name))
	}
	if file == "" {
		return false
	}
	b.scriptLoads = append(b.scriptLoads, file)
	return true
}

// EnableHook enables a hook for this plugin. The corresponding hook method
// will be called as engine processing proceeds. If multiple plugins enable
// the same hook, priorities determine execution order, highest first; the
// order of equal priorities is unspecified. Re-enabling an enabled hook
// replaces its priority.
//
// Hooks may be enabled or disabled at any time, but the engine's printed
// plugin overview reflects only the state at startup.
func (b *Base) EnableHook(hook HookType, priority int) {
	if !hook.valid() {
		panic(fmt.Sprintf("plugin %s: EnableHook with invalid hook %d", b.cfg.Name, hook))
	}
	if b.mgr == nil {
		for i, r := range b.pending {
			if r.Hook == hook {
				b.pending[i].Priority = priority
				return
			}
		}
		b.pending = append(b.pending, HookRegistration{Hook: hook, Priority: priority})
		return
	}
	b.mgr.enableHook(b.self(), hook, priority)
}

// DisableHook disables a hook for this plugin.
func (b *Base) DisableHook(hook HookType) {
	if b.mgr == nil {
		for i, r := range b.pending {
			if r.Hook == hook {
				b.pending = append(b.pending[:i], b.pending[i+1:]...)
				return
			}
		}
		return
	}
	b.mgr.disableHook(b.self(), hook)
}

// EnabledHooks implements Plugin.
func (b *Base) EnabledHooks() []HookRegistration {
	if b.mgr == nil {
		out := make([]HookRegistration, len(b.pending))
		copy(out, b.pending)
		return out
	}
	return b.mgr.enabledHooks(b.self())
}

// RequestEvent registers interest in an event handler so that events for it
// reach HookQueueEvent even when the engine has no implementation for the
// handler.
func (b *Base) RequestEvent(handler string) {
	if b.mgr == nil {
		panic(fmt.Sprintf("plugin %s: RequestEvent before registration", b.cfg.Name))
	}
	b.mgr.requestEvent(handler)
}

// RequestObjDtor registers interest in the destruction of an object. When
// the object runtime tears the object down, HookObjDtor runs for every plugin
// with that hook enabled.
func (b *Base) RequestObjDtor(obj val.ObjRef) {
	if b.mgr == nil {
		panic(fmt.Sprintf("plugin %s: RequestObjDtor before registration", b.cfg.Name))
	}
	b.mgr.requestObjDtor(obj)
}

// InitPreScript implements Plugin. Overrides must chain to this.
func (b *Base) InitPreScript() { b.preChained = true }

// InitPostScript implements Plugin. Overrides must chain to this.
func (b *Base) InitPostScript() { b.postChained = true }

// Done implements Plugin. Overrides must chain to this.
func (b *Base) Done() { b.doneChained = true }

// HookLoadFile implements Plugin; the default is never interested.
func (b *Base) HookLoadFile(file, ext string) int { return -1 }

// HookCallFunction implements Plugin; the default never handles the call.
func (b *Base) HookCallFunction(fn *val.Func, frame *val.Frame, args val.ValList) (bool, *val.Val) {
	return false, nil
}

// HookQueueEvent implements Plugin; the default never claims the event.
func (b *Base) HookQueueEvent(ev *val.Event) bool { return false }

// HookDrainEvents implements Plugin; the default does nothing.
func (b *Base) HookDrainEvents() {}

// HookUpdateNetworkTime implements Plugin; the default does nothing.
func (b *Base) HookUpdateNetworkTime(t float64) {}

// HookObjDtor implements Plugin; the default does nothing.
func (b *Base) HookObjDtor(obj val.ObjRef) {}

// MetaHookPre implements Plugin; the default does nothing.
func (b *Base) MetaHookPre(hook HookType, args HookArgumentList) {}

// MetaHookPost implements Plugin; the default does nothing.
func (b *Base) MetaHookPost(hook HookType, args HookArgumentList, result HookArgument) {}

// Describe implements Plugin.
func (b *Base) Describe(verbose bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s - %s", b.cfg.Name, b.cfg.Description)
	if b.dynamic {
		if b.cfg.Version.Valid() {
			fmt.Fprintf(&sb, " (dynamic, version %s)", b.cfg.Version)
		} else {
			sb.WriteString(" (dynamic, no version information)")
		}
	} else {
		sb.WriteString(" (built-in)")
	}
	sb.WriteByte('\n')

	if !verbose {
		return sb.String()
	}

	for _, c := range b.components {
		fmt.Fprintf(&sb, "    %s\n", c.Describe())
	}
	if b.itemsReady {
		for _, it := range b.items {
			fmt.Fprintf(&sb, "    [%s] %s\n", it.Kind(), it.ID())
		}
	}
	hooks := b.startupHooks
	if hooks == nil {
		hooks = b.EnabledHooks()
	}
	for _, r := range hooks {
		fmt.Fprintf(&sb, "    [hook] %s (priority %d)\n", r.Hook, r.Priority)
	}
	return sb.String()
}

func (b *Base) base() *Base { return b }

// self returns the full plugin the Base is embedded in. It is set during
// registration.
func (b *Base) self() Plugin {
	if b.owner == nil {
		panic("plugin: Base used before registration")
	}
	return b.owner
}

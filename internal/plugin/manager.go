package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/val"
)

// Manager owns all registered plugins, the per-hook priority registries, and
// the dispatch protocol applied at every extension point. The engine holds a
// single Manager and drives it from its processing loop; dispatch is
// synchronous and single-threaded.
type Manager struct {
	log *logging.Logger

	plugins []Plugin
	byName  map[string]Plugin

	hooks     [numHooks][]hookEntry
	enableSeq int

	requestedEvents map[string]struct{}
	dtorInterest    map[val.ObjRef]struct{}
}

// hookEntry is one plugin's registration for one hook type. Entries are kept
// sorted by descending priority; seq (enable order) breaks ties so that
// ordering stays stable within a dispatch pass.
type hookEntry struct {
	p        Plugin
	priority int
	seq      int
}

// NewManager creates an empty plugin manager.
func NewManager(log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		log:             log.Sub("plugins"),
		byName:          make(map[string]Plugin),
		requestedEvents: make(map[string]struct{}),
		dtorInterest:    make(map[val.ObjRef]struct{}),
	}
}

// RegisterPlugin configures and registers a statically linked plugin. It
// queries the plugin's configuration exactly once, validates the mandatory
// name and the API version, and attaches the plugin to the manager's
// registries. A rejected plugin is never activated.
func (m *Manager) RegisterPlugin(p Plugin) error {
	b := p.base()
	if b.configured {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, b.cfg.Name)
	}

	cfg := p.Configure()
	if cfg.Name == "" {
		return ErrMissingName
	}
	if cfg.apiVersion != APIVersion {
		return fmt.Errorf("%w: %s expects %d, engine has %d",
			ErrAPIVersionMismatch, cfg.Name, cfg.apiVersion, APIVersion)
	}
	if _, taken := m.byName[cfg.Name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateName, cfg.Name)
	}

	b.cfg = cfg
	b.configured = true
	b.owner = p
	b.mgr = m

	m.plugins = append(m.plugins, p)
	m.byName[cfg.Name] = p

	// Flush hooks enabled before registration, e.g. from a constructor.
	pending := b.pending
	b.pending = nil
	for _, r := range pending {
		m.enableHook(p, r.Hook, r.Priority)
	}

	m.log.Info().
		Str("name", cfg.Name).
		Str("version", cfg.Version.String()).
		Msg("plugin registered")
	return nil
}

// ActivateDynamic registers a dynamically loaded plugin and stamps its
// loading origin. Directory and path are set exactly once, before the plugin
// is used.
func (m *Manager) ActivateDynamic(p Plugin, dir, path string) error {
	if err := m.RegisterPlugin(p); err != nil {
		return err
	}
	b := p.base()
	b.dynamic = true
	b.baseDir = dir
	b.soPath = path
	return nil
}

// Lookup returns the plugin registered under name.
func (m *Manager) Lookup(name string) (Plugin, bool) {
	p, ok := m.byName[name]
	return p, ok
}

// Plugins returns all registered plugins in registration order.
func (m *Manager) Plugins() []Plugin {
	out := make([]Plugin, len(m.plugins))
	copy(out, m.plugins)
	return out
}

// InitPreScript runs first-stage initialization on every plugin, in
// registration order, before any script is parsed. After a plugin's
// pre-script init its declared builtin items become visible.
func (m *Manager) InitPreScript() {
	for _, p := range m.plugins {
		b := p.base()
		b.preChained = false
		p.InitPreScript()
		if !b.preChained {
			panic(fmt.Sprintf("plugin %s: InitPreScript did not chain to Base", b.cfg.Name))
		}
		b.itemsReady = true
	}
}

// InitPostScript runs second-stage initialization on every plugin, after
// scripts are parsed. Once it returns, RequestScriptLoad is no longer
// permitted.
func (m *Manager) InitPostScript() {
	for _, p := range m.plugins {
		b := p.base()
		b.postChained = false
		p.InitPostScript()
		if !b.postChained {
			panic(fmt.Sprintf("plugin %s: InitPostScript did not chain to Base", b.cfg.Name))
		}
		b.postInitDone = true
		b.startupHooks = m.enabledHooks(p)
	}
}

// FinishPlugins shuts plugins down in reverse registration order.
func (m *Manager) FinishPlugins() {
	for i := len(m.plugins) - 1; i >= 0; i-- {
		p := m.plugins[i]
		b := p.base()
		b.doneChained = false
		p.Done()
		if !b.doneChained {
			panic(fmt.Sprintf("plugin %s: Done did not chain to Base", b.cfg.Name))
		}
	}
}

// ExtractScriptLoads drains the files plugins have queued through
// RequestScriptLoad, in registration order.
func (m *Manager) ExtractScriptLoads() []string {
	var files []string
	for _, p := range m.plugins {
		b := p.base()
		files = append(files, b.scriptLoads...)
		b.scriptLoads = nil
	}
	return files
}

// DescribePlugins renders the overview of all registered plugins.
func (m *Manager) DescribePlugins(verbose bool) string {
	var sb strings.Builder
	for _, p := range m.plugins {
		sb.WriteString(p.Describe(verbose))
	}
	return sb.String()
}

// enableHook records or updates p's registration for hook. Re-enabling
// replaces the priority; the original enable order still breaks priority
// ties.
func (m *Manager) enableHook(p Plugin, hook HookType, priority int) {
	entries := m.hooks[hook]
	for i, e := range entries {
		if e.p == p {
			entries[i].priority = priority
			m.sortHook(hook)
			return
		}
	}
	m.enableSeq++
	m.hooks[hook] = append(entries, hookEntry{p: p, priority: priority, seq: m.enableSeq})
	m.sortHook(hook)
	m.log.Debug().
		Str("plugin", p.Name()).
		Stringer("hook", hook).
		Int("priority", priority).
		Msg("hook enabled")
}

// disableHook removes p's registration for hook.
func (m *Manager) disableHook(p Plugin, hook HookType) {
	entries := m.hooks[hook]
	for i, e := range entries {
		if e.p == p {
			m.hooks[hook] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// enabledHooks returns p's registrations across all hook types.
func (m *Manager) enabledHooks(p Plugin) []HookRegistration {
	var out []HookRegistration
	for h := HookType(0); h < numHooks; h++ {
		for _, e := range m.hooks[h] {
			if e.p == p {
				out = append(out, HookRegistration{Hook: h, Priority: e.priority})
			}
		}
	}
	return out
}

func (m *Manager) sortHook(hook HookType) {
	entries := m.hooks[hook]
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
}

// snapshot copies the registry for one hook so that ordering stays fixed for
// the duration of a dispatch pass even if hook bodies mutate registrations.
func (m *Manager) snapshot(hook HookType) []hookEntry {
	entries := m.hooks[hook]
	out := make([]hookEntry, len(entries))
	copy(out, entries)
	return out
}

// requestEvent records interest in events for the named handler.
func (m *Manager) requestEvent(handler string) {
	m.requestedEvents[handler] = struct{}{}
}

// WantsEvent reports whether any plugin asked to see events for handler even
// without an engine-side implementation.
func (m *Manager) WantsEvent(handler string) bool {
	_, ok := m.requestedEvents[handler]
	return ok
}

// requestObjDtor records interest in an object's destruction.
func (m *Manager) requestObjDtor(obj val.ObjRef) {
	m.dtorInterest[obj] = struct{}{}
}

// DtorRequested reports whether any plugin registered interest in obj's
// destruction.
func (m *Manager) DtorRequested(obj val.ObjRef) bool {
	_, ok := m.dtorInterest[obj]
	return ok
}

// metaPre invokes MetaHookPre on every subscribed plugin.
func (m *Manager) metaPre(hook HookType, args HookArgumentList) {
	for _, e := range m.snapshot(MetaHookPre) {
		e.p.MetaHookPre(hook, args)
	}
}

// metaPost invokes MetaHookPost on every subscribed plugin.
func (m *Manager) metaPost(hook HookType, args HookArgumentList, result HookArgument) {
	for _, e := range m.snapshot(MetaHookPost) {
		e.p.MetaHookPost(hook, args, result)
	}
}

// HookLoadFile offers an input file to plugins before the engine loads it.
// Plugins run in priority order until one claims the file. The return value
// follows Plugin.HookLoadFile: 1 claimed and loaded, 0 claimed but failed
// (fatal for the file), -1 nobody interested.
func (m *Manager) HookLoadFile(file, ext string) int {
	args := HookArgumentList{StringArg(file), StringArg(ext)}
	m.metaPre(HookLoadFile, args)

	rc := -1
	for _, e := range m.snapshot(HookLoadFile) {
		rc = e.p.HookLoadFile(file, ext)
		if rc >= 0 {
			m.log.Debug().
				Str("plugin", e.p.Name()).
				Str("file", file).
				Int("result", rc).
				Msg("load claimed")
			break
		}
	}

	m.metaPost(HookLoadFile, args, IntArg(int64(rc)))
	return rc
}

// HookCallFunction offers a script function call to plugins before the
// interpreter executes it. Plugins run in priority order until one handles
// the call; a handled result is owned by the caller and replaces normal
// execution.
func (m *Manager) HookCallFunction(fn *val.Func, frame *val.Frame, callArgs val.ValList) (bool, *val.Val) {
	args := HookArgumentList{FuncArg(fn), FrameArg(frame), ValListArg(callArgs)}
	m.metaPre(HookCallFunction, args)

	var (
		handled bool
		result  *val.Val
	)
	for _, e := range m.snapshot(HookCallFunction) {
		handled, result = e.p.HookCallFunction(fn, frame, callArgs)
		if handled {
			break
		}
	}

	m.metaPost(HookCallFunction, args, FuncResultArg(handled, result))
	return handled, result
}

// HookQueueEvent offers an event to plugins before the engine queues it.
// Plugins run in priority order until one claims the event; a claiming
// plugin owns the event and the engine must not queue it.
func (m *Manager) HookQueueEvent(ev *val.Event) bool {
	args := HookArgumentList{EventArg(ev)}
	m.metaPre(HookQueueEvent, args)

	claimed := false
	for _, e := range m.snapshot(HookQueueEvent) {
		if e.p.HookQueueEvent(ev) {
			claimed = true
			break
		}
	}

	m.metaPost(HookQueueEvent, args, BoolArg(claimed))
	return claimed
}

// HookDrainEvents notifies every enabled plugin that the event queue is
// being drained.
func (m *Manager) HookDrainEvents() {
	m.metaPre(HookDrainEvents, nil)
	for _, e := range m.snapshot(HookDrainEvents) {
		e.p.HookDrainEvents()
	}
	m.metaPost(HookDrainEvents, nil, VoidArg())
}

// HookUpdateNetworkTime notifies every enabled plugin of an advance of
// network time.
func (m *Manager) HookUpdateNetworkTime(t float64) {
	args := HookArgumentList{DoubleArg(t)}
	m.metaPre(HookUpdateNetworkTime, args)
	for _, e := range m.snapshot(HookUpdateNetworkTime) {
		e.p.HookUpdateNetworkTime(t)
	}
	m.metaPost(HookUpdateNetworkTime, args, VoidArg())
}

// HookObjDtor notifies every enabled plugin that an object registered
// through RequestObjDtor has been destroyed. The reference is identity-only;
// the object is already gone. Interest in the object is dropped afterwards.
func (m *Manager) HookObjDtor(obj val.ObjRef) {
	args := HookArgumentList{PointerArg(obj)}
	m.metaPre(HookObjDtor, args)
	for _, e := range m.snapshot(HookObjDtor) {
		e.p.HookObjDtor(obj)
	}
	m.metaPost(HookObjDtor, args, VoidArg())
	delete(m.dtorInterest, obj)
}

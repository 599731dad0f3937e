package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/script"
	"github.com/kestrelhq/kestrel/internal/val"
)

// Lua globals a plugin script may define to receive hook callbacks. Only the
// hooks declared in the manifest are dispatched to the plugin; a declared
// hook whose function is missing falls back to the default behavior.
const (
	fnLoadFile          = "hook_load_file"
	fnCallFunction      = "hook_call_function"
	fnQueueEvent        = "hook_queue_event"
	fnDrainEvents       = "hook_drain_events"
	fnUpdateNetworkTime = "hook_update_network_time"
	fnObjDtor           = "hook_obj_dtor"
	fnMetaPre           = "meta_hook_pre"
	fnMetaPost          = "meta_hook_post"
)

// ScriptPlugin is a dynamically loaded plugin whose hooks are implemented by
// a Lua script. Each plugin runs in its own interpreter state, isolated from
// the engine's script interpreter and from other plugins.
type ScriptPlugin struct {
	plugin.Base

	manifest *Manifest
	log      *logging.Logger
	L        *lua.LState
}

// NewScriptPlugin creates a plugin from a validated manifest. The entry
// script is not executed until InitPreScript.
func NewScriptPlugin(m *Manifest, log *logging.Logger) *ScriptPlugin {
	p := &ScriptPlugin{
		manifest: m,
		log:      log.Sub("plugin." + m.Name),
	}
	for _, reg := range m.hookRegistrations() {
		p.EnableHook(reg.Hook, reg.Priority)
	}
	return p
}

// Configure returns the identity declared in the manifest.
func (p *ScriptPlugin) Configure() plugin.Configuration {
	cfg := plugin.NewDynamicConfiguration(p.manifest.Name, p.manifest.Description, p.manifest.APIVersion)
	cfg.Version = p.manifest.VersionNumber()
	return cfg
}

// InitPreScript starts the plugin's interpreter and runs its entry script.
// A script error is fatal for the plugin and panics; a broken plugin must
// not be silently half-loaded.
func (p *ScriptPlugin) InitPreScript() {
	p.Base.InitPreScript()

	p.L = lua.NewState()
	if err := p.L.DoFile(p.manifest.MainPath()); err != nil {
		panic(fmt.Sprintf("plugin %s: entry script failed: %v", p.manifest.Name, err))
	}
	p.log.Debug().Str("main", p.manifest.Main).Msg("plugin initialized")
}

// Done closes the plugin's interpreter.
func (p *ScriptPlugin) Done() {
	p.Base.Done()
	if p.L != nil {
		p.L.Close()
		p.L = nil
	}
}

// fn returns the named Lua global if the script defined it as a function.
func (p *ScriptPlugin) fn(name string) (*lua.LFunction, bool) {
	if p.L == nil {
		return nil, false
	}
	f, ok := p.L.GetGlobal(name).(*lua.LFunction)
	return f, ok
}

// call invokes a Lua hook function with nret return values. Errors in hook
// bodies are logged and treated as "hook declined".
func (p *ScriptPlugin) call(f *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, bool) {
	if err := p.L.CallByParam(lua.P{Fn: f, NRet: nret, Protect: true}, args...); err != nil {
		p.log.Error().Err(err).Msg("hook failed")
		return nil, false
	}
	out := make([]lua.LValue, 0, nret)
	for i := 0; i < nret; i++ {
		out = append(out, p.L.Get(-nret+i))
	}
	p.L.Pop(nret)
	return out, true
}

func (p *ScriptPlugin) HookLoadFile(file, ext string) int {
	f, ok := p.fn(fnLoadFile)
	if !ok {
		return p.Base.HookLoadFile(file, ext)
	}
	ret, ok := p.call(f, 1, lua.LString(file), lua.LString(ext))
	if !ok {
		return -1
	}
	if n, isNum := ret[0].(lua.LNumber); isNum {
		return int(n)
	}
	return -1
}

func (p *ScriptPlugin) HookCallFunction(fn *val.Func, frame *val.Frame, args val.ValList) (bool, *val.Val) {
	f, ok := p.fn(fnCallFunction)
	if !ok {
		return p.Base.HookCallFunction(fn, frame, args)
	}
	largs := make([]lua.LValue, 0, len(args)+1)
	largs = append(largs, lua.LString(fn.Name()))
	for _, a := range args {
		largs = append(largs, script.ToLua(p.L, a))
	}
	ret, ok := p.call(f, 2, largs...)
	if !ok {
		return false, nil
	}
	if handled, isBool := ret[0].(lua.LBool); !isBool || !bool(handled) {
		return false, nil
	}
	return true, script.FromLua(ret[1])
}

func (p *ScriptPlugin) HookQueueEvent(ev *val.Event) bool {
	f, ok := p.fn(fnQueueEvent)
	if !ok {
		return p.Base.HookQueueEvent(ev)
	}
	largs := make([]lua.LValue, 0, len(ev.Args())+1)
	largs = append(largs, lua.LString(ev.Handler()))
	for _, a := range ev.Args() {
		largs = append(largs, script.ToLua(p.L, a))
	}
	ret, ok := p.call(f, 1, largs...)
	if !ok {
		return false
	}
	claimed, isBool := ret[0].(lua.LBool)
	return isBool && bool(claimed)
}

func (p *ScriptPlugin) HookDrainEvents() {
	if f, ok := p.fn(fnDrainEvents); ok {
		p.call(f, 0)
	}
}

func (p *ScriptPlugin) HookUpdateNetworkTime(t float64) {
	if f, ok := p.fn(fnUpdateNetworkTime); ok {
		p.call(f, 0, lua.LNumber(t))
	}
}

func (p *ScriptPlugin) HookObjDtor(obj val.ObjRef) {
	if f, ok := p.fn(fnObjDtor); ok {
		p.call(f, 0, lua.LNumber(obj))
	}
}

func (p *ScriptPlugin) MetaHookPre(hook plugin.HookType, args plugin.HookArgumentList) {
	if f, ok := p.fn(fnMetaPre); ok {
		p.call(f, 0, lua.LString(hook.String()), lua.LString(args.Describe()))
	}
}

func (p *ScriptPlugin) MetaHookPost(hook plugin.HookType, args plugin.HookArgumentList, result plugin.HookArgument) {
	if f, ok := p.fn(fnMetaPost); ok {
		p.call(f, 0, lua.LString(hook.String()), lua.LString(args.Describe()), lua.LString(result.Describe()))
	}
}

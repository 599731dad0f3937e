// Package engine wires the plugin manager, the script interpreter, the event
// queue, and the object runtime into a running Kestrel instance, and drives
// their shared lifecycle.
package engine

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/kestrelhq/kestrel/internal/builtin/sqlitelog"
	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/event"
	"github.com/kestrelhq/kestrel/internal/loader"
	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/object"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/script"
	"github.com/kestrelhq/kestrel/internal/val"
)

// Engine owns all engine subsystems. It is single-threaded: all calls must
// come from the same goroutine, matching the cooperative execution model of
// the hook protocol.
type Engine struct {
	cfg *config.Config
	log *logging.Logger

	plugins *plugin.Manager
	interp  *script.Interp
	events  *event.Manager
	objects *object.Runtime

	started bool
}

// New assembles an engine from the configuration. Built-in plugins are
// registered and dynamic plugins are discovered and activated; nothing runs
// until Start.
func New(cfg *config.Config, log *logging.Logger) (*Engine, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{cfg: cfg, log: log.Sub("engine")}
	e.plugins = plugin.NewManager(log)

	if cfg.SQLiteLog.Enabled {
		if err := e.plugins.RegisterPlugin(sqlitelog.New(cfg.SQLiteLog.Path, log)); err != nil {
			return nil, fmt.Errorf("registering sqlite log: %w", err)
		}
	}

	loader.New(cfg.PluginPaths, log).ActivateAll(e.plugins)

	e.interp = script.New(e.plugins, log)
	e.events = event.NewManager(e.plugins, log, e.deliver, e.interp.HasHandler)
	e.objects = object.NewRuntime(e.plugins, log)
	e.registerScriptAPI()
	return e, nil
}

// Start runs plugin pre-script init, loads the configured scripts plus any
// loads the plugins requested, and finishes with post-script init. After
// Start the engine accepts events.
func (e *Engine) Start() error {
	if e.started {
		return fmt.Errorf("engine already started")
	}

	e.plugins.InitPreScript()

	for _, s := range e.cfg.Scripts {
		if err := e.interp.LoadFile(s); err != nil {
			return fmt.Errorf("loading script %s: %w", s, err)
		}
	}
	if err := e.interp.LoadQueued(); err != nil {
		return err
	}

	e.plugins.InitPostScript()
	e.started = true
	e.log.Info().Int("plugins", len(e.plugins.Plugins())).Msg("engine started")
	return nil
}

// Shutdown drains remaining events, winds down plugins in reverse
// registration order, and closes the interpreter.
func (e *Engine) Shutdown() {
	if e.started {
		e.events.Drain()
	}
	e.plugins.FinishPlugins()
	e.interp.Close()
	e.started = false
	e.log.Info().Msg("engine stopped")
}

// Queue enqueues an event for the named handler.
func (e *Engine) Queue(handler string, args val.ValList) bool {
	return e.events.Queue(val.NewEvent(handler, args))
}

// Drain delivers all queued events.
func (e *Engine) Drain() {
	e.events.Drain()
}

// AdvanceTime moves network time forward.
func (e *Engine) AdvanceTime(t float64) {
	e.events.AdvanceTime(t)
}

// Plugins exposes the plugin manager.
func (e *Engine) Plugins() *plugin.Manager { return e.plugins }

// Interp exposes the script interpreter.
func (e *Engine) Interp() *script.Interp { return e.interp }

// Events exposes the event queue.
func (e *Engine) Events() *event.Manager { return e.events }

// Objects exposes the object runtime.
func (e *Engine) Objects() *object.Runtime { return e.objects }

// deliver invokes the script handler for an event.
func (e *Engine) deliver(ev *val.Event) error {
	_, err := e.interp.CallFunction(ev.Handler(), ev.Args())
	return err
}

// registerScriptAPI exposes the engine to scripts: kestrel_queue enqueues an
// event, kestrel_drain delivers the queue, kestrel_time reads network time.
func (e *Engine) registerScriptAPI() {
	e.interp.Register("kestrel_queue", func(L *lua.LState) int {
		handler := L.CheckString(1)
		args := make(val.ValList, 0, L.GetTop()-1)
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, script.FromLua(L.Get(i)))
		}
		L.Push(lua.LBool(e.Queue(handler, args)))
		return 1
	})
	e.interp.Register("kestrel_drain", func(L *lua.LState) int {
		e.Drain()
		return 0
	})
	e.interp.Register("kestrel_time", func(L *lua.LState) int {
		L.Push(lua.LNumber(e.events.NetworkTime()))
		return 1
	})
}

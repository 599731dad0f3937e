package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/val"
)

var (
	// ErrLoadFailed indicates a plugin claimed an input file but could not
	// load it. The engine treats this as fatal for that file.
	ErrLoadFailed = errors.New("script: plugin failed to load file")

	// ErrUnknownFunction indicates a call to a function no script defines
	// and no plugin handled.
	ErrUnknownFunction = errors.New("script: unknown function")

	// ErrClosed indicates use of a closed interpreter.
	ErrClosed = errors.New("script: interpreter closed")
)

// Interp is the engine's script interpreter. It is not goroutine-safe; the
// engine drives it from its single processing loop, the same loop hooks are
// dispatched on.
type Interp struct {
	L       *lua.LState
	plugins *plugin.Manager
	log     *logging.Logger

	funcs  map[string]*val.Func
	depth  int
	closed bool
}

// New creates an interpreter bound to the plugin manager. Every file load
// and function call is offered to plugins first.
func New(plugins *plugin.Manager, log *logging.Logger) *Interp {
	if log == nil {
		log = logging.Nop()
	}
	return &Interp{
		L:       lua.NewState(),
		plugins: plugins,
		log:     log.Sub("script"),
		funcs:   make(map[string]*val.Func),
	}
}

// Close releases the interpreter.
func (i *Interp) Close() {
	if i.closed {
		return
	}
	i.closed = true
	i.L.Close()
}

// DeclareFunc records a function's declared return kind, used to describe
// the function at the call-interception boundary. Scripts provide the
// implementation as a global of the same name.
func (i *Interp) DeclareFunc(name string, ret val.Kind) *val.Func {
	fn := val.NewFunc(name, ret)
	i.funcs[name] = fn
	return fn
}

// HasHandler reports whether scripts define a global function with the given
// name. The event manager uses it to decide whether an event has an
// implementation.
func (i *Interp) HasHandler(name string) bool {
	if i.closed {
		return false
	}
	return i.L.GetGlobal(name).Type() == lua.LTFunction
}

// LoadFile loads one input file. The file is first offered to plugins
// enabled for the load-file hook, in priority order; the first claiming
// plugin settles the outcome. Only when no plugin is interested does the
// interpreter load the file itself.
func (i *Interp) LoadFile(path string) error {
	if i.closed {
		return ErrClosed
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch rc := i.plugins.HookLoadFile(path, ext); rc {
	case 1:
		i.log.Debug().Str("file", path).Msg("file loaded by plugin")
		return nil
	case 0:
		return fmt.Errorf("%w: %s", ErrLoadFailed, path)
	}

	if err := i.L.DoFile(path); err != nil {
		return fmt.Errorf("script: loading %s: %w", path, err)
	}
	i.log.Debug().Str("file", path).Msg("file loaded")
	return nil
}

// LoadQueued drains the files plugins queued through RequestScriptLoad and
// loads each of them. The engine calls this between pre- and post-script
// initialization.
func (i *Interp) LoadQueued() error {
	for _, f := range i.plugins.ExtractScriptLoads() {
		if err := i.LoadFile(f); err != nil {
			return err
		}
	}
	return nil
}

// CallFunction executes the named script function with the given arguments.
// The call is offered to plugins first; a handled result replaces execution
// and its value, owned by the caller from then on, is returned directly.
func (i *Interp) CallFunction(name string, args val.ValList) (*val.Val, error) {
	if i.closed {
		return nil, ErrClosed
	}

	fn, ok := i.funcs[name]
	if !ok {
		fn = val.NewFunc(name, val.KindVoid)
	}

	var frame *val.Frame
	if i.depth > 0 {
		frame = val.NewFrame(fn, i.depth)
	}

	handled, result := i.plugins.HookCallFunction(fn, frame, args)
	if handled {
		if result != nil && fn.ReturnKind() != val.KindVoid && result.Kind() != fn.ReturnKind() {
			i.log.Warn().
				Str("function", name).
				Stringer("declared", fn.ReturnKind()).
				Stringer("got", result.Kind()).
				Msg("hook result kind does not match declaration")
		}
		return result, nil
	}

	global := i.L.GetGlobal(name)
	if global.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	luaArgs := make([]lua.LValue, len(args))
	for n, a := range args {
		luaArgs[n] = ToLua(i.L, a)
	}

	i.depth++
	err := i.L.CallByParam(lua.P{
		Fn:      global,
		NRet:    1,
		Protect: true,
	}, luaArgs...)
	i.depth--
	if err != nil {
		return nil, fmt.Errorf("script: calling %s: %w", name, err)
	}

	ret := i.L.Get(-1)
	i.L.Pop(1)
	return FromLua(ret), nil
}

// DoString executes a chunk of script source. Intended for startup
// bootstrap and tests.
func (i *Interp) DoString(src string) error {
	if i.closed {
		return ErrClosed
	}
	return i.L.DoString(src)
}

// Register binds a Go function as a script-visible global, used by the
// engine and by plugins registering their declared builtins.
func (i *Interp) Register(name string, fn lua.LGFunction) {
	if i.closed {
		return
	}
	i.L.SetGlobal(name, i.L.NewFunction(fn))
}

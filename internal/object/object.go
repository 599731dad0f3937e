// Package object implements the engine's reference-counted object runtime.
// It is the sole source of destruction notifications: when the last
// reference to an object is released and a plugin registered interest in it,
// the runtime fires the object-destruction hook.
package object

import (
	"fmt"

	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/val"
)

// Obj is a reference-counted engine object. An object starts with one
// reference held by its creator.
type Obj struct {
	rt   *Runtime
	ref  val.ObjRef
	kind string
	refs int
}

// Runtime mints objects and delivers destruction notifications. It runs on
// the engine's single processing loop.
type Runtime struct {
	plugins *plugin.Manager
	log     *logging.Logger
	nextRef val.ObjRef
	live    int
}

// NewRuntime creates an object runtime bound to the plugin manager.
func NewRuntime(plugins *plugin.Manager, log *logging.Logger) *Runtime {
	if log == nil {
		log = logging.Nop()
	}
	return &Runtime{
		plugins: plugins,
		log:     log.Sub("objects"),
	}
}

// NewObj creates an object of the given kind with one reference.
func (r *Runtime) NewObj(kind string) *Obj {
	r.nextRef++
	r.live++
	return &Obj{rt: r, ref: r.nextRef, kind: kind, refs: 1}
}

// Live returns the number of live objects.
func (r *Runtime) Live() int {
	return r.live
}

// ObjRef returns the object's identity. The identity outlives the object
// but must never be resolved back to it after destruction.
func (o *Obj) ObjRef() val.ObjRef { return o.ref }

// Kind returns the object's kind tag.
func (o *Obj) Kind() string { return o.kind }

// Ref takes an additional reference.
func (o *Obj) Ref() *Obj {
	if o.refs <= 0 {
		panic(fmt.Sprintf("object: Ref on destroyed %s obj#%d", o.kind, o.ref))
	}
	o.refs++
	return o
}

// Unref releases one reference. Releasing the last reference destroys the
// object; if any plugin registered interest through RequestObjDtor, the
// destruction hook fires with the identity-only reference.
func (o *Obj) Unref() {
	if o.refs <= 0 {
		panic(fmt.Sprintf("object: Unref on destroyed %s obj#%d", o.kind, o.ref))
	}
	o.refs--
	if o.refs > 0 {
		return
	}

	o.rt.live--
	if o.rt.plugins.DtorRequested(o.ref) {
		o.rt.log.Trace().
			Uint64("obj", uint64(o.ref)).
			Str("kind", o.kind).
			Msg("destruction hook")
		o.rt.plugins.HookObjDtor(o.ref)
	}
}

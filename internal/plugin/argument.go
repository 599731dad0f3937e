package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelhq/kestrel/internal/val"
)

// ArgType identifies the payload carried by a HookArgument.
type ArgType int

const (
	// ArgVoid carries no payload.
	ArgVoid ArgType = iota
	// ArgBool carries a boolean.
	ArgBool
	// ArgDouble carries a floating point number.
	ArgDouble
	// ArgEvent carries a borrowed *val.Event.
	ArgEvent
	// ArgFrame carries a borrowed *val.Frame.
	ArgFrame
	// ArgFunc carries a borrowed *val.Func.
	ArgFunc
	// ArgFuncResult carries a (handled, value) pair. Unlike every other
	// reference payload the value is owned: receiving it as a hook result
	// transfers ownership to the receiver.
	ArgFuncResult
	// ArgInt carries an integer.
	ArgInt
	// ArgString carries a string.
	ArgString
	// ArgVal carries a borrowed *val.Val.
	ArgVal
	// ArgValList carries a borrowed val.ValList.
	ArgValList
	// ArgPointer carries an opaque reference, used for object identities.
	ArgPointer
)

// String returns a readable name for the argument type.
func (t ArgType) String() string {
	switch t {
	case ArgVoid:
		return "void"
	case ArgBool:
		return "bool"
	case ArgDouble:
		return "double"
	case ArgEvent:
		return "event"
	case ArgFrame:
		return "frame"
	case ArgFunc:
		return "func"
	case ArgFuncResult:
		return "func-result"
	case ArgInt:
		return "int"
	case ArgString:
		return "string"
	case ArgVal:
		return "val"
	case ArgValList:
		return "val-list"
	case ArgPointer:
		return "pointer"
	default:
		return "<unknown>"
	}
}

// HookArgument is a closed tagged variant able to carry any single argument a
// hook call may need, so that heterogeneous parameter sets can be passed to
// the meta hooks as a uniform list. Accessing the payload under the wrong tag
// is a programming fault and panics. All embedded references are borrowed from
// the dispatching hook point; the variant never outlives the call it
// describes.
type HookArgument struct {
	typ     ArgType
	boolv   bool
	doublev float64
	intv    int64
	str     string
	event   *val.Event
	frame   *val.Frame
	fn      *val.Func
	v       *val.Val
	vals    val.ValList
	ptr     val.ObjRef
	handled bool // FUNC_RESULT flag; value lives in v
}

// VoidArg returns the void argument, used as the result of hooks that do not
// yield one.
func VoidArg() HookArgument { return HookArgument{typ: ArgVoid} }

// BoolArg wraps a boolean.
func BoolArg(b bool) HookArgument { return HookArgument{typ: ArgBool, boolv: b} }

// DoubleArg wraps a floating point number.
func DoubleArg(d float64) HookArgument { return HookArgument{typ: ArgDouble, doublev: d} }

// IntArg wraps an integer.
func IntArg(i int64) HookArgument { return HookArgument{typ: ArgInt, intv: i} }

// StringArg wraps a string.
func StringArg(s string) HookArgument { return HookArgument{typ: ArgString, str: s} }

// EventArg wraps an event reference.
func EventArg(e *val.Event) HookArgument { return HookArgument{typ: ArgEvent, event: e} }

// FrameArg wraps a call frame reference.
func FrameArg(f *val.Frame) HookArgument { return HookArgument{typ: ArgFrame, frame: f} }

// FuncArg wraps a function descriptor reference.
func FuncArg(f *val.Func) HookArgument { return HookArgument{typ: ArgFunc, fn: f} }

// ValArg wraps a value reference.
func ValArg(v *val.Val) HookArgument { return HookArgument{typ: ArgVal, v: v} }

// ValListArg wraps a value list reference.
func ValListArg(l val.ValList) HookArgument { return HookArgument{typ: ArgValList, vals: l} }

// PointerArg wraps an object identity.
func PointerArg(r val.ObjRef) HookArgument { return HookArgument{typ: ArgPointer, ptr: r} }

// FuncResultArg wraps the outcome of a call interception. When handled is
// true, v is owned by whoever receives the argument as a hook result.
func FuncResultArg(handled bool, v *val.Val) HookArgument {
	return HookArgument{typ: ArgFuncResult, handled: handled, v: v}
}

// Type returns the argument's tag.
func (a HookArgument) Type() ArgType { return a.typ }

// AsBool returns the boolean payload. The tag must be ArgBool.
func (a HookArgument) AsBool() bool {
	a.mustBe(ArgBool)
	return a.boolv
}

// AsDouble returns the floating point payload. The tag must be ArgDouble.
func (a HookArgument) AsDouble() float64 {
	a.mustBe(ArgDouble)
	return a.doublev
}

// AsInt returns the integer payload. The tag must be ArgInt.
func (a HookArgument) AsInt() int64 {
	a.mustBe(ArgInt)
	return a.intv
}

// AsString returns the string payload. The tag must be ArgString.
func (a HookArgument) AsString() string {
	a.mustBe(ArgString)
	return a.str
}

// AsEvent returns the event payload. The tag must be ArgEvent.
func (a HookArgument) AsEvent() *val.Event {
	a.mustBe(ArgEvent)
	return a.event
}

// AsFrame returns the frame payload. The tag must be ArgFrame.
func (a HookArgument) AsFrame() *val.Frame {
	a.mustBe(ArgFrame)
	return a.frame
}

// AsFunc returns the function payload. The tag must be ArgFunc.
func (a HookArgument) AsFunc() *val.Func {
	a.mustBe(ArgFunc)
	return a.fn
}

// AsVal returns the value payload. The tag must be ArgVal.
func (a HookArgument) AsVal() *val.Val {
	a.mustBe(ArgVal)
	return a.v
}

// AsValList returns the value list payload. The tag must be ArgValList.
func (a HookArgument) AsValList() val.ValList {
	a.mustBe(ArgValList)
	return a.vals
}

// AsPointer returns the object identity payload. The tag must be ArgPointer.
func (a HookArgument) AsPointer() val.ObjRef {
	a.mustBe(ArgPointer)
	return a.ptr
}

// AsFuncResult returns the call interception outcome. The tag must be
// ArgFuncResult.
func (a HookArgument) AsFuncResult() (bool, *val.Val) {
	a.mustBe(ArgFuncResult)
	return a.handled, a.v
}

func (a HookArgument) mustBe(t ArgType) {
	if a.typ != t {
		panic(fmt.Sprintf("plugin: hook argument of type %s accessed as %s", a.typ, t))
	}
}

// Describe renders the argument for diagnostics. The output is deterministic
// but not machine-parseable.
func (a HookArgument) Describe() string {
	switch a.typ {
	case ArgVoid:
		return "<void>"
	case ArgBool:
		return strconv.FormatBool(a.boolv)
	case ArgDouble:
		return strconv.FormatFloat(a.doublev, 'g', -1, 64)
	case ArgInt:
		return strconv.FormatInt(a.intv, 10)
	case ArgString:
		return strconv.Quote(a.str)
	case ArgEvent:
		return a.event.Describe()
	case ArgFrame:
		return a.frame.Describe()
	case ArgFunc:
		return a.fn.Describe()
	case ArgVal:
		return a.v.Describe()
	case ArgValList:
		return a.vals.Describe()
	case ArgPointer:
		return fmt.Sprintf("obj#%d", uint64(a.ptr))
	case ArgFuncResult:
		if !a.handled {
			return "<not handled>"
		}
		return "handled: " + a.v.Describe()
	default:
		return "<unknown>"
	}
}

// HookArgumentList is the uniform argument list passed to meta hooks.
type HookArgumentList []HookArgument

// Describe renders the list for diagnostics.
func (l HookArgumentList) Describe() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.Describe()
	}
	return strings.Join(parts, ", ")
}

package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/kestrelhq/kestrel/internal/val"
)

// ToLua converts an engine value to a Lua value.
func ToLua(L *lua.LState, v *val.Val) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	switch v.Kind() {
	case val.KindVoid:
		return lua.LNil
	case val.KindBool:
		return lua.LBool(v.AsBool())
	case val.KindInt:
		return lua.LNumber(v.AsInt())
	case val.KindDouble:
		return lua.LNumber(v.AsDouble())
	case val.KindString:
		return lua.LString(v.AsString())
	case val.KindList:
		t := L.NewTable()
		for i, el := range v.AsList() {
			t.RawSetInt(i+1, ToLua(L, el))
		}
		return t
	default:
		return lua.LNil
	}
}

// FromLua converts a Lua value to an engine value. Tables are treated as
// arrays; table keys other than a contiguous 1..n range are dropped.
func FromLua(lv lua.LValue) *val.Val {
	switch v := lv.(type) {
	case lua.LBool:
		return val.Bool(bool(v))
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return val.Int(int64(f))
		}
		return val.Double(f)
	case lua.LString:
		return val.String(string(v))
	case *lua.LTable:
		n := v.Len()
		list := make(val.ValList, 0, n)
		for i := 1; i <= n; i++ {
			list = append(list, FromLua(v.RawGetInt(i)))
		}
		return val.List(list)
	default:
		return val.Void()
	}
}

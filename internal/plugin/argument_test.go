package plugin

import (
	"strings"
	"testing"

	"github.com/kestrelhq/kestrel/internal/val"
)

func TestHookArgumentTags(t *testing.T) {
	ev := val.NewEvent("x", nil)
	fn := val.NewFunc("f", val.KindVoid)
	fr := val.NewFrame(fn, 0)
	v := val.Int(1)
	list := val.ValList{v}

	tests := []struct {
		name string
		arg  HookArgument
		want ArgType
	}{
		{"void", VoidArg(), ArgVoid},
		{"bool", BoolArg(true), ArgBool},
		{"double", DoubleArg(2.5), ArgDouble},
		{"int", IntArg(7), ArgInt},
		{"string", StringArg("s"), ArgString},
		{"event", EventArg(ev), ArgEvent},
		{"frame", FrameArg(fr), ArgFrame},
		{"func", FuncArg(fn), ArgFunc},
		{"val", ValArg(v), ArgVal},
		{"val-list", ValListArg(list), ArgValList},
		{"pointer", PointerArg(val.ObjRef(9)), ArgPointer},
		{"func-result", FuncResultArg(true, v), ArgFuncResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.arg.Type(); got != tt.want {
				t.Errorf("Type() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHookArgumentAccessors(t *testing.T) {
	if !BoolArg(true).AsBool() {
		t.Error("AsBool() = false")
	}
	if got := IntArg(-3).AsInt(); got != -3 {
		t.Errorf("AsInt() = %d", got)
	}
	if got := DoubleArg(1.25).AsDouble(); got != 1.25 {
		t.Errorf("AsDouble() = %v", got)
	}
	if got := StringArg("abc").AsString(); got != "abc" {
		t.Errorf("AsString() = %q", got)
	}
	if got := PointerArg(val.ObjRef(4)).AsPointer(); got != 4 {
		t.Errorf("AsPointer() = %d", got)
	}

	handled, v := FuncResultArg(true, val.Bool(false)).AsFuncResult()
	if !handled {
		t.Error("AsFuncResult() handled = false")
	}
	if v.AsBool() {
		t.Error("AsFuncResult() value mismatch")
	}
}

func TestHookArgumentWrongTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("AsBool on int argument did not panic")
		}
	}()
	IntArg(1).AsBool()
}

func TestHookArgumentDescribe(t *testing.T) {
	tests := []struct {
		arg  HookArgument
		want string
	}{
		{VoidArg(), "<void>"},
		{BoolArg(false), "false"},
		{IntArg(10), "10"},
		{DoubleArg(0.5), "0.5"},
		{StringArg("f.lua"), `"f.lua"`},
		{PointerArg(val.ObjRef(3)), "obj#3"},
		{FuncResultArg(false, nil), "<not handled>"},
		{FuncResultArg(true, val.Int(2)), "handled: 2"},
	}

	for _, tt := range tests {
		if got := tt.arg.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestHookArgumentListDescribe(t *testing.T) {
	l := HookArgumentList{StringArg("a"), IntArg(1)}
	got := l.Describe()
	if !strings.Contains(got, `"a"`) || !strings.Contains(got, "1") {
		t.Errorf("Describe() = %q", got)
	}
}

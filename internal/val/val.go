package val

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of a script value.
type Kind int

const (
	// KindVoid is the zero value; it carries no payload.
	KindVoid Kind = iota
	// KindBool is a boolean value.
	KindBool
	// KindInt is a signed integer value.
	KindInt
	// KindDouble is a floating point value.
	KindDouble
	// KindString is a string value.
	KindString
	// KindList is a list of values.
	KindList
)

// String returns a readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Val is a script-level value. It is a tagged type: the accessor for a kind
// may only be called when Kind() reports that kind. Ownership is explicit;
// a Val handed across the hook boundary as a handled result belongs to the
// receiver.
type Val struct {
	kind Kind
	b    bool
	i    int64
	d    float64
	s    string
	list ValList
}

// Void returns the void value.
func Void() *Val { return &Val{kind: KindVoid} }

// Bool creates a boolean value.
func Bool(b bool) *Val { return &Val{kind: KindBool, b: b} }

// Int creates an integer value.
func Int(i int64) *Val { return &Val{kind: KindInt, i: i} }

// Double creates a floating point value.
func Double(d float64) *Val { return &Val{kind: KindDouble, d: d} }

// String creates a string value.
func String(s string) *Val { return &Val{kind: KindString, s: s} }

// List creates a list value. The list is not copied.
func List(vals ValList) *Val { return &Val{kind: KindList, list: vals} }

// Kind returns the value's kind.
func (v *Val) Kind() Kind { return v.kind }

// AsBool returns the boolean payload. The kind must be KindBool.
func (v *Val) AsBool() bool {
	v.mustBe(KindBool)
	return v.b
}

// AsInt returns the integer payload. The kind must be KindInt.
func (v *Val) AsInt() int64 {
	v.mustBe(KindInt)
	return v.i
}

// AsDouble returns the floating point payload. The kind must be KindDouble.
func (v *Val) AsDouble() float64 {
	v.mustBe(KindDouble)
	return v.d
}

// AsString returns the string payload. The kind must be KindString.
func (v *Val) AsString() string {
	v.mustBe(KindString)
	return v.s
}

// AsList returns the list payload. The kind must be KindList.
func (v *Val) AsList() ValList {
	v.mustBe(KindList)
	return v.list
}

func (v *Val) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("val: %s accessed as %s", v.kind, k))
	}
}

// Clone returns a deep copy of the value.
func (v *Val) Clone() *Val {
	if v == nil {
		return nil
	}
	c := *v
	if v.kind == KindList {
		c.list = v.list.Clone()
	}
	return &c
}

// Describe renders the value for diagnostics.
func (v *Val) Describe() string {
	if v == nil {
		return "<nil>"
	}
	switch v.kind {
	case KindVoid:
		return "<void>"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		return v.list.Describe()
	default:
		return "<unknown>"
	}
}

// ValList is an ordered list of values.
type ValList []*Val

// Clone returns a deep copy of the list.
func (l ValList) Clone() ValList {
	if l == nil {
		return nil
	}
	c := make(ValList, len(l))
	for i, v := range l {
		c[i] = v.Clone()
	}
	return c
}

// Describe renders the list for diagnostics.
func (l ValList) Describe() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range l {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Describe())
	}
	b.WriteByte(')')
	return b.String()
}

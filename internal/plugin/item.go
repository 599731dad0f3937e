package plugin

// ItemKind is the kind of a builtin script item.
type ItemKind int

const (
	// ItemFunction is a builtin function.
	ItemFunction ItemKind = iota + 1
	// ItemEvent is a builtin event.
	ItemEvent
	// ItemConstant is a builtin constant.
	ItemConstant
	// ItemGlobal is a builtin global.
	ItemGlobal
	// ItemType is a builtin type.
	ItemType
)

// String returns a readable name for the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemFunction:
		return "function"
	case ItemEvent:
		return "event"
	case ItemConstant:
		return "constant"
	case ItemGlobal:
		return "global"
	case ItemType:
		return "type"
	default:
		return "<unknown>"
	}
}

// BuiltinItem records a script-level item a plugin provides: a function,
// event, constant, global, or type. The record is purely informational; the
// plugin still registers the item itself with the interpreter. It is an
// immutable value type.
type BuiltinItem struct {
	id   string
	kind ItemKind
}

// NewBuiltinItem creates an item record. The id should be fully qualified.
func NewBuiltinItem(id string, kind ItemKind) BuiltinItem {
	return BuiltinItem{id: id, kind: kind}
}

// ID returns the item's fully qualified script-level name.
func (b BuiltinItem) ID() string { return b.id }

// Kind returns the item's kind.
func (b BuiltinItem) Kind() ItemKind { return b.kind }

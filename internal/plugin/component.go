package plugin

import "fmt"

// ComponentType tags the engine subsystem a component belongs to.
type ComponentType int

const (
	// ComponentAnalyzer is a protocol analyzer component.
	ComponentAnalyzer ComponentType = iota
	// ComponentReader is an input reader component.
	ComponentReader
	// ComponentWriter is a log writer component.
	ComponentWriter
)

// String returns a readable name for the component type.
func (t ComponentType) String() string {
	switch t {
	case ComponentAnalyzer:
		return "analyzer"
	case ComponentReader:
		return "reader"
	case ComponentWriter:
		return "writer"
	default:
		return "<unknown>"
	}
}

// Component is a self-contained capability a plugin contributes to an engine
// subsystem, such as a protocol analyzer or a log writer. A component
// registered through AddComponent is owned exclusively by its plugin.
type Component interface {
	// Name returns the component's name, unique within its subsystem.
	Name() string

	// Type returns the subsystem the component belongs to.
	Type() ComponentType

	// Describe renders the component for diagnostics.
	Describe() string
}

// BaseComponent supplies the common component fields. Concrete components
// embed it and add their subsystem-specific behavior.
type BaseComponent struct {
	name string
	typ  ComponentType
}

// NewBaseComponent creates the common part of a component.
func NewBaseComponent(typ ComponentType, name string) BaseComponent {
	return BaseComponent{name: name, typ: typ}
}

// Name implements Component.
func (c BaseComponent) Name() string { return c.name }

// Type implements Component.
func (c BaseComponent) Type() ComponentType { return c.typ }

// Describe implements Component.
func (c BaseComponent) Describe() string {
	return fmt.Sprintf("[%s] %s", c.typ, c.name)
}

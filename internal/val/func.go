package val

import "fmt"

// Func describes a script-level function as seen at the call-interception
// boundary. The descriptor is borrowed wherever it crosses a hook; the
// interpreter retains ownership.
type Func struct {
	name    string
	retKind Kind
}

// NewFunc creates a function descriptor with the given fully qualified name
// and declared return kind.
func NewFunc(name string, ret Kind) *Func {
	return &Func{name: name, retKind: ret}
}

// Name returns the fully qualified function name.
func (f *Func) Name() string { return f.name }

// ReturnKind returns the declared return kind.
func (f *Func) ReturnKind() Kind { return f.retKind }

// Describe renders the descriptor for diagnostics.
func (f *Func) Describe() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(): %s", f.name, f.retKind)
}

// Frame is the call frame active when a function call is intercepted. A nil
// frame denotes a top-level call.
type Frame struct {
	fn    *Func
	depth int
}

// NewFrame creates a frame for fn at the given call depth.
func NewFrame(fn *Func, depth int) *Frame {
	return &Frame{fn: fn, depth: depth}
}

// Func returns the function the frame belongs to.
func (f *Frame) Func() *Func { return f.fn }

// Depth returns the call depth, with 0 meaning top level.
func (f *Frame) Depth() int { return f.depth }

// Describe renders the frame for diagnostics.
func (f *Frame) Describe() string {
	if f == nil {
		return "<top>"
	}
	return fmt.Sprintf("frame[%d] %s", f.depth, f.fn.Describe())
}

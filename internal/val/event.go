package val

import (
	"fmt"

	"github.com/google/uuid"
)

// Event is a script event waiting to be queued or delivered. An event offered
// to plugins through the queue hook may be claimed; a claiming plugin assumes
// ownership and the engine forgets the event.
type Event struct {
	id      uuid.UUID
	handler string
	args    ValList
}

// NewEvent creates an event for the named handler with the given arguments.
// The event takes ownership of args.
func NewEvent(handler string, args ValList) *Event {
	return &Event{id: uuid.New(), handler: handler, args: args}
}

// ID returns the event's unique id.
func (e *Event) ID() uuid.UUID { return e.id }

// Handler returns the name of the event handler.
func (e *Event) Handler() string { return e.handler }

// Args returns the event arguments. Callers that mutate the list in place
// must preserve argument types.
func (e *Event) Args() ValList { return e.args }

// SetArgs replaces the event arguments, taking ownership of the new list.
func (e *Event) SetArgs(args ValList) { e.args = args }

// Describe renders the event for diagnostics.
func (e *Event) Describe() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%s", e.handler, e.args.Describe())
}

// ObjRef identifies an engine object for destruction notifications. Once the
// object has been torn down the reference is identity-only: it must not be
// resolved back to an object.
type ObjRef uint64

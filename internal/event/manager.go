// Package event implements the engine's event queue and network clock. It is
// the sole caller of the queue, drain, and network-time hooks.
package event

import (
	"github.com/kestrelhq/kestrel/internal/logging"
	"github.com/kestrelhq/kestrel/internal/plugin"
	"github.com/kestrelhq/kestrel/internal/val"
)

// DeliverFunc delivers a drained event to its handler, typically by calling
// into the script interpreter.
type DeliverFunc func(ev *val.Event) error

// HasHandlerFunc reports whether an implementation exists for a handler.
type HasHandlerFunc func(handler string) bool

// Manager owns the pending event queue and the simulated network clock. It
// runs on the engine's single processing loop; hooks dispatch synchronously
// from the same loop.
type Manager struct {
	plugins *plugin.Manager
	log     *logging.Logger

	deliver    DeliverFunc
	hasHandler HasHandlerFunc

	queue   []*val.Event
	netTime float64

	draining bool
}

// NewManager creates an event manager. deliver and hasHandler bind it to the
// interpreter; either may be nil, in which case events without a requesting
// plugin are dropped and delivery is a no-op.
func NewManager(plugins *plugin.Manager, log *logging.Logger, deliver DeliverFunc, hasHandler HasHandlerFunc) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		plugins:    plugins,
		log:        log.Sub("events"),
		deliver:    deliver,
		hasHandler: hasHandler,
	}
}

// Queue offers an event to plugins and, unless one of them claims it,
// appends it to the pending queue. A claiming plugin assumes ownership of
// the event; the manager forgets it. Events whose handler has no
// implementation are raised only when a plugin asked for them through
// RequestEvent; otherwise they are dropped before any hook fires.
//
// Returns true if the event was queued or claimed.
func (m *Manager) Queue(ev *val.Event) bool {
	implemented := m.hasHandler != nil && m.hasHandler(ev.Handler())
	if !implemented && !m.plugins.WantsEvent(ev.Handler()) {
		m.log.Trace().Str("handler", ev.Handler()).Msg("event dropped, no handler")
		return false
	}

	if m.plugins.HookQueueEvent(ev) {
		// The claiming plugin owns the event now.
		return true
	}

	m.queue = append(m.queue, ev)
	return true
}

// Drain notifies plugins and then delivers every pending event in queue
// order. Events queued while draining are delivered in the same pass.
func (m *Manager) Drain() {
	if m.draining {
		return
	}
	m.draining = true
	defer func() { m.draining = false }()

	m.plugins.HookDrainEvents()

	for len(m.queue) > 0 {
		ev := m.queue[0]
		m.queue = m.queue[1:]
		if m.deliver == nil {
			continue
		}
		if err := m.deliver(ev); err != nil {
			m.log.Error().
				Err(err).
				Str("handler", ev.Handler()).
				Msg("event delivery failed")
		}
	}
}

// Pending returns the number of queued events.
func (m *Manager) Pending() int {
	return len(m.queue)
}

// AdvanceTime moves the network clock forward and notifies plugins. Moves
// backwards are ignored; the clock is monotonic.
func (m *Manager) AdvanceTime(t float64) {
	if t <= m.netTime {
		return
	}
	m.netTime = t
	m.plugins.HookUpdateNetworkTime(t)
}

// NetworkTime returns the current network time.
func (m *Manager) NetworkTime() float64 {
	return m.netTime
}

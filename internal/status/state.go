package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huddleapp/huddle/internal/bus"
)

// State represents a realtime channel lifecycle state. Transport errors are
// transients: they are logged but never change the state by themselves, the
// transport's own close event is what drives the Closed transition.
type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Open         State = "OPEN"
	Closed       State = "CLOSED"
)

// validTransitions defines allowed state transitions. There is no
// automatic retry path: leaving Closed requires a fresh Connect call from
// the owning screen.
var validTransitions = map[State][]State{
	Disconnected: {Connecting},
	Connecting:   {Open, Disconnected, Closed},
	Open:         {Closed},
	Closed:       {Connecting},
}

// Machine tracks and enforces channel state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindChannelStateChanged,
			Timestamp: time.Now(),
			Payload: StateChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StateChange is the payload for channel state change events.
type StateChange struct {
	From State
	To   State
}

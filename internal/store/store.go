package store

import (
	"sync"
	"time"

	"github.com/huddleapp/huddle/internal/bus"
)

// AuthPhase models authentication as a two-phase state. Tokens found on
// disk grant Provisional immediately so the UI never flashes a signed-out
// screen; a successful sign-in response upgrades to Confirmed. A failed
// background refresh never downgrades a Provisional phase.
type AuthPhase string

const (
	AuthNone        AuthPhase = "unauthenticated"
	AuthProvisional AuthPhase = "provisional"
	AuthConfirmed   AuthPhase = "confirmed"
)

// State is one immutable snapshot of everything the screens render from.
// Mutators build a new snapshot and swap it; slices held by a snapshot are
// never written to after publication, so readers may keep them without
// copying and change detection can rely on reference identity.
type State struct {
	Auth        AuthPhase
	Initialized bool
	User        User

	SearchResults []SearchResult
	Requests      []Connection
	Friends       []FriendEntry

	Messages []Message
	// MessagesUsername names the conversation currently being viewed. It
	// guards message.send echoes for conversations that are not open.
	MessagesUsername string
}

// Authenticated reports whether the user is signed in, provisionally or not.
func (s State) Authenticated() bool {
	return s.Auth != AuthNone
}

// Store is the single process-wide state container. All reducers write to
// it and all screens read from it; every change is announced on the bus.
type Store struct {
	mu    sync.RWMutex
	state State
	bus   *bus.Bus
}

// New creates an empty store. One instance exists per running daemon.
func New(b *bus.Bus) *Store {
	return &Store{
		state: State{Auth: AuthNone},
		bus:   b,
	}
}

// Snapshot returns the current state. The returned value is safe to read
// without locking; its slices must not be mutated.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn to the current snapshot and swaps in the result, then
// announces the change on the bus. field names what changed and is carried
// as the event payload so subscribers can re-render selectively. fn
// reports whether anything changed; nothing is swapped or announced for a
// no-op, so reducers fed malformed payloads stay invisible to consumers.
func (s *Store) Update(field string, fn func(State) (State, bool)) {
	s.mu.Lock()
	next, changed := fn(s.state)
	if changed {
		s.state = next
	}
	s.mu.Unlock()

	if changed && s.bus != nil {
		s.bus.Publish(bus.Event{
			Kind:      bus.KindStoreUpdated,
			Timestamp: time.Now(),
			Payload:   field,
		})
	}
}

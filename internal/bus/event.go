package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the synchronization layer. Subscribers
// (screens) filter by namespace prefix, e.g. "store." or "channel.".
const (
	KindStoreUpdated        = "store.updated"
	KindChannelStateChanged = "channel.state_changed"
	KindChannelError        = "channel.error"
	KindChannelUnhandled    = "channel.unhandled_topic"
	KindSessionLoggedOut    = "session.logged_out"
)

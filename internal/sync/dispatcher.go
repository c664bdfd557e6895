package sync

import (
	"time"

	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/bus"
	"github.com/huddleapp/huddle/internal/store"
)

// Dispatcher folds inbound frames into the shared store, one reducer per
// topic. It runs on the channel's read loop, the single writer path for
// reducer-driven mutation.
type Dispatcher struct {
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher writing to the given store.
func NewDispatcher(st *store.Store, b *bus.Bus, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  st,
		bus:    b,
		logger: logger,
	}
}

// Dispatch parses one raw inbound message and applies its reducer.
// Malformed frames and topics outside the vocabulary are logged and
// dropped; neither is ever fatal and neither touches the store.
func (d *Dispatcher) Dispatch(raw []byte) {
	frame, err := DecodeFrame(raw)
	if err != nil {
		d.logger.Warn("malformed inbound frame", zap.Error(err))
		return
	}

	topic, ok := ParseTopic(frame.Source)
	if !ok {
		d.logger.Warn("unhandled topic", zap.String("source", frame.Source))
		if d.bus != nil {
			d.bus.Publish(bus.Event{
				Kind:      bus.KindChannelUnhandled,
				Timestamp: time.Now(),
				Payload:   frame.Source,
			})
		}
		return
	}

	d.Apply(topic, frame.Payload())
}

// Apply runs the reducer for topic against the current snapshot.
func (d *Dispatcher) Apply(topic Topic, payload []byte) {
	d.store.Update(string(topic), func(st store.State) (store.State, bool) {
		return reduce(topic, st, payload)
	})
}

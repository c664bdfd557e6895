// Package channel owns the single live realtime connection. It frames
// outbound topic-tagged messages and feeds every inbound frame to the
// dispatcher. There is no automatic reconnect: a dropped transport lands
// in Closed and stays there until the owning screen connects again.
package channel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/huddleapp/huddle/internal/bus"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/status"
	intsync "github.com/huddleapp/huddle/internal/sync"
	"github.com/huddleapp/huddle/internal/vault"
)

const writeTimeout = 5 * time.Second

// Channel multiplexes every topic flow over one websocket connection.
type Channel struct {
	cfg        *config.Config
	vault      *vault.Vault
	dispatcher *intsync.Dispatcher
	machine    *status.Machine
	bus        *bus.Bus
	logger     *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// New creates a channel. Nothing is dialed until Connect.
func New(cfg *config.Config, v *vault.Vault, d *intsync.Dispatcher, m *status.Machine, b *bus.Bus, logger *zap.Logger) *Channel {
	return &Channel{
		cfg:        cfg,
		vault:      v,
		dispatcher: d,
		machine:    m,
		bus:        b,
		logger:     logger,
	}
}

// Connect dials the realtime endpoint with the vaulted access token and
// starts the read loop. Without a token it stays Disconnected. Connect
// returns once the transport exists; it is not re-entrant while a
// connection is live — callers close first (the landing screen owns the
// connect/close lifecycle).
func (c *Channel) Connect(ctx context.Context) {
	tokens, ok := c.vault.Tokens()
	if !ok || tokens.Access == "" {
		c.logger.Info("connect skipped, no access token in vault")
		return
	}

	if err := c.machine.Transition(status.Connecting); err != nil {
		c.logger.Warn("connect refused", zap.Error(err))
		return
	}

	conn, _, err := websocket.Dial(ctx, c.cfg.SocketURL(tokens.Access), nil)
	if err != nil {
		c.logger.Error("websocket dial failed", zap.Error(err))
		c.publishError(err)
		_ = c.machine.Transition(status.Disconnected)
		return
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	_ = c.machine.Transition(status.Open)
	c.logger.Info("realtime channel open", zap.String("server", c.cfg.Server))

	// The request inbox is fetched on every successful connection; no
	// screen has to ask for it.
	c.Send(intsync.TopicRequestList, nil)

	go c.readLoop(loopCtx, conn)
}

// Send frames payload under topic and writes it. A send while the channel
// is not open is a logged no-op.
func (c *Channel) Send(topic intsync.Topic, payload map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.machine.Current() != status.Open {
		c.logger.Info("send dropped, channel not open", zap.String("topic", string(topic)))
		return
	}

	frame := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		frame[k] = v
	}
	frame["source"] = string(topic)

	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("frame encode failed", zap.String("topic", string(topic)), zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		c.logger.Error("frame write failed", zap.String("topic", string(topic)), zap.Error(err))
		c.publishError(err)
	}
}

// Close tears down the live connection. Closing with none is a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	c.conn = nil
	c.cancel = nil

	if c.machine.Current() == status.Open {
		_ = c.machine.Transition(status.Closed)
	}
	c.logger.Info("realtime channel closed")
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Transport close, local or remote, ends the loop. Errors
			// themselves are transients; the close is what moves state.
			c.logger.Info("read loop ended", zap.Error(err))
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.cancel = nil
			}
			if c.machine.Current() == status.Open {
				_ = c.machine.Transition(status.Closed)
			}
			c.mu.Unlock()
			return
		}
		c.dispatcher.Dispatch(data)
	}
}

func (c *Channel) publishError(err error) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(bus.Event{
		Kind:      bus.KindChannelError,
		Timestamp: time.Now(),
		Payload:   err.Error(),
	})
}

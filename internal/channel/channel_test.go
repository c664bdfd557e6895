package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gitlab.com/elixxir/ekv"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/huddleapp/huddle/internal/bus"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/status"
	"github.com/huddleapp/huddle/internal/store"
	intsync "github.com/huddleapp/huddle/internal/sync"
	"github.com/huddleapp/huddle/internal/vault"
)

type fixture struct {
	channel *Channel
	store   *store.Store
	vault   *vault.Vault
	machine *status.Machine
	bus     *bus.Bus
}

func newFixture(t *testing.T, server string) *fixture {
	t.Helper()
	b := bus.New()
	s := store.New(b)
	v := vault.NewWithKV(ekv.MakeMemstore(), zap.NewNop())
	m := status.NewMachine(b)
	d := intsync.NewDispatcher(s, b, zap.NewNop())
	cfg := &config.Config{Server: server}
	return &fixture{
		channel: New(cfg, v, d, m, b, zap.NewNop()),
		store:   s,
		vault:   v,
		machine: m,
		bus:     b,
	}
}

// wsServer runs handler for a single websocket connection and returns the
// host:port to dial.
func wsServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/" {
			t.Errorf("path = %q, want /chat/", r.URL.Path)
			return
		}
		if r.URL.Query().Get("token") != "acc" {
			t.Errorf("token = %q, want acc", r.URL.Query().Get("token"))
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func waitState(t *testing.T, ch <-chan bus.Event, want status.State) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case evt := <-ch:
			if change, ok := evt.Payload.(status.StateChange); ok && change.To == want {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for state %s", want)
		}
	}
}

func TestConnectSendsRequestListThenDispatches(t *testing.T) {
	firstFrame := make(chan map[string]any, 1)
	host := wsServer(t, func(conn *websocket.Conn) {
		defer conn.Close(websocket.StatusNormalClosure, "done")

		_, data, err := conn.Read(context.Background())
		if err != nil {
			t.Errorf("server read: %v", err)
			return
		}
		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Errorf("server decode: %v", err)
			return
		}
		firstFrame <- frame

		push := `{"source":"friends.list","data":[{"id":1,"friend":{"username":"bob"},"preview":"hi","updated":"2026-08-01T00:00:00Z"}]}`
		_ = conn.Write(context.Background(), websocket.MessageText, []byte(push))
	})

	f := newFixture(t, host)
	f.vault.SetTokens(&store.TokenPair{Access: "acc", Refresh: "ref"})

	storeCh, unsub := f.bus.Subscribe("store.", 10)
	defer unsub()

	f.channel.Connect(context.Background())
	defer f.channel.Close()

	if got := f.machine.Current(); got != status.Open {
		t.Fatalf("state = %s, want OPEN", got)
	}

	select {
	case frame := <-firstFrame:
		if frame["source"] != "request.list" {
			t.Errorf("first frame = %v, want request.list", frame)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received a frame")
	}

	select {
	case <-storeCh:
		if friends := f.store.Snapshot().Friends; len(friends) != 1 || friends[0].Friend.Username != "bob" {
			t.Errorf("friends = %+v", friends)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pushed frame never reached the store")
	}
}

func TestConnectWithoutTokenStaysDisconnected(t *testing.T) {
	f := newFixture(t, "localhost:0")

	f.channel.Connect(context.Background())

	if got := f.machine.Current(); got != status.Disconnected {
		t.Errorf("state = %s, want DISCONNECTED", got)
	}
}

func TestDialFailureReturnsToDisconnected(t *testing.T) {
	f := newFixture(t, "127.0.0.1:1") // nothing listens here
	f.vault.SetTokens(&store.TokenPair{Access: "acc"})

	errCh, unsub := f.bus.Subscribe(bus.KindChannelError, 10)
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f.channel.Connect(ctx)

	if got := f.machine.Current(); got != status.Disconnected {
		t.Errorf("state = %s, want DISCONNECTED", got)
	}
	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Error("no channel.error event published")
	}
}

func TestSendWhileNotOpenIsNoop(t *testing.T) {
	f := newFixture(t, "localhost:0")

	// Must not panic or change state.
	f.channel.Send(intsync.TopicSearch, map[string]any{"query": "bob"})

	if got := f.machine.Current(); got != status.Disconnected {
		t.Errorf("state = %s, want DISCONNECTED", got)
	}
}

func TestRemoteCloseDrivesClosed(t *testing.T) {
	host := wsServer(t, func(conn *websocket.Conn) {
		// Swallow the request.list frame, then hang up.
		_, _, _ = conn.Read(context.Background())
		conn.Close(websocket.StatusNormalClosure, "bye")
	})

	f := newFixture(t, host)
	f.vault.SetTokens(&store.TokenPair{Access: "acc"})

	stateCh, unsub := f.bus.Subscribe("channel.", 20)
	defer unsub()

	f.channel.Connect(context.Background())
	waitState(t, stateCh, status.Closed)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, "localhost:0")
	f.channel.Close()
	f.channel.Close()

	if got := f.machine.Current(); got != status.Disconnected {
		t.Errorf("state = %s, want DISCONNECTED", got)
	}
}

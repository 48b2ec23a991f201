package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/session"
	"github.com/wricardo/arena-io/protocol"
)

type event struct {
	kind string
	id   string
	data string
}

// fakeRouter implements SessionRouter and records every call
type fakeRouter struct {
	mu      sync.Mutex
	conns   map[string]protocol.Sender
	events  chan event
	openErr error
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		conns:  make(map[string]protocol.Sender),
		events: make(chan event, 32),
	}
}

func (r *fakeRouter) Open(conn protocol.Sender) error {
	if r.openErr != nil {
		return r.openErr
	}
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.mu.Unlock()
	r.events <- event{kind: "open", id: conn.ID()}
	return nil
}

func (r *fakeRouter) Join(id, name string) error {
	r.events <- event{kind: "join", id: id, data: name}
	return nil
}

func (r *fakeRouter) Input(id string, direction float64) error {
	b, _ := json.Marshal(direction)
	r.events <- event{kind: "input", id: id, data: string(b)}
	return nil
}

func (r *fakeRouter) Chat(ctx context.Context, id string, raw []byte) error {
	r.events <- event{kind: "chat", id: id, data: string(raw)}
	return nil
}

func (r *fakeRouter) Close(id string) error {
	r.events <- event{kind: "close", id: id}
	return nil
}

func (r *fakeRouter) sender(id string) protocol.Sender {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[id]
}

func expectEvent(t *testing.T, r *fakeRouter, kind string) event {
	t.Helper()
	select {
	case e := <-r.events:
		if e.kind != kind {
			t.Fatalf("Expected %s event, got %+v", kind, e)
		}
		return e
	case <-time.After(time.Second):
		t.Fatalf("No %s event within timeout", kind)
	}
	return event{}
}

func startServer(t *testing.T, router SessionRouter) (*Hub, string) {
	t.Helper()
	hub := NewHub(router)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(newFakeRouter())

	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(newFakeRouter())
	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 1), done: make(chan struct{})}

	hub.registerClient(client)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.unregisterClient(client)
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
	select {
	case <-client.done:
	default:
		t.Error("Unregistered client should be closed")
	}

	// Unregistering twice is harmless
	hub.unregisterClient(client)
}

func TestClientSend(t *testing.T) {
	hub := NewHub(newFakeRouter())
	client := &Client{id: "c1", hub: hub, send: make(chan []byte, 1), done: make(chan struct{})}

	if err := client.Send(protocol.MsgChatMessage, map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	env, err := protocol.DecodeEnvelope(<-client.send)
	if err != nil || env.Type != protocol.MsgChatMessage {
		t.Fatalf("Unexpected envelope %+v (%v)", env, err)
	}

	t.Run("full buffer drops the client", func(t *testing.T) {
		client.Send(protocol.MsgGameUpdate, 1)
		err := client.Send(protocol.MsgGameUpdate, 2)
		if !errors.Is(err, ErrSendBufferFull) {
			t.Fatalf("Expected ErrSendBufferFull, got %v", err)
		}
		if err := client.Send(protocol.MsgGameUpdate, 3); !errors.Is(err, ErrClientClosed) {
			t.Errorf("Expected ErrClientClosed after drop, got %v", err)
		}
	})

	t.Run("empty type", func(t *testing.T) {
		if err := client.Send("", nil); !errors.Is(err, protocol.ErrEmptyType) {
			t.Errorf("Expected ErrEmptyType, got %v", err)
		}
	})
}

func TestWebSocketRouting(t *testing.T) {
	router := newFakeRouter()
	hub, url := startServer(t, router)
	conn := dial(t, url)

	open := expectEvent(t, router, "open")
	if open.id == "" {
		t.Fatal("Expected a connection id")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	writeEnvelope(t, conn, protocol.MsgJoinGame, "alice")
	if e := expectEvent(t, router, "join"); e.data != "alice" || e.id != open.id {
		t.Errorf("Unexpected join %+v", e)
	}

	writeEnvelope(t, conn, protocol.MsgInput, 1.25)
	if e := expectEvent(t, router, "input"); e.data != "1.25" {
		t.Errorf("Unexpected input %+v", e)
	}

	// Unknown types and garbage are ignored without closing the connection
	writeEnvelope(t, conn, "teleport", nil)
	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	writeEnvelope(t, conn, protocol.MsgInput, "north")

	writeEnvelope(t, conn, protocol.MsgChatMessage, map[string]string{"username": "alice", "message": "hi"})
	e := expectEvent(t, router, "chat")
	if !strings.Contains(e.data, `"message":"hi"`) {
		t.Errorf("Expected raw chat payload, got %s", e.data)
	}

	conn.Close()
	if e := expectEvent(t, router, "close"); e.id != open.id {
		t.Errorf("Expected close for %s, got %+v", open.id, e)
	}
}

func TestWebSocketDelivery(t *testing.T) {
	router := newFakeRouter()
	_, url := startServer(t, router)
	conn := dial(t, url)

	open := expectEvent(t, router, "open")
	sender := router.sender(open.id)

	snapshot := protocol.Snapshot{T: 42, Me: &protocol.Entity{ID: open.id, X: 10, Y: 15}}
	if err := sender.Send(protocol.MsgGameUpdate, snapshot); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := sender.Send(protocol.MsgGameOver, protocol.GameOver{Reason: "shot down"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	for _, want := range []string{protocol.MsgGameUpdate, protocol.MsgGameOver} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			t.Fatalf("Frame is not a single envelope: %v", err)
		}
		if env.Type != want {
			t.Errorf("Expected %s, got %s", want, env.Type)
		}
		if want == protocol.MsgGameUpdate {
			got, _ := protocol.DecodePayload[protocol.Snapshot](env)
			if got.T != 42 || got.Me == nil || got.Me.X != 10 {
				t.Errorf("Snapshot not correctly received: %+v", got)
			}
		}
	}
}

func TestWebSocketOpenFailure(t *testing.T) {
	router := newFakeRouter()
	router.openErr = errors.New("refused")
	hub, url := startServer(t, router)
	conn := dial(t, url)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the server to close the connection")
	}

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	router := newFakeRouter()
	hub, url := startServer(t, router)
	conn := dial(t, url)
	expectEvent(t, router, "open")

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to close")
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn, msgType string) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read %s: %v", msgType, err)
	}
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("Bad frame: %v", err)
	}
	if env.Type != msgType {
		t.Fatalf("Expected %s, got %s", msgType, env.Type)
	}
	return env
}

func TestWebSocketLongChatIsTruncated(t *testing.T) {
	room := chat.NewRoom(chat.HistoryCapacity, nil)
	sessions := session.NewManager(nil, room)
	room.SetBroadcaster(sessions)
	_, url := startServer(t, sessions)
	conn := dial(t, url)

	readEnvelope(t, conn, protocol.MsgChatHistory)

	writeEnvelope(t, conn, protocol.MsgChatMessage, map[string]string{
		"username": "x",
		"message":  strings.Repeat("a", 5000),
	})
	env := readEnvelope(t, conn, protocol.MsgChatMessage)
	msg, err := protocol.DecodePayload[chat.Message](env)
	if err != nil {
		t.Fatalf("Bad chat payload: %v", err)
	}
	if msg.Text != strings.Repeat("a", chat.MaxMessageLength) {
		t.Errorf("Expected %d characters, got %d", chat.MaxMessageLength, len(msg.Text))
	}

	// The sender stays connected
	writeEnvelope(t, conn, protocol.MsgChatMessage, map[string]string{"username": "x", "message": "still here"})
	env = readEnvelope(t, conn, protocol.MsgChatMessage)
	if msg, _ := protocol.DecodePayload[chat.Message](env); msg.Text != "still here" {
		t.Errorf("Expected second message, got %q", msg.Text)
	}
	if room.Len() != 2 {
		t.Errorf("Expected 2 stored messages, got %d", room.Len())
	}
}

func TestHubRunCancelClosesSessions(t *testing.T) {
	router := newFakeRouter()
	hub := NewHub(router)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn := dial(t, url)
	open := expectEvent(t, router, "open")

	cancel()
	<-stopped

	if e := expectEvent(t, router, "close"); e.id != open.id {
		t.Errorf("Expected close for %s, got %+v", open.id, e)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to close")
	}

	// New connections are refused once the hub has stopped
	late := dial(t, url)
	late.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Error("Expected a late connection to be closed")
	}
	select {
	case e := <-router.events:
		t.Errorf("Unexpected event after stop: %+v", e)
	default:
	}
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/protocol"
)

type sent struct {
	msgType string
	payload any
}

type fakeConn struct {
	id   string
	fail bool

	mu   sync.Mutex
	sent []sent
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msgType string, payload any) error {
	if c.fail {
		return errors.New("send buffer full")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sent{msgType, payload})
	return nil
}

func (c *fakeConn) messages(msgType string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, s := range c.sent {
		if s.msgType == msgType {
			out = append(out, s.payload)
		}
	}
	return out
}

type fakeSim struct {
	mu      sync.Mutex
	players map[string]protocol.Sender
	added   map[string]string
	inputs  map[string]float64
	removed []string
}

func newFakeSim() *fakeSim {
	return &fakeSim{
		players: map[string]protocol.Sender{},
		added:   map[string]string{},
		inputs:  map[string]float64{},
	}
}

func (s *fakeSim) AddPlayer(p protocol.Sender, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID()] = p
	s.added[p.ID()] = name
}

func (s *fakeSim) player(id string) protocol.Sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id]
}

func (s *fakeSim) HandleInput(p protocol.Sender, direction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[p.ID()] = direction
}

func (s *fakeSim) RemovePlayer(p protocol.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, p.ID())
}

func newTestManager() (*Manager, *fakeSim, *chat.Room) {
	sim := newFakeSim()
	room := chat.NewRoom(chat.HistoryCapacity, nil)
	manager := NewManager(sim, room)
	room.SetBroadcaster(manager)
	return manager, sim, room
}

func chatPayload(username, message string) []byte {
	b, _ := json.Marshal(map[string]string{"username": username, "message": message})
	return b
}

func TestManager_Open(t *testing.T) {
	manager, _, room := newTestManager()
	room.Submit(chatPayload("alice", "hi"))

	t.Run("sends history to the new connection only", func(t *testing.T) {
		first := &fakeConn{id: "c1"}
		if err := manager.Open(first); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		second := &fakeConn{id: "c2"}
		if err := manager.Open(second); err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if got := first.messages(protocol.MsgChatHistory); len(got) != 1 {
			t.Fatalf("Expected 1 history delivery to c1, got %d", len(got))
		}
		history := second.messages(protocol.MsgChatHistory)[0].([]chat.Message)
		if len(history) != 1 || history[0].Text != "hi" {
			t.Errorf("Expected history with 'hi', got %+v", history)
		}
	})

	t.Run("duplicate connection id", func(t *testing.T) {
		err := manager.Open(&fakeConn{id: "c1"})
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		if err := manager.Open(&fakeConn{}); !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	if manager.Count() != 2 {
		t.Errorf("Expected 2 sessions, got %d", manager.Count())
	}
}

func TestManager_OpenWithoutRoom(t *testing.T) {
	manager := NewManager(nil, nil)
	conn := &fakeConn{id: "c1"}
	if err := manager.Open(conn); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(conn.messages(protocol.MsgChatHistory)) != 0 {
		t.Error("No history should be sent without a room")
	}
}

func TestManager_Join(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alice", "alice"},
		{"trimmed", "  bob  ", "bob"},
		{"blank", "   ", DefaultUsername},
		{"capped", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnop"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, sim, _ := newTestManager()
			id := fmt.Sprintf("c%d", i)
			manager.Open(&fakeConn{id: id})

			if err := manager.Join(id, tt.in); err != nil {
				t.Fatalf("Join failed: %v", err)
			}
			if sim.added[id] != tt.want {
				t.Errorf("Expected name %q, got %q", tt.want, sim.added[id])
			}
			info, _ := manager.Get(id)
			if !info.InGame || info.Username != tt.want {
				t.Errorf("Unexpected info %+v", info)
			}
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		manager, _, _ := newTestManager()
		if err := manager.Join("missing", "x"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GameOverLeavesGame(t *testing.T) {
	manager, sim, _ := newTestManager()
	conn := &fakeConn{id: "c1"}
	manager.Open(conn)
	manager.Join("c1", "alice")

	info, _ := manager.Get("c1")
	if info.JoinedAt == nil {
		t.Fatal("Expected JoinedAt to be set after joining")
	}

	if err := sim.player("c1").Send(protocol.MsgGameOver, protocol.GameOver{Reason: "shot down"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if n := len(conn.messages(protocol.MsgGameOver)); n != 1 {
		t.Errorf("Expected the game over to reach the connection, got %d", n)
	}

	info, _ = manager.Get("c1")
	if info.InGame || info.JoinedAt != nil {
		t.Errorf("Expected session out of game, got %+v", info)
	}
	if manager.PlayerCount() != 0 {
		t.Errorf("Expected 0 players, got %d", manager.PlayerCount())
	}
	b, _ := json.Marshal(info)
	if strings.Contains(string(b), "joined_at") {
		t.Errorf("Expected joined_at omitted, got %s", b)
	}

	manager.Join("c1", "alice")
	if manager.PlayerCount() != 1 {
		t.Errorf("Expected rejoin to count again, got %d", manager.PlayerCount())
	}
}

func TestManager_InputAndClose(t *testing.T) {
	manager, sim, _ := newTestManager()
	manager.Open(&fakeConn{id: "c1"})
	manager.Join("c1", "alice")

	if err := manager.Input("c1", 1.5); err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if sim.inputs["c1"] != 1.5 {
		t.Errorf("Expected direction 1.5, got %v", sim.inputs["c1"])
	}
	if manager.PlayerCount() != 1 {
		t.Errorf("Expected 1 player, got %d", manager.PlayerCount())
	}

	if err := manager.Close("c1"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(sim.removed) != 1 || sim.removed[0] != "c1" {
		t.Errorf("Expected c1 removed, got %v", sim.removed)
	}
	if err := manager.Close("c1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Second close should fail with ErrSessionNotFound, got %v", err)
	}
	if err := manager.Input("c1", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Input after close should fail, got %v", err)
	}
}

func TestManager_Chat(t *testing.T) {
	manager, _, room := newTestManager()
	alice := &fakeConn{id: "alice"}
	bob := &fakeConn{id: "bob"}
	broken := &fakeConn{id: "broken", fail: true}
	manager.Open(alice)
	manager.Open(bob)
	manager.Open(broken)

	ctx := context.Background()

	t.Run("broadcast reaches everyone including sender", func(t *testing.T) {
		if err := manager.Chat(ctx, "alice", chatPayload("alice", "hello")); err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
		for _, c := range []*fakeConn{alice, bob} {
			got := c.messages(protocol.MsgChatMessage)
			if len(got) != 1 || got[0].(chat.Message).Text != "hello" {
				t.Errorf("%s: expected one 'hello', got %+v", c.id, got)
			}
		}
	})

	t.Run("malformed is dropped silently", func(t *testing.T) {
		if err := manager.Chat(ctx, "bob", []byte(`{"message":"no user"}`)); err != nil {
			t.Errorf("Malformed chat should not be an error, got %v", err)
		}
		if room.Len() != 1 {
			t.Errorf("Expected 1 stored message, got %d", room.Len())
		}
		if _, err := manager.Get("bob"); err != nil {
			t.Error("Malformed chat must not end the session")
		}
	})

	t.Run("duplicate is acknowledged to the sender only", func(t *testing.T) {
		raw := []byte(`{"id":"k1","username":"bob","message":"once"}`)
		manager.Chat(ctx, "bob", raw)
		manager.Chat(ctx, "bob", raw)

		if n := len(bob.messages(protocol.MsgChatMessage)); n != 3 {
			t.Errorf("Expected bob to see hello, once and its ack, got %d", n)
		}
		if n := len(alice.messages(protocol.MsgChatMessage)); n != 2 {
			t.Errorf("Expected alice to see hello and once, got %d", n)
		}
		if room.Len() != 2 {
			t.Errorf("Expected 2 stored messages, got %d", room.Len())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := manager.Chat(cctx, "alice", chatPayload("alice", "late")); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestManager_ConcurrentChat(t *testing.T) {
	manager, _, room := newTestManager()
	conns := make([]*fakeConn, 5)
	for i := range conns {
		conns[i] = &fakeConn{id: fmt.Sprintf("c%d", i)}
		manager.Open(conns[i])
	}

	var wg sync.WaitGroup
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c *fakeConn) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				manager.Chat(context.Background(), c.id, chatPayload(c.id, fmt.Sprintf("m%d", j)))
			}
		}(i, c)
	}
	wg.Wait()

	if room.Len() != chat.HistoryCapacity {
		t.Errorf("Expected %d stored messages, got %d", chat.HistoryCapacity, room.Len())
	}

	// Every connection sees the same broadcast order.
	reference := conns[0].messages(protocol.MsgChatMessage)
	for _, c := range conns[1:] {
		got := c.messages(protocol.MsgChatMessage)
		if len(got) != len(reference) {
			t.Fatalf("%s saw %d messages, want %d", c.id, len(got), len(reference))
		}
		for i := range got {
			if got[i].(chat.Message).ID != reference[i].(chat.Message).ID {
				t.Fatalf("%s diverges at %d", c.id, i)
			}
		}
	}
}

func TestManager_List(t *testing.T) {
	manager, _, _ := newTestManager()
	manager.Open(&fakeConn{id: "b"})
	manager.Open(&fakeConn{id: "a"})
	manager.Join("a", "alice")

	list := manager.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(list))
	}
	for _, info := range list {
		if info.ID == "a" && info.Username != "alice" {
			t.Errorf("Expected username alice, got %q", info.Username)
		}
	}
}

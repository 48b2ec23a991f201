package engine

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/arena-io/protocol"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	msgs []protocol.Envelope
	last map[string]any
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, last: map[string]any{}}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msgType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, protocol.Envelope{Type: msgType})
	c.last[msgType] = payload
	return nil
}

func (c *fakeConn) lastSnapshot(t *testing.T) protocol.Snapshot {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.last[protocol.MsgGameUpdate].(protocol.Snapshot)
	if !ok {
		t.Fatalf("%s received no update", c.id)
	}
	return snap
}

func newTestArena(t *testing.T) *Arena {
	t.Helper()
	arena, err := NewArena(DefaultArenaConfig())
	if err != nil {
		t.Fatalf("NewArena failed: %v", err)
	}
	arena.now = func() time.Time { return time.UnixMilli(1000) }
	return arena
}

func place(a *Arena, id string, x, y, dir float64) {
	p := a.players[id]
	p.X, p.Y, p.Direction = x, y, dir
}

func TestNewArenaRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultArenaConfig()
	cfg.TickRate = 0
	if _, err := NewArena(cfg); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestArenaAddAndRemove(t *testing.T) {
	arena := newTestArena(t)
	alice := newFakeConn("alice")

	arena.AddPlayer(alice, "Alice")
	if arena.PlayerCount() != 1 {
		t.Fatalf("Expected 1 player, got %d", arena.PlayerCount())
	}

	p := arena.Players()[0]
	size := arena.Config().MapSize
	if p.X < size*0.25 || p.X > size*0.75 || p.Y < size*0.25 || p.Y > size*0.75 {
		t.Errorf("Spawn outside the center region: (%v, %v)", p.X, p.Y)
	}
	if p.HP != arena.Config().PlayerMaxHP {
		t.Errorf("Expected full HP, got %v", p.HP)
	}

	arena.RemovePlayer(alice)
	if arena.PlayerCount() != 0 {
		t.Errorf("Expected 0 players, got %d", arena.PlayerCount())
	}

	// Unknown players are ignored
	arena.HandleInput(alice, 1)
}

func TestArenaStepMovesAlongHeading(t *testing.T) {
	arena := newTestArena(t)
	alice := newFakeConn("alice")
	arena.AddPlayer(alice, "Alice")
	place(arena, "alice", 1000, 1000, 0)

	arena.HandleInput(alice, math.Pi/2)
	arena.Step(0.5)

	snap := alice.lastSnapshot(t)
	if snap.Me == nil {
		t.Fatal("Expected self in snapshot")
	}
	if math.Abs(snap.Me.X-1200) > 1e-6 || math.Abs(snap.Me.Y-1000) > 1e-6 {
		t.Errorf("Expected (1200, 1000), got (%v, %v)", snap.Me.X, snap.Me.Y)
	}
	if snap.T != 1000 {
		t.Errorf("Expected t=1000, got %d", snap.T)
	}
}

func TestArenaClampsToMap(t *testing.T) {
	arena := newTestArena(t)
	alice := newFakeConn("alice")
	arena.AddPlayer(alice, "Alice")
	place(arena, "alice", 5, 5, 0)

	arena.Step(1)

	snap := alice.lastSnapshot(t)
	if snap.Me.Y != 0 {
		t.Errorf("Expected y clamped to 0, got %v", snap.Me.Y)
	}
}

func TestArenaViewDistance(t *testing.T) {
	arena := newTestArena(t)
	alice, bob, carol := newFakeConn("alice"), newFakeConn("bob"), newFakeConn("carol")
	arena.AddPlayer(alice, "Alice")
	arena.AddPlayer(bob, "Bob")
	arena.AddPlayer(carol, "Carol")

	// Face away from each other so no bullet connects on the first tick
	place(arena, "alice", 500, 500, math.Pi)
	place(arena, "bob", 500, 900, math.Pi)
	place(arena, "carol", 2900, 2900, 0)

	arena.Step(0.001)

	snap := alice.lastSnapshot(t)
	if len(snap.Others) != 1 || snap.Others[0].ID != "bob" {
		t.Errorf("Expected only bob in view, got %+v", snap.Others)
	}
	if len(snap.Leaderboard) != 3 {
		t.Errorf("Expected 3 leaderboard entries, got %d", len(snap.Leaderboard))
	}
}

func TestArenaBulletDamageAndDeath(t *testing.T) {
	arena := newTestArena(t)
	shooter, target := newFakeConn("shooter"), newFakeConn("target")
	arena.AddPlayer(shooter, "Shooter")
	arena.AddPlayer(target, "Target")

	// Target sits just above the shooter, shooter aims up
	place(arena, "shooter", 1000, 1000, 0)
	place(arena, "target", 1000, 985, math.Pi)
	arena.players["target"].HP = arena.cfg.BulletDamage

	arena.Step(0.001)
	// Freeze both players and let the bullet connect
	arena.players["shooter"].Direction = math.Pi
	arena.Step(0.001)

	target.mu.Lock()
	over, ok := target.last[protocol.MsgGameOver].(protocol.GameOver)
	target.mu.Unlock()
	if !ok {
		t.Fatal("Expected target to receive a dead message")
	}
	if over.Reason != DeathReasonShot {
		t.Errorf("Expected reason %q, got %q", DeathReasonShot, over.Reason)
	}
	if arena.PlayerCount() != 1 {
		t.Errorf("Expected 1 survivor, got %d", arena.PlayerCount())
	}
	if arena.players["shooter"].Score < ScoreBulletHit {
		t.Errorf("Shooter should be rewarded, score %v", arena.players["shooter"].Score)
	}
}

func TestBulletNeverHitsParent(t *testing.T) {
	p := &Player{ID: "a", X: 10, Y: 10}
	b := &Bullet{ParentID: "a", X: 10, Y: 10}
	if b.Hits(p, 20, 3) {
		t.Error("Bullet should not hit the player that fired it")
	}
	b.ParentID = "b"
	if !b.Hits(p, 20, 3) {
		t.Error("Bullet should hit an overlapping player")
	}
}

func TestBulletLeavesMap(t *testing.T) {
	b := &Bullet{X: 10, Y: 10, Direction: 0}
	if !b.Move(1, 800, 3000) {
		t.Error("Bullet moving up from y=10 should leave the map")
	}
}

func TestLeaderboard(t *testing.T) {
	players := []*Player{
		{Name: "a", Score: 1},
		{Name: "b", Score: 30},
		{Name: "c", Score: 10},
	}
	got := Leaderboard(players, 2)
	if len(got) != 2 || got[0].Username != "b" || got[1].Username != "c" {
		t.Errorf("Unexpected leaderboard %+v", got)
	}
	if players[0].Name != "a" {
		t.Error("Leaderboard must not reorder its input")
	}
}

func TestArenaRunStopsOnCancel(t *testing.T) {
	arena := newTestArena(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- arena.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

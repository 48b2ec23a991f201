// Package protocol defines the wire format shared by the arena server and its
// clients.
//
// Every websocket frame is a single JSON text message wrapping a typed
// payload:
//
//	{"type": "update", "payload": {...}}
//
// Client to server:
//   - join_game: display name (string)
//   - input: heading in radians (number)
//   - chatMessage: {id, username, message}
//
// Server to client:
//   - update: Snapshot, overwrites the previous one
//   - dead: GameOver, ends active rendering
//   - chatHistory: ordered []chat.Message, sent once on connect
//   - chatMessage: chat.Message, broadcast to every viewer including the sender
package protocol

import (
	"encoding/json"
)

// Message types.
const (
	MsgJoinGame    = "join_game"
	MsgInput       = "input"
	MsgGameUpdate  = "update"
	MsgGameOver    = "dead"
	MsgChatHistory = "chatHistory"
	MsgChatMessage = "chatMessage"
)

// Envelope is the outer frame of every message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Sender is one connected viewer as seen by the server side.
type Sender interface {
	ID() string
	Send(msgType string, payload any) error
}

// Entity is a player as mirrored in a snapshot.
type Entity struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction float64 `json:"direction"`
	HP        float64 `json:"hp"`
}

// Projectile is a bullet as mirrored in a snapshot.
type Projectile struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction float64 `json:"direction"`
}

// LeaderboardEntry ranks a player by score.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Snapshot is the complete latest world view for one viewer. Me is nil
// before the viewer has joined or after it left the game.
type Snapshot struct {
	T           int64              `json:"t"`
	Me          *Entity            `json:"me,omitempty"`
	Others      []Entity           `json:"others"`
	Bullets     []Projectile       `json:"bullets"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
}

// GameOver ends a player's run.
type GameOver struct {
	Reason string `json:"reason"`
	Score  int    `json:"score"`
}

package service

import (
	"time"

	"github.com/wricardo/arena-io/game/engine"
)

// ChatRequest posts a chat message from outside the game stream
type ChatRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// PlayerInfo describes one connection and, once joined, its player
type PlayerInfo struct {
	ID          string    `json:"id"`
	Username    string    `json:"username,omitempty"`
	InGame      bool      `json:"in_game"`
	ConnectedAt time.Time `json:"connected_at"`
	X           float64   `json:"x,omitempty"`
	Y           float64   `json:"y,omitempty"`
	HP          float64   `json:"hp,omitempty"`
	Score       int       `json:"score"`
}

// ArenaInfo summarizes the running arena
type ArenaInfo struct {
	Config       *engine.ArenaConfig `json:"config"`
	Connections  int                 `json:"connections"`
	Players      int                 `json:"players"`
	ChatMessages int                 `json:"chat_messages"`
	StartedAt    time.Time           `json:"started_at"`
}

// ConfigInfo provides information about an arena configuration
type ConfigInfo struct {
	Filename    string  `json:"filename"`
	ConfigID    string  `json:"config_id"` // The identifier to pass to --arena
	Name        string  `json:"name"`      // Display name
	Description string  `json:"description"`
	MapSize     float64 `json:"map_size"`
	TickRate    int     `json:"tick_rate"`
}

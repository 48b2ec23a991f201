package service

import (
	"context"

	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/engine"
	"github.com/wricardo/arena-io/game/session"
)

// LobbyService defines the read and chat operations exposed outside the
// websocket stream
type LobbyService interface {
	// Chat
	ChatHistory(ctx context.Context) ([]chat.Message, error)
	PostChat(ctx context.Context, req ChatRequest) (*chat.Message, error)

	// Arena
	ListPlayers(ctx context.Context) ([]*PlayerInfo, error)
	ArenaInfo(ctx context.Context) (*ArenaInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.ArenaConfig, error)
}

// SessionManager exposes the open connections
type SessionManager interface {
	List() []session.Info
	Count() int
	PlayerCount() int
}

// ChatRoom stores and broadcasts chat messages
type ChatRoom interface {
	History() []chat.Message
	Post(sub chat.Submission) (chat.Message, error)
}

// Arena exposes the running simulation
type Arena interface {
	Players() []engine.PlayerView
	Config() *engine.ArenaConfig
}

// ConfigManager handles arena configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.ArenaConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.ArenaConfig
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/game/engine"
)

// lobbyServiceImpl implements the LobbyService interface
type lobbyServiceImpl struct {
	sessions  SessionManager
	room      ChatRoom
	arena     Arena
	configs   ConfigManager
	startedAt time.Time
}

// NewLobbyService creates a new lobby service instance. configs may be nil
// when the server runs without a config directory.
func NewLobbyService(sessions SessionManager, room ChatRoom, arena Arena, configs ConfigManager) LobbyService {
	return &lobbyServiceImpl{
		sessions:  sessions,
		room:      room,
		arena:     arena,
		configs:   configs,
		startedAt: time.Now(),
	}
}

// ChatHistory returns the stored chat messages, oldest first
func (s *lobbyServiceImpl) ChatHistory(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.room.History(), nil
}

// PostChat stores and broadcasts a message. A duplicate id returns the stored
// message together with chat.ErrDuplicate.
func (s *lobbyServiceImpl) PostChat(ctx context.Context, req ChatRequest) (*chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := s.room.Post(chat.Submission{
		ID:       req.ID,
		Username: req.Username,
		Message:  req.Message,
	})
	if errors.Is(err, chat.ErrDuplicate) {
		return &msg, err
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("username", msg.Username).Msg("Chat message posted over HTTP")
	return &msg, nil
}

// ListPlayers joins open connections with their live players
func (s *lobbyServiceImpl) ListPlayers(ctx context.Context) ([]*PlayerInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	views := make(map[string]engine.PlayerView)
	if s.arena != nil {
		for _, v := range s.arena.Players() {
			views[v.ID] = v
		}
	}

	infos := s.sessions.List()
	result := make([]*PlayerInfo, 0, len(infos))
	for _, info := range infos {
		p := &PlayerInfo{
			ID:          info.ID,
			Username:    info.Username,
			ConnectedAt: info.ConnectedAt,
		}
		if v, ok := views[info.ID]; ok {
			p.InGame = true
			p.X, p.Y, p.HP, p.Score = v.X, v.Y, v.HP, v.Score
		}
		result = append(result, p)
	}
	return result, nil
}

// ArenaInfo summarizes the running arena
func (s *lobbyServiceImpl) ArenaInfo(ctx context.Context) (*ArenaInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := &ArenaInfo{
		Connections:  s.sessions.Count(),
		Players:      s.sessions.PlayerCount(),
		ChatMessages: len(s.room.History()),
		StartedAt:    s.startedAt,
	}
	if s.arena != nil {
		info.Config = s.arena.Config()
		info.Players = len(s.arena.Players())
	}
	return info, nil
}

// ListConfigs returns the arena configurations on disk
func (s *lobbyServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.configs == nil {
		return []*ConfigInfo{}, nil
	}
	return s.configs.ListConfigs()
}

// LoadConfig loads a configuration by name
func (s *lobbyServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.ArenaConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.configs == nil {
		return nil, fmt.Errorf("config '%s' not found: no config directory", configName)
	}
	if configName == "" {
		return s.configs.GetDefault(), nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	return config, nil
}

package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/protocol"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

const (
	// MaxUsernameLength is the number of characters kept from a join name.
	MaxUsernameLength = 16

	// DefaultUsername replaces a blank join name.
	DefaultUsername = "Anonymous"
)

// Simulation is the game-state collaborator that owns player entities.
// Implementations push update and dead messages through the Sender they
// were given in AddPlayer.
type Simulation interface {
	AddPlayer(p protocol.Sender, name string)
	HandleInput(p protocol.Sender, direction float64)
	RemovePlayer(p protocol.Sender)
}

// Info describes one open connection.
type Info struct {
	ID          string    `json:"id"`
	Username    string    `json:"username,omitempty"`
	InGame      bool       `json:"in_game"`
	ConnectedAt time.Time  `json:"connected_at"`
	JoinedAt    *time.Time `json:"joined_at,omitempty"`
}

type entry struct {
	conn protocol.Sender
	info Info
}

// Manager tracks open connections and routes their inbound events to the
// simulation and the chat room.
type Manager struct {
	sim      Simulation
	room     *chat.Room
	sessions map[string]*entry
	mu       sync.RWMutex
}

// NewManager creates a session manager. room may be nil and set later.
func NewManager(sim Simulation, room *chat.Room) *Manager {
	return &Manager{
		sim:      sim,
		room:     room,
		sessions: make(map[string]*entry),
	}
}

// SetRoom attaches the chat room whose history new connections receive.
func (m *Manager) SetRoom(room *chat.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = room
}

func (m *Manager) chatRoom() *chat.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room
}

// Open registers a new connection and sends it the current chat history.
// The history is sent to this connection only.
func (m *Manager) Open(conn protocol.Sender) error {
	if conn == nil || conn.ID() == "" {
		return ErrInvalidSessionID
	}

	var err error
	register := func(history []chat.Message) {
		m.mu.Lock()
		if _, exists := m.sessions[conn.ID()]; exists {
			m.mu.Unlock()
			err = ErrSessionAlreadyExists
			return
		}
		m.sessions[conn.ID()] = &entry{
			conn: conn,
			info: Info{ID: conn.ID(), ConnectedAt: time.Now()},
		}
		m.mu.Unlock()

		if history == nil {
			return
		}
		if sendErr := conn.Send(protocol.MsgChatHistory, history); sendErr != nil {
			log.Warn().Err(sendErr).Str("session", conn.ID()).Msg("Failed to send chat history")
		}
	}

	// Registering inside Attach keeps the history snapshot and the first
	// broadcast this connection sees contiguous.
	if room := m.chatRoom(); room != nil {
		room.Attach(register)
	} else {
		register(nil)
	}
	if err != nil {
		return err
	}

	log.Info().Str("session", conn.ID()).Int("sessions", m.Count()).Msg("Connection opened")
	return nil
}

// Join adds the connection's player to the simulation.
func (m *Manager) Join(id, name string) error {
	name = normalizeUsername(name)

	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	joined := time.Now()
	e.info.Username = name
	e.info.InGame = true
	e.info.JoinedAt = &joined
	conn := e.conn
	m.mu.Unlock()

	if m.sim != nil {
		m.sim.AddPlayer(&player{Sender: conn, manager: m}, name)
	}
	log.Info().Str("session", id).Str("username", name).Msg("Player joined")
	return nil
}

// Input forwards a steering direction in radians to the simulation.
func (m *Manager) Input(id string, direction float64) error {
	conn, err := m.conn(id)
	if err != nil {
		return err
	}
	if m.sim != nil {
		m.sim.HandleInput(conn, direction)
	}
	return nil
}

// Chat submits a raw chatMessage payload to the room. Invalid submissions
// are logged by the room and never end the session. A duplicate submission
// is acknowledged by sending the stored message back to the sender only.
func (m *Manager) Chat(ctx context.Context, id string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := m.conn(id)
	if err != nil {
		return err
	}
	room := m.chatRoom()
	if room == nil {
		return nil
	}

	stored, err := room.Submit(raw)
	switch {
	case errors.Is(err, chat.ErrDuplicate):
		if sendErr := conn.Send(protocol.MsgChatMessage, stored); sendErr != nil {
			log.Warn().Err(sendErr).Str("session", id).Msg("Failed to acknowledge duplicate chat message")
		}
		return nil
	case err != nil:
		log.Debug().Err(err).Str("session", id).Msg("Chat submission rejected")
		return nil
	}
	return nil
}

// Close removes the connection and its player. It is the only teardown path.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.sim != nil {
		m.sim.RemovePlayer(e.conn)
	}
	log.Info().Str("session", id).Str("username", e.info.Username).Msg("Connection closed")
	return nil
}

// BroadcastChat sends msg to every open connection, including its sender.
// A connection that cannot accept the message is skipped.
func (m *Manager) BroadcastChat(msg chat.Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, e := range m.sessions {
		if err := e.conn.Send(protocol.MsgChatMessage, msg); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("Failed to deliver chat message")
		}
	}
}

// Get returns the info for one connection.
func (m *Manager) Get(id string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return Info{}, ErrSessionNotFound
	}
	return e.info, nil
}

// List returns all open connections ordered by connection time.
func (m *Manager) List() []Info {
	m.mu.RLock()
	result := make([]Info, 0, len(m.sessions))
	for _, e := range m.sessions {
		result = append(result, e.info)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].ConnectedAt.Equal(result[j].ConnectedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ConnectedAt.Before(result[j].ConnectedAt)
	})
	return result
}

// Count returns the number of open connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PlayerCount returns the number of connections that joined the game.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.sessions {
		if e.info.InGame {
			n++
		}
	}
	return n
}

// left marks the session as out of the game after the simulation ended it.
func (m *Manager) left(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		e.info.InGame = false
		e.info.JoinedAt = nil
	}
}

// player is the Sender handed to the simulation. A game-over passing
// through it takes the session out of the game.
type player struct {
	protocol.Sender
	manager *Manager
}

func (p *player) Send(msgType string, payload any) error {
	if msgType == protocol.MsgGameOver {
		p.manager.left(p.ID())
	}
	return p.Sender.Send(msgType, payload)
}

func (m *Manager) conn(id string) (protocol.Sender, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.conn, nil
}

func normalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultUsername
	}
	return chat.Truncate(name, MaxUsernameLength)
}

package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/game/chat"
	"github.com/wricardo/arena-io/protocol"
)

const (
	// DefaultInputInterval is the minimum spacing between input messages.
	DefaultInputInterval = 20 * time.Millisecond

	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyDialed = errors.New("connection already attempted")
	ErrNoURL         = errors.New("server url is empty")
)

// SnapshotSink receives world updates.
type SnapshotSink interface {
	Set(snap *protocol.Snapshot)
}

// ChatSink receives the chat history and new chat messages.
type ChatSink interface {
	Replace(history []chat.Message)
	Append(msg chat.Message)
}

// ChatAcker is told about every chat message so it can match echoes of
// messages this client sent.
type ChatAcker interface {
	Ack(msg chat.Message) bool
}

// RenderController switches the render loop back to the menu.
type RenderController interface {
	StopRendering()
}

// Options configures a Manager.
type Options struct {
	URL           string
	Dialer        *websocket.Dialer
	InputInterval time.Duration

	Snapshots SnapshotSink
	Chat      ChatSink
	Acker     ChatAcker
	Render    RenderController
}

// Manager owns one websocket connection for the lifetime of a session.
type Manager struct {
	opts   Options
	gate   *ReadyGate
	router *Router
	input  *Throttle[float64]

	mu      sync.RWMutex
	state   State
	conn    *websocket.Conn
	dialing bool
	reading bool

	writeMu  sync.Mutex
	wireOnce sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// NewManager creates a manager in the Connecting state. Nothing is dialed
// until Dial is called.
func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.InputInterval <= 0 {
		opts.InputInterval = DefaultInputInterval
	}

	m := &Manager{
		opts:   opts,
		gate:   NewReadyGate(),
		router: NewRouter(),
		state:  Connecting,
		done:   make(chan struct{}),
	}
	m.input = NewThrottle(opts.InputInterval, func(direction float64) {
		m.send(protocol.MsgInput, direction)
	})
	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready returns the readiness gate.
func (m *Manager) Ready() *ReadyGate {
	return m.gate
}

// Router returns the inbound router.
func (m *Manager) Router() *Router {
	return m.router
}

// Done is closed when the connection has ended.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Dial opens the connection. Success moves the manager to Connected and
// resolves the gate; failure moves it to Disconnected and rejects the gate.
// A manager dials at most once.
func (m *Manager) Dial(ctx context.Context) error {
	m.mu.Lock()
	if m.dialing || m.state != Connecting || m.gate.Settled() {
		m.mu.Unlock()
		return ErrAlreadyDialed
	}
	m.dialing = true
	m.mu.Unlock()

	if m.opts.URL == "" {
		return m.fail(ErrNoURL)
	}

	conn, _, err := m.opts.Dialer.DialContext(ctx, m.opts.URL, nil)
	if err != nil {
		return m.fail(fmt.Errorf("dial %s: %w", m.opts.URL, err))
	}
	conn.SetReadLimit(maxMessageSize)

	m.mu.Lock()
	if m.state != Connecting {
		// Closed while dialing.
		m.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	m.conn = conn
	m.state = Connected
	m.mu.Unlock()
	m.gate.Resolve()

	log.Info().Str("url", m.opts.URL).Msg("Connected to server")
	return nil
}

func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.state = Disconnected
	m.mu.Unlock()
	m.gate.Reject(err)
	m.finish()

	log.Error().Err(err).Msg("Connection error")
	return err
}

// Connect waits for the gate, installs the inbound handlers and starts
// reading. onGameOver may be nil. It returns the dial error if the gate was
// rejected, or ctx.Err() if ctx ends first.
func (m *Manager) Connect(ctx context.Context, onGameOver func(protocol.GameOver)) error {
	if err := m.gate.Wait(ctx); err != nil {
		return err
	}

	started := false
	m.wireOnce.Do(func() {
		m.wire(onGameOver)
		started = true
	})
	if !started {
		return nil
	}

	m.mu.Lock()
	conn := m.conn
	if conn == nil || m.state != Connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	m.reading = true
	m.mu.Unlock()

	go m.readLoop(conn)
	return nil
}

// wire installs the four inbound subscriptions.
func (m *Manager) wire(onGameOver func(protocol.GameOver)) {
	m.router.Handle(protocol.MsgGameUpdate, func(env protocol.Envelope) {
		snap, err := protocol.DecodePayload[protocol.Snapshot](env)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed update")
			return
		}
		if m.opts.Snapshots != nil {
			m.opts.Snapshots.Set(&snap)
		}
	})

	m.router.Handle(protocol.MsgGameOver, func(env protocol.Envelope) {
		var over protocol.GameOver
		if len(env.Payload) > 0 {
			decoded, err := protocol.DecodePayload[protocol.GameOver](env)
			if err != nil {
				log.Warn().Err(err).Msg("Malformed game over payload")
			}
			over = decoded
		}
		log.Info().Str("reason", over.Reason).Int("score", over.Score).Msg("Game over")

		if onGameOver != nil {
			onGameOver(over)
		}
		if m.opts.Render != nil {
			m.opts.Render.StopRendering()
		}
	})

	m.router.Handle(protocol.MsgChatHistory, func(env protocol.Envelope) {
		history, err := protocol.DecodePayload[[]chat.Message](env)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed chat history")
			return
		}
		log.Debug().Int("messages", len(history)).Msg("Received chat history")
		if m.opts.Chat != nil {
			m.opts.Chat.Replace(history)
		}
	})

	m.router.Handle(protocol.MsgChatMessage, func(env protocol.Envelope) {
		msg, err := protocol.DecodePayload[chat.Message](env)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed chat message")
			return
		}
		if m.opts.Chat != nil {
			m.opts.Chat.Append(msg)
		}
		if m.opts.Acker != nil {
			m.opts.Acker.Ack(msg)
		}
	})
}

func (m *Manager) readLoop(conn *websocket.Conn) {
	defer func() {
		m.mu.Lock()
		m.state = Disconnected
		m.mu.Unlock()
		m.input.Stop()
		conn.Close()
		m.finish()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Disconnected from server")
			} else {
				log.Info().Err(err).Msg("Disconnected from server")
			}
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Msg("Dropping malformed frame")
			continue
		}
		m.router.Dispatch(env)
	}
}

func (m *Manager) finish() {
	m.doneOnce.Do(func() { close(m.done) })
}

// JoinGame asks the server to add a player with the given name.
func (m *Manager) JoinGame(name string) {
	m.send(protocol.MsgJoinGame, name)
}

// SendInput steers the player. Calls are throttled; the latest direction
// in each window wins.
func (m *Manager) SendInput(direction float64) {
	if !m.connected(protocol.MsgInput) {
		return
	}
	m.input.Call(direction)
}

// SendChatMessage posts text as username. Both fields are trimmed.
func (m *Manager) SendChatMessage(text, username string) {
	m.SendChat(chat.Submission{
		Username: strings.TrimSpace(username),
		Message:  strings.TrimSpace(text),
	})
}

// SendChat posts a prepared submission.
func (m *Manager) SendChat(sub chat.Submission) {
	m.send(protocol.MsgChatMessage, sub)
}

func (m *Manager) connected(msgType string) bool {
	if state := m.State(); state != Connected {
		log.Warn().Str("type", msgType).Stringer("state", state).Msg("Cannot send: not connected")
		return false
	}
	return true
}

// send writes one envelope. It is a logged no-op unless Connected.
func (m *Manager) send(msgType string, payload any) {
	if !m.connected(msgType) {
		return
	}

	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("Failed to encode message")
		return
	}

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn == nil {
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn().Err(err).Str("type", msgType).Msg("Failed to send message")
	}
}

// Close ends the connection. The manager stays Disconnected afterwards.
func (m *Manager) Close() error {
	m.input.Stop()

	m.mu.Lock()
	conn := m.conn
	reading := m.reading
	m.state = Disconnected
	m.mu.Unlock()

	// A pending Connect gives up instead of waiting forever.
	m.gate.Reject(ErrNotConnected)

	if !reading {
		defer m.finish()
	}
	if conn == nil {
		return nil
	}

	m.writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	m.writeMu.Unlock()

	return conn.Close()
}

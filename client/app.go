package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	clientchat "github.com/wricardo/arena-io/client/chat"
	"github.com/wricardo/arena-io/client/network"
	"github.com/wricardo/arena-io/client/render"
	"github.com/wricardo/arena-io/client/state"
	"github.com/wricardo/arena-io/protocol"
)

const handshakeTimeout = 10 * time.Second

var (
	ErrNoUsername   = errors.New("username is required")
	ErrEmptyMessage = errors.New("message is empty")
)

// App ties the connection, snapshot store, chat and render loop together
// for one player.
type App struct {
	settings Settings
	store    *state.Store
	chat     *clientchat.Log
	composer *clientchat.Composer
	loop     *render.Loop

	mu         sync.RWMutex
	conn       *network.Manager
	username   string
	playing    bool
	lastOver   *protocol.GameOver
	onGameOver func(protocol.GameOver)
}

// NewApp builds the client around a drawing surface and frame scheduler.
// Nothing is dialed until Start.
func NewApp(settings Settings, surface render.Surface, sched render.FrameScheduler) *App {
	a := &App{
		settings: settings,
		store:    state.NewStore(),
		chat:     clientchat.NewLog(),
		composer: clientchat.NewComposer(settings.AckTimeout()),
		username: strings.TrimSpace(settings.Username),
	}
	a.loop = render.NewLoop(sched, surface, a.store, settings.RenderOptions())
	a.conn = a.newManager()
	return a
}

func (a *App) newManager() *network.Manager {
	return network.NewManager(network.Options{
		URL:           a.settings.ServerURL,
		Dialer:        &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		InputInterval: a.settings.InputInterval(),
		Snapshots:     a.store,
		Chat:          a.chat,
		Acker:         a.composer,
		Render:        a.loop,
	})
}

func (a *App) manager() *network.Manager {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conn
}

// Start dials the server and starts reading. It returns once the
// connection is established or has failed.
func (a *App) Start(ctx context.Context) error {
	m := a.manager()
	if err := m.Dial(ctx); err != nil {
		return err
	}
	return m.Connect(ctx, a.handleGameOver)
}

// Reconnect throws away the current connection and starts a fresh one.
// The chat log is kept until the new server history replaces it.
func (a *App) Reconnect(ctx context.Context) error {
	a.mu.Lock()
	old := a.conn
	a.conn = a.newManager()
	a.playing = false
	a.mu.Unlock()

	old.Close()
	a.store.Clear()
	a.loop.StopRendering()

	log.Info().Str("url", a.settings.ServerURL).Msg("Reconnecting")
	return a.Start(ctx)
}

// Play joins the game as name, or as the configured username when name is
// blank, and switches the loop to the game painter.
func (a *App) Play(name string) error {
	name = strings.TrimSpace(name)

	a.mu.Lock()
	if name == "" {
		name = a.username
	}
	if name == "" {
		a.mu.Unlock()
		return ErrNoUsername
	}
	m := a.conn
	if m.State() != network.Connected {
		a.mu.Unlock()
		return network.ErrNotConnected
	}
	a.username = name
	a.playing = true
	a.lastOver = nil
	a.mu.Unlock()

	m.JoinGame(name)
	a.loop.StartRendering()
	return nil
}

// Steer sends a new heading in radians.
func (a *App) Steer(direction float64) {
	a.manager().SendInput(direction)
}

// Say sends a chat message as the current username and tracks it until the
// server echoes it.
func (a *App) Say(text string) error {
	a.mu.RLock()
	username := a.username
	m := a.conn
	a.mu.RUnlock()

	if username == "" {
		return ErrNoUsername
	}
	sub := a.composer.Compose(text, username)
	if sub.Message == "" {
		return ErrEmptyMessage
	}
	if m.State() != network.Connected {
		m.SendChat(sub)
		return network.ErrNotConnected
	}

	a.composer.Track(sub)
	m.SendChat(sub)
	return nil
}

// ResendDue resends chat messages whose echo is overdue. Call it
// periodically.
func (a *App) ResendDue(now time.Time) int {
	due := a.composer.Due(now)
	m := a.manager()
	for _, sub := range due {
		log.Debug().Str("id", sub.ID).Msg("Resending chat message")
		m.SendChat(sub)
	}
	return len(due)
}

// OnGameOver registers fn to run after the player dies.
func (a *App) OnGameOver(fn func(protocol.GameOver)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGameOver = fn
}

func (a *App) handleGameOver(over protocol.GameOver) {
	a.mu.Lock()
	a.playing = false
	a.lastOver = &over
	fn := a.onGameOver
	a.mu.Unlock()

	if fn != nil {
		fn(over)
	}
}

// Close ends the connection and stops rendering.
func (a *App) Close() error {
	err := a.manager().Close()
	a.loop.Close()
	return err
}

// State reports the connection state.
func (a *App) State() network.State {
	return a.manager().State()
}

// Done is closed when the current connection ends.
func (a *App) Done() <-chan struct{} {
	return a.manager().Done()
}

func (a *App) Snapshot() *protocol.Snapshot {
	return a.store.Current()
}

func (a *App) Chat() *clientchat.Log {
	return a.chat
}

func (a *App) Loop() *render.Loop {
	return a.loop
}

func (a *App) Settings() Settings {
	return a.settings
}

func (a *App) Username() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.username
}

// Playing reports whether the player has joined and not died since.
func (a *App) Playing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.playing
}

// LastGameOver returns the most recent death, or nil.
func (a *App) LastGameOver() *protocol.GameOver {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastOver
}

package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Long chat text must still
	// reach the room, which truncates it.
	maxMessageSize = 64 * 1024

	// Outbound frames buffered per client.
	sendBufferSize = 256
)

var (
	ErrSendBufferFull = errors.New("client send buffer full")
	ErrClientClosed   = errors.New("client closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: take an origin allowlist from the serve flags.
		return true
	},
}

// SessionRouter receives the lifecycle and inbound events of every
// connection. session.Manager implements it.
type SessionRouter interface {
	Open(conn protocol.Sender) error
	Join(id, name string) error
	Input(id string, direction float64) error
	Chat(ctx context.Context, id string, raw []byte) error
	Close(id string) error
}

// Client represents a WebSocket client
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the connection id assigned by the hub.
func (c *Client) ID() string {
	return c.id
}

// Send encodes an envelope and queues it without blocking. A client whose
// buffer is full is dropped.
func (c *Client) Send(msgType string, payload any) error {
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		log.Warn().Str("conn", c.id).Str("type", msgType).Msg("Send buffer full, dropping client")
		c.close()
		return ErrSendBufferFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Hub maintains the set of active clients
type Hub struct {
	sessions SessionRouter

	// Registered clients
	clients map[*Client]bool
	mu      sync.RWMutex

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a new WebSocket hub routing events to sessions
func NewHub(sessions SessionRouter) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions:   sessions,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's event loop. It returns when ctx is done or Close is
// called, after closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()
	// Pumps and ServeWS wait on h.ctx once nobody receives on the channels.
	defer h.cancel()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			return

		case <-h.ctx.Done():
			return
		}
	}
}

// Close stops the hub and disconnects every client.
func (h *Hub) Close() {
	h.cancel()
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	if err := h.sessions.Open(client); err != nil {
		log.Error().Err(err).Str("conn", client.id).Msg("Failed to open session")
		select {
		case h.unregister <- client:
		case <-h.ctx.Done():
		}
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// registerClient adds a client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("conn", client.id).Int("clients", total).Msg("Client registered")
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		client.close()
		log.Info().Str("conn", client.id).Int("clients", remaining).Msg("Client unregistered")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for client := range clients {
		client.close()
	}
}

// route hands one inbound envelope to the session layer.
func (c *Client) route(env protocol.Envelope) {
	var err error

	switch env.Type {
	case protocol.MsgJoinGame:
		var name string
		if name, err = protocol.DecodePayload[string](env); err == nil {
			err = c.hub.sessions.Join(c.id, name)
		}

	case protocol.MsgInput:
		var direction float64
		if direction, err = protocol.DecodePayload[float64](env); err == nil {
			err = c.hub.sessions.Input(c.id, direction)
		}

	case protocol.MsgChatMessage:
		err = c.hub.sessions.Chat(c.hub.ctx, c.id, env.Payload)

	default:
		log.Debug().Str("conn", c.id).Str("type", env.Type).Msg("Ignoring unknown message type")
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("conn", c.id).Str("type", env.Type).Msg("Failed to handle message")
	}
}

// readPump pumps messages from the WebSocket connection to the session layer
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
		if err := c.hub.sessions.Close(c.id); err != nil {
			log.Debug().Err(err).Str("conn", c.id).Msg("Session already closed")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("conn", c.id).Msg("WebSocket error")
			}
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Str("conn", c.id).Msg("Dropping malformed frame")
			continue
		}
		c.route(env)
	}
}

// writePump pumps queued messages to the WebSocket connection. Each message
// is written as its own frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

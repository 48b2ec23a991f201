package network

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/arena-io/protocol"
)

// HandlerFunc consumes one inbound envelope.
type HandlerFunc func(env protocol.Envelope)

// Router dispatches inbound envelopes to the handler registered for their
// type. It keeps no state of its own beyond the handler table.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for msgType, replacing any earlier handler.
func (r *Router) Handle(msgType string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = fn
}

// Dispatch calls the handler for env.Type and reports whether one existed.
func (r *Router) Dispatch(env protocol.Envelope) bool {
	r.mu.RLock()
	fn, ok := r.handlers[env.Type]
	r.mu.RUnlock()

	if !ok {
		log.Debug().Str("type", env.Type).Msg("No handler for message type")
		return false
	}
	fn(env)
	return true
}

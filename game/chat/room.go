package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// Broadcaster delivers a stored message to every connected viewer.
type Broadcaster interface {
	BroadcastChat(msg Message)
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(msg Message)

// BroadcastChat calls f(msg).
func (f BroadcasterFunc) BroadcastChat(msg Message) {
	f(msg)
}

// Room owns the authoritative chat history and its fan-out.
type Room struct {
	mu          sync.Mutex
	history     *History
	broadcaster Broadcaster
	now         func() time.Time
}

// NewRoom creates a room with an empty history of the given capacity.
func NewRoom(capacity int, b Broadcaster) *Room {
	return &Room{
		history:     NewHistory(capacity),
		broadcaster: b,
		now:         time.Now,
	}
}

// SetBroadcaster replaces the fan-out target.
func (r *Room) SetBroadcaster(b Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcaster = b
}

// Submit validates a raw chatMessage payload, stores it and broadcasts the
// stored message. Malformed payloads are logged and rejected. A payload whose
// id is already stored returns the stored message with ErrDuplicate and is
// neither stored nor broadcast again.
func (r *Room) Submit(raw json.RawMessage) (Message, error) {
	sub, err := Parse(raw)
	if err != nil {
		log.Warn().Err(err).RawJSON("payload", safeRaw(raw)).Msg("Dropping invalid chat message")
		return Message{}, err
	}
	return r.Post(sub)
}

// Post stores an already decoded submission. It applies the same validation
// and idempotency rules as Submit.
func (r *Room) Post(sub Submission) (Message, error) {
	if err := sub.Validate(); err != nil {
		log.Warn().Err(err).Str("username", sub.Username).Msg("Dropping invalid chat message")
		return Message{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.history.Find(sub.ID); ok {
		log.Debug().Str("id", sub.ID).Msg("Ignoring duplicate chat message")
		return stored, ErrDuplicate
	}

	id := sub.ID
	if id == "" {
		id = ksuid.New().String()
	}

	msg := Message{
		ID:       id,
		Username: sub.Username,
		Text:     Truncate(sub.Message, MaxMessageLength),
		SentAt:   r.now().UTC(),
	}

	r.history.Append(msg)

	if r.broadcaster != nil {
		r.broadcaster.BroadcastChat(msg)
	}

	log.Info().Str("username", msg.Username).Str("id", msg.ID).Msg("Broadcasting chat message")
	return msg, nil
}

// Attach runs fn with the current history while holding the room lock. New
// viewers use it to receive a history snapshot consistent with the broadcast
// stream they join.
func (r *Room) Attach(fn func(history []Message)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.history.Snapshot())
}

// History returns a snapshot of the stored messages, oldest first.
func (r *Room) History() []Message {
	return r.history.Snapshot()
}

// Len returns the number of stored messages.
func (r *Room) Len() int {
	return r.history.Len()
}

// safeRaw keeps the log line valid JSON when the payload is not.
func safeRaw(raw json.RawMessage) []byte {
	if json.Valid(raw) {
		return raw
	}
	b, _ := json.Marshal(string(raw))
	return b
}

package chat

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"github.com/wricardo/arena-io/game/chat"
)

// DefaultAckTimeout is how long a sent message may go without its echo
// before it is resent once.
const DefaultAckTimeout = 3 * time.Second

type pending struct {
	sub    chat.Submission
	sentAt time.Time
	resent bool
}

// Composer builds outgoing chat submissions and tracks them until the
// server echoes them back. Every submission carries a ksuid so a resend is
// recognised by the server instead of being stored twice.
type Composer struct {
	mu      sync.Mutex
	timeout time.Duration
	pending map[string]*pending
	now     func() time.Time
}

// NewComposer creates a composer. A non-positive timeout uses DefaultAckTimeout.
func NewComposer(timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = DefaultAckTimeout
	}
	return &Composer{
		timeout: timeout,
		pending: make(map[string]*pending),
		now:     time.Now,
	}
}

// Compose trims text and username and stamps a fresh idempotency key.
func (c *Composer) Compose(text, username string) chat.Submission {
	return chat.Submission{
		ID:       ksuid.New().String(),
		Username: strings.TrimSpace(username),
		Message:  strings.TrimSpace(text),
	}
}

// Track remembers sub as sent and waiting for its echo. Submissions
// without an id cannot be acknowledged and are ignored.
func (c *Composer) Track(sub chat.Submission) {
	if sub.ID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[sub.ID]; ok {
		return
	}
	c.pending[sub.ID] = &pending{sub: sub, sentAt: c.now()}
}

// Ack clears the pending entry matching msg and reports whether one existed.
func (c *Composer) Ack(msg chat.Message) bool {
	if msg.ID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[msg.ID]; !ok {
		return false
	}
	delete(c.pending, msg.ID)
	return true
}

// Due returns the submissions whose echo is overdue at now. Each
// submission is returned at most once; one that stays unacknowledged after
// its resend is dropped.
func (c *Composer) Due(now time.Time) []chat.Submission {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []chat.Submission
	for id, p := range c.pending {
		if now.Sub(p.sentAt) < c.timeout {
			continue
		}
		if p.resent {
			log.Warn().Str("id", id).Str("username", p.sub.Username).Msg("Chat message never acknowledged, giving up")
			delete(c.pending, id)
			continue
		}
		p.resent = true
		p.sentAt = now
		due = append(due, p.sub)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due
}

// Pending returns the number of submissions waiting for their echo.
func (c *Composer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Package chat mirrors the server chat history on the client and prepares
// outgoing submissions.
package chat

import (
	"sync"
	"sync/atomic"

	"github.com/wricardo/arena-io/game/chat"
)

// DisplayCapacity is the number of lines the chat panel keeps.
const DisplayCapacity = 50

// Log is the client's display copy of the chat. It is bounded the same way
// the server history is and changes only through Replace and Append.
type Log struct {
	mu      sync.Mutex
	history *chat.History
	version atomic.Uint64
}

// NewLog creates an empty chat log.
func NewLog() *Log {
	return &Log{history: chat.NewHistory(DisplayCapacity)}
}

// Replace discards the displayed lines and shows history in order.
func (l *Log) Replace(history []chat.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history.Replace(history)
	l.version.Add(1)
}

// Append shows msg as the newest line, dropping the oldest when full. A
// message whose id is already displayed (the server's ack of a resend) is
// skipped.
func (l *Log) Append(msg chat.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.history.Contains(msg.ID) {
		return
	}
	l.history.Append(msg)
	l.version.Add(1)
}

// Messages returns the displayed messages, oldest first.
func (l *Log) Messages() []chat.Message {
	return l.history.Snapshot()
}

// Lines returns the displayed messages formatted as "username: message".
func (l *Log) Lines() []string {
	msgs := l.history.Snapshot()
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.String()
	}
	return lines
}

// Tail returns the newest n lines, oldest first.
func (l *Log) Tail(n int) []string {
	lines := l.Lines()
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Len returns the number of displayed lines.
func (l *Log) Len() int {
	return l.history.Len()
}

// Version changes on every mutation.
func (l *Log) Version() uint64 {
	return l.version.Load()
}

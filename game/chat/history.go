package chat

import "sync"

// History is an ordered, bounded message buffer. Appending past capacity
// evicts the oldest message.
type History struct {
	mu       sync.RWMutex
	capacity int
	messages []Message
}

// NewHistory creates an empty history. A non-positive capacity falls back
// to HistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
	}
}

// Append adds m at the end and reports whether the oldest entry was evicted.
func (h *History) Append(m Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.messages) < h.capacity {
		h.messages = append(h.messages, m)
		return false
	}

	copy(h.messages, h.messages[1:])
	h.messages[len(h.messages)-1] = m
	return true
}

// Replace discards the current contents and keeps the newest capacity
// entries of messages, in order.
func (h *History) Replace(messages []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(messages) > h.capacity {
		messages = messages[len(messages)-h.capacity:]
	}
	h.messages = append(h.messages[:0], messages...)
}

// Snapshot returns a copy of the history, oldest first.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Find returns the stored message with the given id.
func (h *History) Find(id string) (Message, bool) {
	if id == "" {
		return Message{}, false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, m := range h.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Contains reports whether a message with the given id is stored.
func (h *History) Contains(id string) bool {
	_, ok := h.Find(id)
	return ok
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Capacity returns the maximum number of stored messages.
func (h *History) Capacity() int {
	return h.capacity
}

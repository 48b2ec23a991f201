package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// HistoryCapacity is the number of messages kept by the server and
	// mirrored by every client.
	HistoryCapacity = 50

	// MaxMessageLength is the number of characters kept from a submission.
	MaxMessageLength = 100
)

var (
	ErrMalformed       = errors.New("chat submission is not an object")
	ErrEmptyMessage    = errors.New("chat message is empty")
	ErrMissingUsername = errors.New("chat username is missing")
	ErrDuplicate       = errors.New("chat message already stored")
)

// Message is a stored chat line.
type Message struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Text     string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// String formats the message the way chat panels render it.
func (m Message) String() string {
	return m.Username + ": " + m.Text
}

// Submission is the payload a client sends to post a message. ID is an
// optional idempotency key chosen by the client.
type Submission struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Parse validates a raw chatMessage payload. It accepts only a JSON object
// carrying a non-blank message string and a non-empty username string.
func Parse(raw json.RawMessage) (Submission, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Submission{}, ErrMalformed
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	message, ok := fields["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		return Submission{}, ErrEmptyMessage
	}

	username, ok := fields["username"].(string)
	if !ok || username == "" {
		return Submission{}, ErrMissingUsername
	}

	id, _ := fields["id"].(string)

	return Submission{
		ID:       id,
		Username: username,
		Message:  message,
	}, nil
}

// Validate applies the same rules as Parse to an already decoded submission.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Message) == "" {
		return ErrEmptyMessage
	}
	if s.Username == "" {
		return ErrMissingUsername
	}
	return nil
}

// Truncate returns the first n characters of text.
func Truncate(text string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

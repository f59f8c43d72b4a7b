package internal

import (
	"strings"
	"time"
)

// Conversation is a normalized, provider-tagged capture of one chat page.
// A Conversation is never modified after it is built; every extraction
// produces a fresh value.
type Conversation struct {
	Provider  Provider  `json:"provider" yaml:"provider"`
	SessionID string    `json:"sessionId" yaml:"session_id"`
	Messages  []Message `json:"messages" yaml:"messages"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	URL       string    `json:"url" yaml:"url"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Message is a single turn in a conversation
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NewConversation builds a Conversation, copying messages so later changes
// to the caller's slice cannot reach it
func NewConversation(provider Provider, sessionID string, messages []Message, capturedAt time.Time, sourceURL string) *Conversation {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)
	return &Conversation{
		Provider:  provider,
		SessionID: sessionID,
		Messages:  msgs,
		Timestamp: capturedAt,
		URL:       sourceURL,
	}
}

// EmptyConversation builds a Conversation with no messages and an explanatory error
func EmptyConversation(provider Provider, reason string, capturedAt time.Time, sourceURL string) *Conversation {
	return &Conversation{
		Provider:  provider,
		Messages:  []Message{},
		Timestamp: capturedAt,
		URL:       sourceURL,
		Error:     reason,
	}
}

// IsEmpty reports whether the conversation has no messages
func (c *Conversation) IsEmpty() bool {
	return c == nil || len(c.Messages) == 0
}

// LastMessage returns the final message in conversation order
func (c *Conversation) LastMessage() (Message, bool) {
	if c.IsEmpty() {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// History returns a copy of the messages
func (c *Conversation) History() []Message {
	if c == nil {
		return nil
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return msgs
}

// ShortSessionID returns the first n characters of the session id
func (c *Conversation) ShortSessionID(n int) string {
	if c == nil {
		return ""
	}
	id := strings.TrimSpace(c.SessionID)
	if len(id) <= n {
		return id
	}
	return id[:n]
}

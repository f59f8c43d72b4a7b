package internal

import (
	"strings"
)

// RawTurn is a turn as read from the page, before normalization
type RawTurn struct {
	Role    Role
	Content string
}

// Normalizer converts raw page turns to Messages
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeTurns converts raw turns to messages, preserving order.
// Turns whose content is empty after trimming are dropped.
func (n *Normalizer) NormalizeTurns(turns []RawTurn) []Message {
	messages := make([]Message, 0, len(turns))
	for _, turn := range turns {
		content := n.normalizeContent(turn.Content)
		if content == "" {
			continue
		}
		messages = append(messages, Message{
			Role:    n.normalizeRole(turn.Role),
			Content: content,
		})
	}
	return messages
}

// normalizeRole maps anything that is not positively a user turn to assistant
func (n *Normalizer) normalizeRole(role Role) Role {
	switch role {
	case RoleUser:
		return RoleUser
	default:
		return RoleAssistant // Default fallback
	}
}

// normalizeContent trims surrounding whitespace and unifies line endings
func (n *Normalizer) normalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")
	return strings.TrimSpace(content)
}

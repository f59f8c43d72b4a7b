package extractor

import (
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
)

// NewGemini returns the Gemini extractor
func NewGemini(sessions SessionResolver, opts ...Option) Extractor {
	return newExtractor(profile{
		provider:   internal.ProviderGemini,
		containers: []string{"main", "chat-window", ".conversation-container"},
		turns: []string{
			"user-query, model-response",
			`[class*="message"], [class*="query"], [class*="response"]`,
		},
		content: []string{".query-text", "message-content", ".markdown"},
		role:    geminiRole,
	}, sessions, opts...)
}

func geminiRole(turn dom.Node) internal.Role {
	if turn.Tag() == "user-query" || classContains(turn, "query", "user") {
		return internal.RoleUser
	}
	return internal.RoleAssistant
}

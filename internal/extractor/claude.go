package extractor

import (
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
)

const (
	claudeUserMessage = `[data-testid="user-message"]`
	claudeUserFont    = ".font-user-message"
)

// NewClaude returns the Claude extractor
func NewClaude(sessions SessionResolver, opts ...Option) Extractor {
	return newExtractor(profile{
		provider:   internal.ProviderClaude,
		containers: []string{`[data-testid="conversation-content"]`, "main"},
		turns: []string{
			`[data-testid*="message"]`,
			".font-user-message, .font-claude-message",
		},
		content: []string{".font-claude-message", ".font-user-message"},
		role:    claudeRole,
	}, sessions, opts...)
}

func claudeRole(turn dom.Node) internal.Role {
	if turn.Is(claudeUserMessage) || turn.Has(claudeUserMessage) {
		return internal.RoleUser
	}
	if turn.Is(claudeUserFont) || turn.Has(claudeUserFont) {
		return internal.RoleUser
	}
	return internal.RoleAssistant
}

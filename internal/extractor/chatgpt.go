package extractor

import (
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
)

const chatGPTRoleAttr = "data-message-author-role"

// NewChatGPT returns the ChatGPT extractor. Turn attributes are specific
// enough that the whole document is scanned when no container matches.
func NewChatGPT(sessions SessionResolver, opts ...Option) Extractor {
	return newExtractor(profile{
		provider:     internal.ProviderChatGPT,
		containers:   []string{"main", `[role="presentation"]`},
		scanDocument: true,
		turns: []string{
			"[" + chatGPTRoleAttr + "]",
			`[data-testid^="conversation-turn"]`,
		},
		content: []string{".markdown", ".whitespace-pre-wrap", `[class*="markdown"]`},
		role:    chatGPTRole,
	}, sessions, opts...)
}

// chatGPTRole reads the author attribute on the turn or its first tagged descendant
func chatGPTRole(turn dom.Node) internal.Role {
	if role, ok := turn.Attr(chatGPTRoleAttr); ok {
		return internal.RoleFromHint(role)
	}
	if tagged, ok := turn.First("[" + chatGPTRoleAttr + "]"); ok {
		role, _ := tagged.Attr(chatGPTRoleAttr)
		return internal.RoleFromHint(role)
	}
	return internal.RoleAssistant
}

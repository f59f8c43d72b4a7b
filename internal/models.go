package internal

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Provider identifies the chat web application a conversation was captured from
type Provider string

const (
	ProviderChatGPT Provider = "chatgpt"
	ProviderClaude  Provider = "claude"
	ProviderGemini  Provider = "gemini"
	ProviderUnknown Provider = "unknown"
)

// Providers lists the supported providers in display order
var Providers = []Provider{ProviderChatGPT, ProviderClaude, ProviderGemini}

// providerHosts maps hostname fragments to providers, checked in order
var providerHosts = []struct {
	fragment string
	provider Provider
}{
	{"chatgpt.com", ProviderChatGPT},
	{"chat.openai.com", ProviderChatGPT},
	{"claude.ai", ProviderClaude},
	{"gemini.google.com", ProviderGemini},
}

// newChatURLs are the pages opened by the "open chat" action
var newChatURLs = map[Provider]string{
	ProviderChatGPT: "https://chat.openai.com/",
	ProviderClaude:  "https://claude.ai/new",
	ProviderGemini:  "https://gemini.google.com/",
}

// ClassifyURL infers the provider from a page URL by hostname substring match
func ClassifyURL(rawURL string) Provider {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)
	for _, ph := range providerHosts {
		if strings.Contains(host, ph.fragment) {
			return ph.provider
		}
	}
	return ProviderUnknown
}

// ParseProvider parses a provider name, returning ProviderUnknown for anything else
func ParseProvider(name string) Provider {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderChatGPT, ProviderClaude, ProviderGemini:
		return p
	default:
		return ProviderUnknown
	}
}

// NewChatURL returns the page that starts a new chat with the provider.
// Unknown providers fall back to ChatGPT.
func (p Provider) NewChatURL() string {
	if u, ok := newChatURLs[p]; ok {
		return u
	}
	return newChatURLs[ProviderChatGPT]
}

// Title returns the capitalized provider name for display
func (p Provider) Title() string {
	switch p {
	case ProviderChatGPT:
		return "ChatGPT"
	case ProviderClaude:
		return "Claude"
	case ProviderGemini:
		return "Gemini"
	default:
		return "Unknown"
	}
}

// Role is the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RoleFromHint maps a DOM role signal to a Role. Only a positive "user"
// signal yields RoleUser, everything else is attributed to the assistant.
func RoleFromHint(hint string) Role {
	if strings.EqualFold(strings.TrimSpace(hint), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

// Memory is one record from the backend's stored_memories list.
// The backend owns its shape; only "type" is interpreted here.
type Memory map[string]any

// Type returns the memory type, or "unknown" when absent
func (m Memory) Type() string {
	if t, ok := m["type"].(string); ok && t != "" {
		return t
	}
	return "unknown"
}

// RenderedContext holds the prompts produced by the backend
type RenderedContext struct {
	Provider     string `json:"provider,omitempty"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

// ProcessedContext is the backend response for a processed conversation
type ProcessedContext struct {
	RenderedContext RenderedContext  `json:"rendered_context"`
	StoredMemories  []Memory         `json:"stored_memories"`
	PolicyDecisions []map[string]any `json:"policy_decisions,omitempty"`
	Metadata        map[string]any   `json:"metadata"`
}

// MemoryCount is one row of a memory breakdown
type MemoryCount struct {
	Type  string
	Count int
}

// MemoryBreakdown counts stored memories per type in first-seen order
func (pc *ProcessedContext) MemoryBreakdown() []MemoryCount {
	if pc == nil {
		return nil
	}
	index := make(map[string]int)
	var counts []MemoryCount
	for _, m := range pc.StoredMemories {
		t := m.Type()
		if i, ok := index[t]; ok {
			counts[i].Count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, MemoryCount{Type: t, Count: 1})
	}
	return counts
}

// FullContext joins the system prompt and user context the way the copy action does
func (pc *ProcessedContext) FullContext() string {
	if pc == nil {
		return ""
	}
	return fmt.Sprintf("=== SYSTEM PROMPT ===\n%s\n\n=== USER CONTEXT ===\n%s",
		pc.RenderedContext.SystemPrompt, pc.RenderedContext.UserPrompt)
}

// JSON returns the processed context as indented JSON
func (pc *ProcessedContext) JSON() (string, error) {
	data, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal processed context: %w", err)
	}
	return string(data), nil
}

// ParseProcessedContext decodes a backend response body, defaulting absent fields to empty
func ParseProcessedContext(data []byte) (*ProcessedContext, error) {
	var pc ProcessedContext
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, &ParseError{Source: "backend", Key: "processed_context", Err: err}
	}
	if pc.StoredMemories == nil {
		pc.StoredMemories = []Memory{}
	}
	if pc.Metadata == nil {
		pc.Metadata = map[string]any{}
	}
	return &pc, nil
}

package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/dom"
	"github.com/iksnae/context-capture/internal/session"
	"github.com/iksnae/context-capture/testutil"
	"github.com/stretchr/testify/require"
)

var captureTime = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestExtractor(provider internal.Provider) Extractor {
	resolver := session.NewResolver(internal.NewMemoryStore(),
		session.WithClock(func() time.Time { return captureTime }),
		session.WithSuffix(func() string { return "abcdefghi" }),
	)
	return For(provider, resolver, WithClock(func() time.Time { return captureTime }))
}

func parse(t *testing.T, html string) dom.Node {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// pageChromeHTML has no conversation container, only a toast whose class
// names look like a message
const pageChromeHTML = `<html><body>
<div class="toast error-message">Something went wrong</div>
<div class="sidebar"><span class="response-time">2s</span></div>
</body></html>`

func TestExtract_Fixtures(t *testing.T) {
	tests := []struct {
		name      string
		provider  internal.Provider
		html      string
		url       string
		want      []internal.Message
		wantError string
	}{
		{
			name:     "chatgpt author roles",
			provider: internal.ProviderChatGPT,
			html:     testutil.ChatGPTConversationHTML,
			url:      "https://chatgpt.com/c/abc-123",
			want: []internal.Message{
				{Role: internal.RoleUser, Content: "What is Go?"},
				{Role: internal.RoleAssistant, Content: "Go is a programming language.\n\nIt was designed at Google."},
				{Role: internal.RoleUser, Content: "Show me an example"},
			},
		},
		{
			name:     "chatgpt turn test ids default to assistant",
			provider: internal.ProviderChatGPT,
			html:     testutil.ChatGPTTurnTestIDHTML,
			url:      "https://chatgpt.com/",
			want: []internal.Message{
				{Role: internal.RoleAssistant, Content: "Hi there"},
				{Role: internal.RoleAssistant, Content: "Hello! How can I help?"},
			},
		},
		{
			name:     "claude test ids",
			provider: internal.ProviderClaude,
			html:     testutil.ClaudeConversationHTML,
			url:      "https://claude.ai/chat/1",
			want: []internal.Message{
				{Role: internal.RoleUser, Content: "Summarize this article"},
				{Role: internal.RoleAssistant, Content: "Here is a summary."},
			},
		},
		{
			name:     "claude font classes",
			provider: internal.ProviderClaude,
			html:     testutil.ClaudeFontClassHTML,
			url:      "https://claude.ai/chat/2",
			want: []internal.Message{
				{Role: internal.RoleUser, Content: "First question"},
				{Role: internal.RoleAssistant, Content: "First answer"},
			},
		},
		{
			name:      "claude without container",
			provider:  internal.ProviderClaude,
			html:      testutil.ClaudeNoContainerHTML,
			url:       "https://claude.ai/new",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:     "gemini custom elements",
			provider: internal.ProviderGemini,
			html:     testutil.GeminiConversationHTML,
			url:      "https://gemini.google.com/app/1",
			want: []internal.Message{
				{Role: internal.RoleUser, Content: "Plan a trip to Kyoto"},
				{Role: internal.RoleAssistant, Content: "Day 1: Fushimi Inari."},
				{Role: internal.RoleUser, Content: "Make it three days"},
			},
		},
		{
			name:     "gemini class names keep outermost",
			provider: internal.ProviderGemini,
			html:     testutil.GeminiClassHTML,
			url:      "https://gemini.google.com/app/2",
			want: []internal.Message{
				{Role: internal.RoleUser, Content: "What's the weather?"},
				{Role: internal.RoleAssistant, Content: "Sunny and 22 degrees."},
			},
		},
		{
			name:      "chatgpt empty page",
			provider:  internal.ProviderChatGPT,
			html:      testutil.EmptyPageHTML,
			url:       "https://chatgpt.com/",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:     "chatgpt turns outside any container",
			provider: internal.ProviderChatGPT,
			html:     `<html><body><div data-message-author-role="user">Loose turn</div></body></html>`,
			url:      "https://chatgpt.com/",
			want:     []internal.Message{{Role: internal.RoleUser, Content: "Loose turn"}},
		},
		{
			name:      "chatgpt page chrome only",
			provider:  internal.ProviderChatGPT,
			html:      pageChromeHTML,
			url:       "https://chatgpt.com/",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:      "claude page chrome only",
			provider:  internal.ProviderClaude,
			html:      pageChromeHTML,
			url:       "https://claude.ai/new",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:      "gemini page chrome only",
			provider:  internal.ProviderGemini,
			html:      pageChromeHTML,
			url:       "https://gemini.google.com/app",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:      "gemini empty page",
			provider:  internal.ProviderGemini,
			html:      testutil.EmptyPageHTML,
			url:       "https://gemini.google.com/app",
			want:      []internal.Message{},
			wantError: NoConversationFound,
		},
		{
			name:      "unknown provider",
			provider:  internal.ProviderUnknown,
			html:      testutil.ChatGPTConversationHTML,
			url:       "https://example.com/",
			want:      []internal.Message{},
			wantError: UnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := newTestExtractor(tt.provider)
			require.Equal(t, tt.provider, ext.Provider())

			conv, err := ext.Extract(context.Background(), parse(t, tt.html), mustURL(t, tt.url))
			require.NoError(t, err)
			require.NotNil(t, conv)
			require.Equal(t, tt.provider, conv.Provider)
			require.Equal(t, tt.want, conv.Messages)
			require.Equal(t, tt.wantError, conv.Error)
			require.Equal(t, captureTime, conv.Timestamp)
			require.Equal(t, tt.url, conv.URL)
		})
	}
}

func TestExtract_SessionID(t *testing.T) {
	ctx := context.Background()

	conv, err := newTestExtractor(internal.ProviderChatGPT).
		Extract(ctx, parse(t, testutil.ChatGPTConversationHTML), mustURL(t, "https://chatgpt.com/c/abc-123"))
	require.NoError(t, err)
	require.Equal(t, "abc-123", conv.SessionID)

	conv, err = newTestExtractor(internal.ProviderGemini).
		Extract(ctx, parse(t, testutil.GeminiConversationHTML), mustURL(t, "https://gemini.google.com/app"))
	require.NoError(t, err)
	require.Equal(t, "gemini-1792152000000-abcdefghi", conv.SessionID)
}

func TestExtract_TurnCount(t *testing.T) {
	ext := newTestExtractor(internal.ProviderChatGPT)
	loc := mustURL(t, "https://chatgpt.com/")

	for _, n := range []int{0, 1, 2, 7, 40} {
		t.Run(fmt.Sprintf("%d turns", n), func(t *testing.T) {
			conv, err := ext.Extract(context.Background(), parse(t, testutil.ChatGPTTurnsHTML(n)), loc)
			require.NoError(t, err)
			require.Len(t, conv.Messages, n)
			for i, msg := range conv.Messages {
				require.Equal(t, fmt.Sprintf("turn %d", i), msg.Content)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	ext := newTestExtractor(internal.ProviderClaude)
	loc := mustURL(t, "https://claude.ai/chat/1")

	first, err := ext.Extract(context.Background(), parse(t, testutil.ClaudeConversationHTML), loc)
	require.NoError(t, err)
	second, err := ext.Extract(context.Background(), parse(t, testutil.ClaudeConversationHTML), loc)
	require.NoError(t, err)
	require.Equal(t, first.Messages, second.Messages)
	require.Equal(t, first.SessionID, second.SessionID)
}

// panicNode blows up on any query after the container lookup
type panicNode struct{ dom.Node }

func (p panicNode) First(string) (dom.Node, bool) { return p, true }
func (p panicNode) FindOutermost(string) []dom.Node {
	panic("detached node")
}

func TestExtract_RecoversPanics(t *testing.T) {
	ext := newTestExtractor(internal.ProviderGemini)
	conv, err := ext.Extract(context.Background(), panicNode{}, mustURL(t, "https://gemini.google.com/app"))
	require.Nil(t, conv)

	var extractionErr *internal.ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	require.Equal(t, internal.ProviderGemini, extractionErr.Provider)
	require.Contains(t, err.Error(), "detached node")
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(internal.ProviderClaude).
		Extract(ctx, parse(t, testutil.ClaudeConversationHTML), mustURL(t, "https://claude.ai/"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRoleHeuristics(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="a" data-message-author-role="user">x</div>
		<div id="b"><span data-message-author-role="assistant">y</span></div>
		<div id="c" class="Query-Bubble">z</div>
		<div id="d" class="font-user-message">w</div>
	</body></html>`)

	node := func(id string) dom.Node {
		n, ok := doc.First("#" + id)
		require.True(t, ok)
		return n
	}

	require.Equal(t, internal.RoleUser, chatGPTRole(node("a")))
	require.Equal(t, internal.RoleAssistant, chatGPTRole(node("b")))
	require.Equal(t, internal.RoleAssistant, chatGPTRole(node("c")))
	require.Equal(t, internal.RoleUser, geminiRole(node("c")))
	require.Equal(t, internal.RoleUser, claudeRole(node("d")))
	require.Equal(t, internal.RoleAssistant, claudeRole(node("a")))
}

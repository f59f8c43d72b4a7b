package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// ChatGPTConversationHTML has four author-tagged turns, one of them blank
const ChatGPTConversationHTML = `<!DOCTYPE html>
<html><head><title>Go question</title></head><body>
<nav><a href="/c/older">Older chat</a></nav>
<main>
  <div data-testid="conversation-turn-1">
    <div data-message-author-role="user"><div class="whitespace-pre-wrap">   What is Go?  </div></div>
  </div>
  <div data-testid="conversation-turn-2">
    <div data-message-author-role="assistant">
      <div class="markdown prose"><p>Go is a programming language.</p><p>It was designed at Google.</p></div>
    </div>
  </div>
  <div data-testid="conversation-turn-3">
    <div data-message-author-role="user"><div class="whitespace-pre-wrap">   </div></div>
  </div>
  <div data-testid="conversation-turn-4">
    <div data-message-author-role="user"><div class="whitespace-pre-wrap">Show me an example</div></div>
  </div>
</main>
</body></html>`

// ChatGPTTurnTestIDHTML only carries conversation-turn test ids, no author roles
const ChatGPTTurnTestIDHTML = `<html><body><main>
  <article data-testid="conversation-turn-1"><div class="text-base">Hi there</div></article>
  <article data-testid="conversation-turn-2"><div class="markdown">Hello! How can I help?</div></article>
</main></body></html>`

// ClaudeConversationHTML has two real turns, one blank turn and a decoy outside the container
const ClaudeConversationHTML = `<html><body>
<nav><div data-testid="message-nav">Recent chats</div></nav>
<div data-testid="conversation-content">
  <div data-testid="chat-message-1">
    <div data-testid="user-message"><p class="font-user-message">Summarize this article</p></div>
  </div>
  <div data-testid="chat-message-2">
    <div class="font-claude-message"><p>Here is a summary.</p></div>
  </div>
  <div data-testid="chat-message-3"><div class="font-claude-message">  </div></div>
</div>
</body></html>`

// ClaudeFontClassHTML has no message test ids, only font classes
const ClaudeFontClassHTML = `<html><body><main>
  <div class="font-user-message">First question</div>
  <div class="font-claude-message">First answer</div>
</main></body></html>`

// ClaudeNoContainerHTML lacks both conversation containers
const ClaudeNoContainerHTML = `<html><body>
<div class="sidebar"><div data-testid="user-message">stray sidebar text</div></div>
</body></html>`

// GeminiConversationHTML uses the custom query/response elements
const GeminiConversationHTML = `<html><body><main><chat-window>
  <div class="conversation-container">
    <user-query><div class="query-text">Plan a trip to Kyoto</div></user-query>
    <model-response><message-content><div class="markdown">Day 1: Fushimi Inari.</div></message-content></model-response>
  </div>
  <div class="conversation-container">
    <user-query><div class="query-text">Make it three days</div></user-query>
    <model-response><message-content>  </message-content></model-response>
  </div>
</chat-window></main></body></html>`

// GeminiClassHTML only has class-name signals, with nested matches
const GeminiClassHTML = `<html><body><main>
  <div class="user-query-bubble"><span class="query-text">What's the weather?</span></div>
  <div class="response-container"><div class="response-text">Sunny and 22 degrees.</div></div>
</main></body></html>`

// EmptyPageHTML has no chat markup at all
const EmptyPageHTML = `<html><body><p>Nothing to see here</p></body></html>`

// ChatGPTTurnsHTML builds a ChatGPT page with n alternating turns
func ChatGPTTurnsHTML(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		fmt.Fprintf(&b, `<div data-message-author-role="%s"><div class="markdown">turn %d</div></div>`, role, i)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// ProcessedContextJSON is a backend /api/process response
const ProcessedContextJSON = `{
  "rendered_context": {
    "provider": "chatgpt",
    "system_prompt": "You are helping a Go developer.",
    "user_prompt": "The user prefers concise answers."
  },
  "stored_memories": [
    {"type": "fact", "content": "uses Go"},
    {"type": "fact", "content": "lives in Kyoto"},
    {"type": "preference", "content": "concise"}
  ],
  "policy_decisions": [{"policy": "pii", "action": "allow"}],
  "metadata": {"memories_retrieved": 3}
}`

// CreateSQLiteFixture creates a kv database file with one stored setting
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(kvTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertKV(t, db, "settings:apiBase", `"http://localhost:9000"`)
}

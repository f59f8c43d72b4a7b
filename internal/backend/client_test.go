package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/testutil"
	"github.com/stretchr/testify/require"
)

func sampleConversation() *internal.Conversation {
	return internal.NewConversation(internal.ProviderClaude, "claude-1-abc", []internal.Message{
		{Role: internal.RoleUser, Content: "a"},
		{Role: internal.RoleAssistant, Content: "b"},
		{Role: internal.RoleUser, Content: "c"},
	}, time.Now(), "https://claude.ai/chat/1")
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(sampleConversation())
	require.NoError(t, err)

	require.Equal(t, "c", req.ConversationInput.UserMessage)
	require.Equal(t, "claude-1-abc", req.ConversationInput.SessionID)
	require.Len(t, req.ConversationInput.ConversationHistory, 3)
	require.Equal(t, "a", req.ConversationInput.ConversationHistory[0].Content)
	require.Equal(t, "c", req.ConversationInput.ConversationHistory[2].Content)
	require.Equal(t, internal.ProviderClaude, req.TargetProvider)
	require.True(t, req.RetrieveContext)
	require.True(t, req.ApplyPolicies)
}

func TestNewRequest_Empty(t *testing.T) {
	empty := internal.EmptyConversation(internal.ProviderClaude, "No conversation found", time.Now(), "")
	_, err := NewRequest(empty)
	require.ErrorIs(t, err, internal.ErrExtractionEmpty)
}

func TestRequest_WireFormat(t *testing.T) {
	req, err := NewRequest(sampleConversation())
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"conversation_input": {
			"session_id": "claude-1-abc",
			"user_message": "c",
			"conversation_history": [
				{"role": "user", "content": "a"},
				{"role": "assistant", "content": "b"},
				{"role": "user", "content": "c"}
			]
		},
		"target_provider": "claude",
		"retrieve_context": true,
		"apply_policies": true
	}`, string(data))
}

func TestProcess_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/process" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.ConversationInput.UserMessage != "c" {
			t.Errorf("expected user_message c, got %q", req.ConversationInput.UserMessage)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(testutil.ProcessedContextJSON))
	}))
	defer server.Close()

	req, _ := NewRequest(sampleConversation())
	pc, err := NewClient(server.URL+"/").Process(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "You are helping a Go developer.", pc.RenderedContext.SystemPrompt)
	require.Equal(t, []internal.MemoryCount{{Type: "fact", Count: 2}, {Type: "preference", Count: 1}}, pc.MemoryBreakdown())
}

func TestProcess_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("server error"))
	}))
	defer server.Close()

	req, _ := NewRequest(sampleConversation())
	_, err := NewClient(server.URL).Process(context.Background(), req)

	var backendErr *internal.BackendError
	require.True(t, errors.As(err, &backendErr))
	require.Equal(t, 500, backendErr.StatusCode)
	require.Equal(t, "server error", backendErr.Body)
	require.Contains(t, err.Error(), "500")
}

func TestProcess_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	req, _ := NewRequest(sampleConversation())
	_, err := NewClient(baseURL).Process(context.Background(), req)

	var networkErr *internal.NetworkError
	require.True(t, errors.As(err, &networkErr))
	require.Equal(t, baseURL+"/api/process", networkErr.URL)
}

func TestProcess_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy page</html>"))
	}))
	defer server.Close()

	req, _ := NewRequest(sampleConversation())
	_, err := NewClient(server.URL).Process(context.Background(), req)

	var parseErr *internal.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"degraded","subsystems":{"redis":true,"qdrant":false}}`))
	}))
	defer server.Close()

	h, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	require.False(t, h.Healthy())
	require.False(t, h.Subsystems["qdrant"])
	require.True(t, h.Subsystems["redis"])
}

func TestMemoryStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/api/memory/stats/chatgpt-1-a%2Fb" {
			t.Errorf("unexpected path %s", got)
		}
		_, _ = w.Write([]byte(`{"working_memory_count":3}`))
	}))
	defer server.Close()

	stats, err := NewClient(server.URL).MemoryStats(context.Background(), "chatgpt-1-a/b")
	require.NoError(t, err)
	require.EqualValues(t, 3, stats["working_memory_count"])
}

func TestNewClient_Defaults(t *testing.T) {
	require.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	require.Equal(t, "http://example.com", NewClient("http://example.com///").BaseURL())
}

var _ Processor = (*Client)(nil)

// Package backend is the client for the context processing service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iksnae/context-capture/internal"
)

// DefaultBaseURL is where the processing service listens by default
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody caps how much of a failed response is kept
const maxErrorBody = 64 << 10

// ConversationInput is the conversation part of a process request
type ConversationInput struct {
	SessionID           string             `json:"session_id"`
	UserMessage         string             `json:"user_message"`
	ConversationHistory []internal.Message `json:"conversation_history"`
}

// Request is the body of POST /api/process
type Request struct {
	ConversationInput ConversationInput `json:"conversation_input"`
	TargetProvider    internal.Provider `json:"target_provider"`
	RetrieveContext   bool              `json:"retrieve_context"`
	ApplyPolicies     bool              `json:"apply_policies"`
}

// NewRequest builds the process request for a conversation: the last
// message is the user message and every message is history, in order.
func NewRequest(conv *internal.Conversation) (Request, error) {
	last, ok := conv.LastMessage()
	if !ok {
		return Request{}, internal.ErrExtractionEmpty
	}
	return Request{
		ConversationInput: ConversationInput{
			SessionID:           conv.SessionID,
			UserMessage:         last.Content,
			ConversationHistory: conv.History(),
		},
		TargetProvider:  conv.Provider,
		RetrieveContext: true,
		ApplyPolicies:   true,
	}, nil
}

// Processor submits conversations for processing
type Processor interface {
	Process(ctx context.Context, req Request) (*internal.ProcessedContext, error)
}

// Health is the service's GET /health response
type Health struct {
	Status     string          `json:"status"`
	Subsystems map[string]bool `json:"subsystems"`
}

// Healthy reports whether the service says every subsystem is up
func (h *Health) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// Client talks to the processing service over HTTP. It sets no timeout of
// its own; callers bound requests through ctx.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Process submits a conversation and decodes the processed context.
// Non-2xx responses return *internal.BackendError with the body verbatim;
// transport failures return *internal.NetworkError.
func (c *Client) Process(ctx context.Context, req Request) (*internal.ProcessedContext, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/api/process", body)
	if err != nil {
		return nil, err
	}

	pc, err := internal.ParseProcessedContext(data)
	if err != nil {
		return nil, err
	}
	internal.LogDebug("processed session %s: %d memories", req.ConversationInput.SessionID, len(pc.StoredMemories))
	return pc, nil
}

// Health queries GET /health
func (c *Client) Health(ctx context.Context) (*Health, error) {
	data, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, &internal.ParseError{Source: "backend", Key: "health", Err: err}
	}
	return &h, nil
}

// MemoryStats queries GET /api/memory/stats/{session_id}
func (c *Client) MemoryStats(ctx context.Context, sessionID string) (map[string]any, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/memory/stats/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	stats := map[string]any{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, &internal.ParseError{Source: "backend", Key: "memory_stats", Err: err}
	}
	return stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &internal.NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		internal.LogWarn("backend %s %s returned %d", method, path, resp.StatusCode)
		return nil, &internal.BackendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &internal.NetworkError{URL: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}
	return data, nil
}

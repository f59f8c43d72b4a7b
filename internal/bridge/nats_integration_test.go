//go:build integration

package bridge

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/testutil"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_NATSRequestReply(t *testing.T) {
	natsURL := skipWithoutNATS(t)

	nc, err := Connect(natsURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer nc.Close()

	prefix := "context-capture-test-" + uuid.NewString()[:8]
	tabID := uuid.NewString()
	agent := newAgent(t, "https://claude.ai/chat/1", testutil.ClaudeConversationHTML)

	sub, err := ServeNATS(nc, prefix, tabID, agent)
	if err != nil {
		t.Fatalf("ServeNATS failed: %v", err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b := NewNATSBridge(nc, prefix)
	resp, err := b.RequestExtraction(ctx, Tab{ID: tabID})
	if err != nil {
		t.Fatalf("RequestExtraction failed: %v", err)
	}
	if resp.Conversation == nil || len(resp.Conversation.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %+v", resp)
	}

	resp, err = b.Send(ctx, Tab{ID: tabID}, Request{Action: "ping"})
	if err != nil || resp.Error == "" {
		t.Errorf("expected error reply for unknown action, got %+v, %v", resp, err)
	}

	_, err = b.RequestExtraction(ctx, Tab{ID: "no-such-tab"})
	var transportErr *internal.TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("expected TransportError for missing tab, got %v", err)
	}
}

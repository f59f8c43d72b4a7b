package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/context-capture/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		conv    *internal.Conversation
		wantErr bool
	}{
		{
			name:    "basic conversation",
			conv:    internal.CreateTestConversation("test1"),
			wantErr: false,
		},
		{
			name:    "empty conversation",
			conv:    internal.CreateTestConversationWithMessages("test2", []internal.Message{}),
			wantErr: false,
		},
		{
			name:    "failed extraction",
			conv:    internal.EmptyConversation(internal.ProviderClaude, "No conversation found", time.Now(), "https://claude.ai/chat/x"),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.conv, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				var conv internal.Conversation
				if err := json.Unmarshal([]byte(output), &conv); err != nil {
					t.Errorf("Output is not valid JSON: %v\nOutput: %s", err, output)
					return
				}

				if conv.SessionID != tt.conv.SessionID {
					t.Errorf("sessionId = %q, want %q", conv.SessionID, tt.conv.SessionID)
				}
				if len(conv.Messages) != len(tt.conv.Messages) {
					t.Errorf("got %d messages, want %d", len(conv.Messages), len(tt.conv.Messages))
				}
				if !strings.Contains(output, `"messages": [`) {
					t.Errorf("Output should always carry a messages array:\n%s", output)
				}
				if !strings.Contains(output, "  ") {
					t.Errorf("Output should be pretty-printed with indentation")
				}
			}
		})
	}
}

func TestJSONExporter_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(internal.CreateTestConversation("ok"), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"error"`) {
		t.Errorf("successful extraction should omit error:\n%s", buf.String())
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}

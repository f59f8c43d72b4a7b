package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/context-capture/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		conv    *internal.Conversation
		want    []string
		wantErr bool
	}{
		{
			name:    "empty conversation",
			conv:    internal.CreateTestConversationWithMessages("test1", []internal.Message{}),
			want:    []string{},
			wantErr: false,
		},
		{
			name: "conversation with messages",
			conv: internal.CreateTestConversation("test2"),
			want: []string{
				`"role":"user"`,
				`"role":"assistant"`,
				`"sessionId":"test2"`,
				`"provider":"chatgpt"`,
			},
			wantErr: false,
		},
		{
			name: "multiline content",
			conv: internal.CreateTestConversationWithMessages("test3", []internal.Message{
				{Role: internal.RoleUser, Content: "line one\nline two"},
			}),
			want: []string{
				`"content":"line one\nline two"`,
				`"index":0`,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(tt.conv, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			output := buf.String()
			if len(tt.conv.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty conversation should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != len(tt.conv.Messages) {
				t.Errorf("got %d lines, want %d", len(lines), len(tt.conv.Messages))
			}
			for i, line := range lines {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Line %d is not valid JSON: %v", i, err)
				}
				for _, field := range []string{"role", "content", "index"} {
					if _, ok := msg[field]; !ok {
						t.Errorf("Line %d missing %q field", i, field)
					}
				}
			}

			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q\n%s", wantStr, output)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}

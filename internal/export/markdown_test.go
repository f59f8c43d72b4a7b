package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/context-capture/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		conv    *internal.Conversation
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "basic conversation",
			conv: internal.CreateTestConversation("test1"),
			want: []string{
				"# ChatGPT conversation test1",
				"**URL:** https://chatgpt.com/c/test1",
				"**Captured:** 2026-01-02T15:04:05Z",
				"**Messages:** 2",
				"**user:**",
				"**assistant:**",
				"Hello, how are you?",
			},
			wantErr: false,
		},
		{
			name: "failed extraction",
			conv: internal.EmptyConversation(internal.ProviderGemini, "No conversation found", time.Time{}, ""),
			want: []string{
				"# Gemini conversation",
				"**Messages:** 0",
				"> No conversation found",
			},
			notWant: []string{"**URL:**", "**Captured:**"},
			wantErr: false,
		},
		{
			name: "escapes bold markers",
			conv: internal.CreateTestConversationWithMessages("test3", []internal.Message{
				{Role: internal.RoleUser, Content: "make it **bold**"},
			}),
			want:    []string{`make it \*\*bold\*\*`},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			err := exporter.Export(tt.conv, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("MarkdownExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_SeparatorsBetweenMessages(t *testing.T) {
	var buf bytes.Buffer
	conv := internal.CreateTestConversationWithMessages("sep", []internal.Message{
		{Role: internal.RoleUser, Content: "a"},
		{Role: internal.RoleAssistant, Content: "b"},
		{Role: internal.RoleUser, Content: "c"},
	})
	if err := (&MarkdownExporter{}).Export(conv, &buf); err != nil {
		t.Fatal(err)
	}

	body := buf.String()[strings.Index(buf.String(), "## Messages"):]
	if got := strings.Count(body, "---"); got != 2 {
		t.Errorf("got %d separators between 3 messages, want 2", got)
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:   "Regular text **bold** and ```code```",
			want:    []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant: []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}

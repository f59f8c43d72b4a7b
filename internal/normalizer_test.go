package internal

import (
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		input Role
		want  Role
	}{
		{RoleUser, RoleUser},
		{RoleAssistant, RoleAssistant},
		{"", RoleAssistant},       // default
		{"system", RoleAssistant}, // default
	}

	for _, tt := range tests {
		got := normalizer.normalizeRole(tt.input)
		if got != tt.want {
			t.Errorf("normalizeRole(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTurns(t *testing.T) {
	normalizer := NewNormalizer()

	tests := []struct {
		name  string
		turns []RawTurn
		want  []Message
	}{
		{
			name:  "no turns",
			turns: nil,
			want:  []Message{},
		},
		{
			name: "trims and keeps order",
			turns: []RawTurn{
				{Role: RoleUser, Content: "  a  "},
				{Role: RoleAssistant, Content: "\nb\n"},
				{Role: RoleUser, Content: "c"},
			},
			want: []Message{
				{Role: RoleUser, Content: "a"},
				{Role: RoleAssistant, Content: "b"},
				{Role: RoleUser, Content: "c"},
			},
		},
		{
			name: "skips blank turns",
			turns: []RawTurn{
				{Role: RoleUser, Content: "   "},
				{Role: RoleAssistant, Content: " "},
				{Role: RoleAssistant, Content: "kept"},
			},
			want: []Message{
				{Role: RoleAssistant, Content: "kept"},
			},
		},
		{
			name: "unifies line endings",
			turns: []RawTurn{
				{Role: "", Content: "line1\r\nline2"},
			},
			want: []Message{
				{Role: RoleAssistant, Content: "line1\nline2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizer.NormalizeTurns(tt.turns)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeTurns() returned %d messages, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("message %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

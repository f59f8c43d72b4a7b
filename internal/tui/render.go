// Package tui renders orchestrator state and hosts the interactive popup.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/orchestrator"
	"github.com/muesli/reflow/wordwrap"
)

const (
	defaultWidth     = 60
	sessionIDPreview = 12
	userPromptLimit  = 500
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)
)

// Options control presentation details that do not come from State
type Options struct {
	// Width is the wrap width; zero uses a default
	Width int
	// Spinner is the current busy-indicator frame
	Spinner string
	// Markdown renders the system prompt. Nil shows it as wrapped text.
	Markdown func(string) (string, error)
	// HideKeys drops the key legend, for non-interactive output
	HideKeys bool
}

// Render draws s. It is a pure function of its inputs.
func Render(s orchestrator.State, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}

	parts := []string{renderHeader()}
	if s.Error != "" {
		parts = append(parts, errorStyle.Render(wrap("⚠ "+s.Error, opts.Width)))
	}

	switch s.Phase {
	case orchestrator.Idle:
		parts = append(parts, renderIdle(opts))
	case orchestrator.Extracting:
		parts = append(parts, busyLine(opts.Spinner, "Extracting conversation..."))
	case orchestrator.Processing:
		parts = append(parts, busyLine(opts.Spinner, "Processing context..."))
	case orchestrator.Extracted:
		parts = append(parts, renderExtracted(s.Conversation, opts))
	case orchestrator.Processed:
		parts = append(parts, renderProcessed(s, opts)...)
	}

	if s.Notice != "" {
		parts = append(parts, noticeStyle.Render(s.Notice))
	}
	parts = append(parts, renderFooter(s.Options.APIBase))
	return joinNonEmpty(parts)
}

func renderHeader() string {
	return headerStyle.Render("Agentic Memory") + " " + mutedStyle.Render("Cognitive continuity across sessions")
}

func renderIdle(opts Options) string {
	lines := []string{
		titleStyle.Render("Ready to Extract Context"),
		mutedStyle.Render("Extract conversation from ChatGPT, Claude, or Gemini"),
	}
	if !opts.HideKeys {
		lines = append(lines, keyLegend([2]string{"e", "extract"}, [2]string{"q", "quit"}))
	}
	return strings.Join(lines, "\n")
}

func busyLine(frame, msg string) string {
	if frame == "" {
		return mutedStyle.Render(msg)
	}
	return frame + " " + mutedStyle.Render(msg)
}

func renderExtracted(conv *internal.Conversation, opts Options) string {
	if conv == nil {
		return ""
	}
	card := strings.Join([]string{
		titleStyle.Render("✓ Conversation Extracted"),
		fmt.Sprintf("Provider:   %s", conv.Provider.Title()),
		fmt.Sprintf("Messages:   %d", len(conv.Messages)),
		fmt.Sprintf("Session ID: %s...", conv.ShortSessionID(sessionIDPreview)),
	}, "\n")

	out := cardStyle.Render(card)
	if !opts.HideKeys {
		out += "\n" + keyLegend([2]string{"p", "process"}, [2]string{"e", "re-extract"}, [2]string{"q", "quit"})
	}
	return out
}

func renderProcessed(s orchestrator.State, opts Options) []string {
	pc := s.Processed
	if pc == nil {
		return nil
	}

	provider := s.Provider
	if s.Conversation != nil {
		provider = s.Conversation.Provider
	}
	parts := []string{cardStyle.Render(strings.Join([]string{
		titleStyle.Render("✅ Context Processed"),
		fmt.Sprintf("Memories Stored: %d", len(pc.StoredMemories)),
		fmt.Sprintf("Provider:        %s", provider.Title()),
	}, "\n"))}

	system := pc.RenderedContext.SystemPrompt
	if strings.TrimSpace(system) != "" {
		parts = append(parts,
			titleStyle.Render(fmt.Sprintf("System Prompt (%d chars)", len(system))),
			renderSystemPrompt(system, opts))
	}

	user := pc.RenderedContext.UserPrompt
	if strings.TrimSpace(user) != "" && user != system {
		parts = append(parts,
			titleStyle.Render(fmt.Sprintf("User Context (%d chars)", len(user))),
			wrap(truncate(user, userPromptLimit), opts.Width))
	}

	if breakdown := pc.MemoryBreakdown(); len(breakdown) > 0 {
		lines := []string{titleStyle.Render("Memory Breakdown")}
		for _, mc := range breakdown {
			lines = append(lines, fmt.Sprintf("  %-14s %d", capitalize(mc.Type), mc.Count))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if !opts.HideKeys {
		parts = append(parts, keyLegend(
			[2]string{"s", "copy system prompt"},
			[2]string{"f", "copy full context"},
			[2]string{"j", "copy JSON"},
			[2]string{"o", "open chat"},
			[2]string{"e", "re-extract"},
			[2]string{"q", "quit"},
		))
	}
	return parts
}

func renderSystemPrompt(text string, opts Options) string {
	if opts.Markdown != nil {
		if out, err := opts.Markdown(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return wrap(text, opts.Width)
}

func renderFooter(apiBase string) string {
	where := "Remote"
	if strings.Contains(apiBase, "localhost") {
		where = "Local"
	}
	return mutedStyle.Render("Backend: " + where)
}

func keyLegend(keys ...[2]string) string {
	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = keyStyle.Render(k[0]) + " " + mutedStyle.Render(k[1])
	}
	return strings.Join(items, "  ")
}

// truncate keeps the first n runes of s, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func wrap(s string, width int) string {
	return wordwrap.String(s, width)
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/iksnae/context-capture/internal/dom"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var (
	limit    int
	showRole string
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	counterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <page.html>",
	Short: "Show the conversation on a saved chat page",
	Long:  `Extract the conversation from an HTML snapshot and display its messages.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var role internal.Role
		switch strings.ToLower(showRole) {
		case "":
		case "user", "assistant":
			role = internal.Role(strings.ToLower(showRole))
		default:
			return fmt.Errorf("invalid --role %q (expected user or assistant)", showRole)
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		doc, err := dom.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to read page: %w", err)
		}
		agent, err := e.documentAgent(bridge.StaticDocument(doc), pageURL, pageProvider)
		if err != nil {
			return err
		}

		resp := agent.Handle(ctx, bridge.Request{Action: bridge.ActionGetConversation})
		if resp.Conversation == nil {
			return &internal.ExtractionError{Provider: agent.Provider(), Err: errors.New(resp.Error)}
		}
		conv := resp.Conversation
		if conv.IsEmpty() {
			internal.PrintWarning(fmt.Sprintf("%s: %s", conv.Provider.Title(), conv.Error))
			return nil
		}

		out := cmd.OutOrStdout()
		displayConversationHeader(out, conv, doc.Title())

		messagesToShow := conv.History()
		if role != "" {
			filtered := make([]internal.Message, 0, len(messagesToShow))
			for _, msg := range messagesToShow {
				if msg.Role == role {
					filtered = append(filtered, msg)
				}
			}
			messagesToShow = filtered
		}

		// Apply limit if specified
		totalFiltered := len(messagesToShow)
		if limit > 0 && limit < len(messagesToShow) {
			messagesToShow = messagesToShow[:limit]
		}

		for i, msg := range messagesToShow {
			displayMessage(out, i+1, msg, totalFiltered)
		}

		// Show remaining count if limit was applied
		if limit > 0 && limit < totalFiltered {
			fmt.Fprintln(out)
			fmt.Fprintln(out, counterStyle.Render(fmt.Sprintf("... (%d more message(s))", totalFiltered-limit)))
		}

		return nil
	},
}

func displayConversationHeader(w io.Writer, conv *internal.Conversation, pageTitle string) {
	header := fmt.Sprintf("💬 %s conversation", conv.Provider.Title())
	if pageTitle != "" {
		header += ": " + pageTitle
	}
	fmt.Fprintln(w, sessionHeaderStyle.Render(header))

	metaParts := []string{fmt.Sprintf("Messages: %d", len(conv.Messages))}
	if conv.SessionID != "" {
		metaParts = append(metaParts, fmt.Sprintf("Session: %s", conv.SessionID))
	}
	if conv.URL != "" {
		metaParts = append(metaParts, conv.URL)
	}
	fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(w)
}

func displayMessage(w io.Writer, index int, msg internal.Message, total int) {
	actorStyle := assistantMessageStyle
	actorLabel := "🤖 Assistant"
	if msg.Role == internal.RoleUser {
		actorStyle = userMessageStyle
		actorLabel = "👤 User"
	}

	fmt.Fprintln(w, actorStyle.Render(actorLabel)+" "+counterStyle.Render(fmt.Sprintf("[%d/%d]", index, total)))
	fmt.Fprintln(w, messageContentStyle.Render(wordwrap.String(msg.Content, 80)))
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(showCmd)
	addPageFlags(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&showRole, "role", "", "Only show messages from this role (user, assistant)")
}

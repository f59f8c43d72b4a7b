package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/iksnae/context-capture/internal/export"
	"github.com/spf13/cobra"
)

var (
	pageURL           string
	pageProvider      string
	extractFormat     string
	extractOutput     string
	extractAllowEmpty bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <page.html>",
	Short: "Extract the conversation from a saved chat page",
	Long: `Run the provider extractor over an HTML snapshot of a chat page and export
the normalized conversation.

The provider is inferred from --url (chatgpt.com, chat.openai.com, claude.ai,
gemini.google.com) unless --provider is given. The session id comes from the
URL when the provider exposes one, else from the key-value store.

Supported formats: json (default), jsonl, yaml, md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		exporter, err := export.NewExporter(extractFormat)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		agent, err := e.fileAgent(args[0], pageURL, pageProvider)
		if err != nil {
			return err
		}

		var resp bridge.Response
		err = internal.ShowProgress(ctx, "Extracting conversation...", func() error {
			resp = agent.Handle(ctx, bridge.Request{Action: bridge.ActionGetConversation})
			if resp.Conversation == nil {
				return &internal.ExtractionError{Provider: agent.Provider(), Err: errors.New(resp.Error)}
			}
			return nil
		})
		if err != nil {
			return err
		}
		conv := resp.Conversation

		if err := writeExport(exporter, conv, extractOutput, cmd.OutOrStdout()); err != nil {
			return err
		}

		if conv.IsEmpty() && !extractAllowEmpty {
			if conv.Error != "" {
				return fmt.Errorf("%w: %s", internal.ErrExtractionEmpty, conv.Error)
			}
			return internal.ErrExtractionEmpty
		}
		internal.LogInfo("extracted %d messages from %s (session %s)", len(conv.Messages), conv.Provider, conv.SessionID)
		return nil
	},
}

// writeExport writes conv to path, or to stdout when path is empty
func writeExport(exporter export.Exporter, conv *internal.Conversation, path string, stdout io.Writer) error {
	if path == "" {
		return exporter.Export(conv, stdout)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	if err := exporter.Export(conv, f); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	internal.PrintSuccess(fmt.Sprintf("Exported to %s", path))
	return nil
}

// addPageFlags registers the flags that locate a page snapshot
func addPageFlags(c *cobra.Command) {
	c.Flags().StringVar(&pageURL, "url", "", "URL the page was captured from")
	c.Flags().StringVar(&pageProvider, "provider", "", "Provider (chatgpt, claude, gemini); inferred from --url when omitted")
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addPageFlags(extractCmd)
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Export format (json, jsonl, yaml, md)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Write to this file instead of stdout")
	extractCmd.Flags().BoolVar(&extractAllowEmpty, "allow-empty", false, "Exit successfully even when no conversation is found")
}

package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/orchestrator"
	"github.com/iksnae/context-capture/internal/tui"
	"github.com/spf13/cobra"
)

var (
	popupAutoExtract bool
	popupPlain       bool
)

// popupCmd represents the popup command
var popupCmd = &cobra.Command{
	Use:   "popup [page.html]",
	Short: "Open the interactive capture popup",
	Long: `Open the capture popup for a chat page.

Keys:
  e  extract the conversation       p  process it
  s  copy the system prompt         f  copy the full context
  j  copy the processed JSON        o  open a new chat
  q  quit

With the autoExtract setting (or --auto-extract) extraction starts as soon
as the popup opens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if !internal.IsTerminal() {
			return fmt.Errorf("popup needs a terminal; use \"process\" for non-interactive runs")
		}

		// Log lines would tear the popup; send them to the log file
		if logFile == "" {
			out, closeLog := popupLogOutput()
			restore := internal.SetLogOutput(out)
			defer func() {
				restore()
				closeLog()
			}()
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		d, cfg, cleanup, err := newDispatcher(ctx, e, args)
		if err != nil {
			return err
		}
		defer cleanup()

		final, err := tui.Run(ctx, tui.Config{
			Dispatcher:  d,
			Options:     orchestrator.Options{APIBase: cfg.APIBase, Watchdog: watchdog},
			AutoExtract: cfg.AutoExtract || popupAutoExtract,
			Markdown:    !popupPlain,
		}, tea.WithAltScreen())
		if err != nil {
			return fmt.Errorf("popup failed: %w", err)
		}
		internal.LogDebug("popup closed in %s", final.Phase)
		return nil
	},
}

// popupLogOutput opens the popup log file, falling back to io.Discard.
// The returned func closes whatever was opened.
func popupLogOutput() (io.Writer, func()) {
	paths, err := internal.DetectStoragePaths()
	if err != nil || paths.EnsureBase() != nil {
		return io.Discard, func() {}
	}
	f, err := openLogFile(paths.LogPath)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}

func init() {
	rootCmd.AddCommand(popupCmd)
	addBridgeFlags(popupCmd)
	popupCmd.Flags().BoolVar(&popupAutoExtract, "auto-extract", false, "Extract as soon as the popup opens")
	popupCmd.Flags().BoolVar(&popupPlain, "plain", false, "Show the system prompt as plain text instead of rendered markdown")
}

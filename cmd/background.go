package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/iksnae/context-capture/internal/settings"
	"github.com/spf13/cobra"
)

var backgroundAddr string

// backgroundCmd represents the background command
var backgroundCmd = &cobra.Command{
	Use:   "background",
	Short: "Serve the settings protocol over HTTP",
	Long: `Run the background settings service. It installs the default settings
when none are stored and answers runtime messages:

  POST /runtime/message  {"action":"getSettings"}
                         {"action":"saveSettings","settings":{"apiBase":"...","autoExtract":true}}
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		svc := e.settings()
		if err := svc.Install(ctx); err != nil {
			return err
		}
		return settings.NewServer(svc, backgroundAddr).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(backgroundCmd)
	backgroundCmd.Flags().StringVar(&backgroundAddr, "addr", "127.0.0.1:8787", "Listen address")
}

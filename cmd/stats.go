package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <session-id>",
	Short: "Show the processing service's memory statistics for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		client, _, err := e.backendClient(ctx)
		if err != nil {
			return err
		}
		stats, err := client.MemoryStats(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch memory stats: %w", err)
		}

		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

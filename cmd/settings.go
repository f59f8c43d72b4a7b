package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/settings"
	"github.com/spf13/cobra"
)

var settingsAutoExtract string

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change the popup settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, func(ctx context.Context, svc *settings.Service) error {
			reply, err := svc.HandleMessage(ctx, []byte(`{"action":"getSettings"}`))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(reply))
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Example: `  context-capture settings set --api-base http://localhost:8000
  context-capture settings set --auto-extract true`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch settings.Patch
		if cmd.Flags().Changed("api-base") {
			patch.APIBase = &apiBase
		}
		if cmd.Flags().Changed("auto-extract") {
			v, err := strconv.ParseBool(settingsAutoExtract)
			if err != nil {
				return fmt.Errorf("invalid --auto-extract: %w", err)
			}
			patch.AutoExtract = &v
		}
		if patch.APIBase == nil && patch.AutoExtract == nil {
			return fmt.Errorf("nothing to set (use --api-base or --auto-extract)")
		}

		return withSettings(cmd, func(ctx context.Context, svc *settings.Service) error {
			reply, err := svc.Handle(ctx, settings.Message{Action: settings.ActionSaveSettings, Settings: &patch})
			if err != nil {
				return err
			}
			if r, ok := reply.(settings.SaveResult); ok && r.Success {
				internal.PrintSuccess("Settings saved")
			}
			return nil
		})
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Write the settings as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(cmd, func(ctx context.Context, svc *settings.Service) error {
			if len(args) == 0 {
				return svc.Export(ctx, cmd.OutOrStdout())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return &internal.ExportError{Format: "yaml", Path: args[0], Err: err}
			}
			defer func() { _ = f.Close() }()
			if err := svc.Export(ctx, f); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Settings exported to %s", args[0]))
			return nil
		})
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Apply settings from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()

		return withSettings(cmd, func(ctx context.Context, svc *settings.Service) error {
			s, err := svc.Import(ctx, f)
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Settings imported (apiBase=%s, autoExtract=%t)", s.APIBase, s.AutoExtract))
			return nil
		})
	},
}

func withSettings(cmd *cobra.Command, fn func(ctx context.Context, svc *settings.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e.settings())
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsExportCmd, settingsImportCmd)
	settingsSetCmd.Flags().StringVar(&settingsAutoExtract, "auto-extract", "", "Extract when the popup opens (true/false)")
}

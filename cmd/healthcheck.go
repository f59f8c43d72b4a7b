package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/settings"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckTimeout time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the store, settings and processing service",
	Long: `Check the health of context-capture by verifying:
  • Storage path detection
  • Key-value store access
  • Saved settings
  • Session store (sqlite, or Redis when --redis is set)
  • Processing service /health

This command is useful for debugging a popup that cannot process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		out := cmd.OutOrStdout()
		line := func(a ...any) { fmt.Fprintln(out, a...) }

		line(sectionStyle.Render("🔍 Context Capture Health Check"))
		line()

		// Step 1: Detect storage paths
		line(infoStyle.Render("Step 1: Detecting storage paths..."))
		paths, err := internal.DetectStoragePaths()
		if err != nil {
			line(errorStyle.Render("❌ Failed to detect storage paths:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		line(successStyle.Render("✅ Storage paths detected"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Base path: %s\n", paths.BasePath)
			fmt.Fprintf(out, "   Store: %s\n", paths.StorePath)
			fmt.Fprintf(out, "   Log: %s\n", paths.LogPath)
		}
		line()

		// Step 2: Open the key-value store
		line(infoStyle.Render("Step 2: Opening key-value store..."))
		e, err := openEnv(parent)
		if err != nil {
			line(errorStyle.Render("❌ Failed to open store:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer e.Close()
		line(successStyle.Render("✅ Store available"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Database: %s\n", e.store.Path())
		}
		line()

		// Step 3: Settings
		line(infoStyle.Render("Step 3: Loading settings..."))
		s, err := e.loadSettings(parent)
		if err != nil {
			line(warningStyle.Render("⚠️  Settings unreadable, using defaults:"), err)
		} else {
			line(successStyle.Render("✅ Settings loaded"))
		}
		fmt.Fprintf(out, "   apiBase: %s\n", s.APIBase)
		fmt.Fprintf(out, "   autoExtract: %t\n", s.AutoExtract)
		if healthcheckVerbose {
			rows, err := e.store.List(parent, settings.KeyPrefix)
			if err != nil {
				line(warningStyle.Render("⚠️  Failed to list stored settings:"), err)
			}
			for _, row := range rows {
				fmt.Fprintf(out, "   %s = %s\n", row.Key, row.Value)
			}
		}
		line()

		// Step 4: Session store
		line(infoStyle.Render("Step 4: Checking session store..."))
		backendName := "sqlite"
		if e.redis != nil {
			backendName = "redis"
		}
		sessions, listed, err := storedSessions(parent, e.sessions)
		switch {
		case err != nil:
			line(warningStyle.Render(fmt.Sprintf("⚠️  Failed to list %s session ids:", backendName)), err)
		case listed:
			line(successStyle.Render(fmt.Sprintf("✅ %s session store holds %d session id(s)", backendName, len(sessions))))
		default:
			line(successStyle.Render(fmt.Sprintf("✅ %s session store reachable", backendName)))
		}
		if healthcheckVerbose {
			for _, pair := range sessions {
				fmt.Fprintf(out, "   %s = %s\n", pair.Key, pair.Value)
			}
		}
		line()

		// Step 5: Processing service
		line(infoStyle.Render("Step 5: Checking processing service..."))
		ctx, cancel := context.WithTimeout(parent, healthcheckTimeout)
		defer cancel()
		client, _, err := e.backendClient(ctx)
		if err != nil {
			return err
		}
		health, err := client.Health(ctx)

		line(sectionStyle.Render("📊 Summary"))
		line()
		switch {
		case err != nil:
			line(errorStyle.Render("❌ Processing service unavailable:"), err)
			fmt.Fprintf(out, "   Is backend running on %s?\n", client.BaseURL())
			return fmt.Errorf("health check failed: backend unreachable")
		case health.Healthy():
			line(successStyle.Render("✅ Health check passed!"))
		default:
			line(warningStyle.Render(fmt.Sprintf("⚠️  Processing service is %s", health.Status)))
		}
		if healthcheckVerbose || !health.Healthy() {
			names := make([]string, 0, len(health.Subsystems))
			for name := range health.Subsystems {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				mark := "✅"
				if !health.Subsystems[name] {
					mark = "❌"
				}
				fmt.Fprintf(out, "   %s %s\n", mark, name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "Processing service timeout")
}

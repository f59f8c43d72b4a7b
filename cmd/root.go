package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/context-capture/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	storePath string
	redisURL  string
	keyScope  string
	apiBase   string
	logFile   string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "context-capture",
	Short: "Capture AI chat conversations and carry their context across sessions",
	Long: `Capture conversations from ChatGPT, Claude and Gemini chat pages and send
them to a context processing service that remembers what matters.

A page agent owns one chat page (an HTML snapshot) and extracts its turns on
request. The popup drives the capture: extract, process, then copy the
rendered system prompt or full context into a new chat.

Quick Start:
  context-capture extract page.html --url https://chatgpt.com/c/abc   # Extract to JSON
  context-capture process page.html --url https://claude.ai/chat/1    # Extract and process
  context-capture popup page.html --url https://gemini.google.com/app # Interactive popup
  context-capture settings get                                        # Show settings`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		if logFile != "" {
			f, err := openLogFile(logFile)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			restore := internal.SetLogOutput(f)
			closeLogFile = func() {
				restore()
				_ = f.Close()
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		finishLogFile()
	},
}

// closeLogFile undoes --log-file; nil when logs go to stderr
var closeLogFile func()

// finishLogFile restores stderr logging and closes the --log-file handle
func finishLogFile() {
	if closeLogFile != nil {
		closeLogFile()
		closeLogFile = nil
	}
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	finishLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Key-value store database (default ~/.context-capture/store.db)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis URL for session ids shared across machines (optional)")
	rootCmd.PersistentFlags().StringVar(&keyScope, "key-scope", "shared", "Session id storage key scope: shared or provider")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "Processing service URL (overrides the saved setting)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

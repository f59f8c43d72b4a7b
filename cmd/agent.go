package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/spf13/cobra"
)

// agentCmd represents the agent command
var agentCmd = &cobra.Command{
	Use:   "agent <page.html>",
	Short: "Serve a chat page as a page agent over NATS",
	Long: `Start a page agent for an HTML snapshot and answer getConversation
requests on NATS until interrupted. The snapshot is re-read on every request,
so a page saved again is picked up without a restart.

Point "process --nats" or "popup --nats" at the same server and tab id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if natsURL == "" {
			return fmt.Errorf("--nats is required")
		}
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

		agent, err := e.fileAgent(args[0], pageURL, pageProvider)
		if err != nil {
			return err
		}

		id := tabID
		if id == "" {
			id = uuid.NewString()
		}
		subject, err := bridge.Subject(natsPrefix, id)
		if err != nil {
			return err
		}

		nc, err := bridge.Connect(natsURL)
		if err != nil {
			return err
		}
		defer nc.Close()

		sub, err := bridge.ServeNATS(nc, natsPrefix, id, agent)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()

		internal.PrintSuccess(fmt.Sprintf("Page agent for %s serving tab %s", agent.Provider().Title(), id))
		internal.PrintInfo(fmt.Sprintf("Subject: %s", subject))

		<-ctx.Done()
		internal.LogInfo("page agent for tab %s stopping", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)
	addPageFlags(agentCmd)
	agentCmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL")
	agentCmd.Flags().StringVar(&natsPrefix, "subject-prefix", bridge.DefaultSubjectPrefix, "NATS subject prefix")
	agentCmd.Flags().StringVar(&tabID, "tab", "", "Tab id to serve (random when omitted)")
}

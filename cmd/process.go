package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iksnae/context-capture/internal"
	"github.com/iksnae/context-capture/internal/bridge"
	"github.com/iksnae/context-capture/internal/orchestrator"
	"github.com/iksnae/context-capture/internal/tui"
	"github.com/spf13/cobra"
)

var (
	natsURL     string
	natsPrefix  string
	tabID       string
	watchdog    time.Duration
	processCopy string
	processOpen bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [page.html]",
	Short: "Extract a conversation and send it to the processing service",
	Long: `Run the capture workflow without the popup: extract the conversation,
submit it to the processing service, and print the rendered context.

The page is either an HTML snapshot served in-process, or, with --nats, a
page agent started elsewhere with "context-capture agent" and addressed by
--tab.`,
	Args: cobra.MaximumNArgs(1),
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

		d, cfg, cleanup, err := newDispatcher(ctx, e, args)
		if err != nil {
			return err
		}
		defer cleanup()

		runner := &orchestrator.Runner{Dispatcher: d}
		state := orchestrator.NewState(orchestrator.Options{APIBase: cfg.APIBase, Watchdog: watchdog})

		err = internal.ShowProgress(ctx, "Extracting conversation...", func() error {
			state = runner.Dispatch(ctx, state, orchestrator.StartExtraction{})
			return phaseError(state, orchestrator.Extracted)
		})
		if err != nil {
			return err
		}

		err = internal.ShowProgress(ctx, "Processing context...", func() error {
			state = runner.Dispatch(ctx, state, orchestrator.StartProcessing{})
			return phaseError(state, orchestrator.Processed)
		})
		if err != nil {
			return err
		}

		if processCopy != "" {
			target, err := parseCopyTarget(processCopy)
			if err != nil {
				return err
			}
			state = runner.Dispatch(ctx, state, orchestrator.Copy{Target: target})
		}
		if processOpen {
			state = runner.Dispatch(ctx, state, orchestrator.OpenChat{})
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.Render(state, tui.Options{Width: 80, HideKeys: true}))
		if state.Error != "" {
			return errors.New(state.Error)
		}
		return nil
	},
}

// phaseError reports the state's error when it did not reach want
func phaseError(s orchestrator.State, want orchestrator.Phase) error {
	if s.Phase == want {
		return nil
	}
	if s.Error != "" {
		return errors.New(s.Error)
	}
	return fmt.Errorf("capture stopped in %s", s.Phase)
}

func parseCopyTarget(name string) (orchestrator.CopyTarget, error) {
	switch name {
	case "system":
		return orchestrator.CopySystemPrompt, nil
	case "full":
		return orchestrator.CopyFullContext, nil
	case "json":
		return orchestrator.CopyJSON, nil
	default:
		return 0, fmt.Errorf("unknown copy target %q (supported: system, full, json)", name)
	}
}

// newDispatcher wires the orchestrator to either an in-process page agent
// for the snapshot in args, or a remote one over NATS
func newDispatcher(ctx context.Context, e *env, args []string) (*orchestrator.Dispatcher, backendSettings, func(), error) {
	client, s, err := e.backendClient(ctx)
	if err != nil {
		return nil, backendSettings{}, nil, err
	}
	cfg := backendSettings{APIBase: client.BaseURL(), AutoExtract: s.AutoExtract}

	d := &orchestrator.Dispatcher{
		Backend:   client,
		Clipboard: orchestrator.SystemClipboard{},
		Opener:    orchestrator.BrowserOpener{},
	}

	if natsURL != "" {
		if tabID == "" {
			return nil, cfg, nil, fmt.Errorf("--tab is required with --nats")
		}
		nc, err := bridge.Connect(natsURL)
		if err != nil {
			return nil, cfg, nil, err
		}
		d.Bridge = bridge.NewNATSBridge(nc, natsPrefix)
		d.Tabs = orchestrator.StaticTab{ID: tabID, URL: pageURL}
		return d, cfg, nc.Close, nil
	}

	if len(args) == 0 {
		return nil, cfg, nil, fmt.Errorf("a page snapshot is required without --nats")
	}
	agent, err := e.fileAgent(args[0], pageURL, pageProvider)
	if err != nil {
		return nil, cfg, nil, err
	}
	id := tabID
	if id == "" {
		id = "local"
	}
	local := bridge.NewLocalBridge()
	local.Attach(id, agent)
	d.Bridge = local
	d.Tabs = orchestrator.StaticTab{ID: id, URL: agent.URL().String()}
	return d, cfg, func() { local.Detach(id) }, nil
}

// backendSettings are the settings the workflow needs
type backendSettings struct {
	APIBase     string
	AutoExtract bool
}

// addBridgeFlags registers the flags that select the page transport
func addBridgeFlags(c *cobra.Command) {
	addPageFlags(c)
	c.Flags().StringVar(&natsURL, "nats", "", "Reach the page agent over NATS at this URL")
	c.Flags().StringVar(&natsPrefix, "subject-prefix", bridge.DefaultSubjectPrefix, "NATS subject prefix")
	c.Flags().StringVar(&tabID, "tab", "", "Tab id of the page agent")
	c.Flags().DurationVar(&watchdog, "watchdog", 0, "Recover a stuck extraction or processing run after this long (0 disables)")
}

func init() {
	rootCmd.AddCommand(processCmd)
	addBridgeFlags(processCmd)
	processCmd.Flags().StringVar(&processCopy, "copy", "", "Copy to the clipboard after processing: system, full or json")
	processCmd.Flags().BoolVar(&processOpen, "open", false, "Open a new chat with the provider after processing")
}

package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/iksnae/context-capture/internal/orchestrator"
)

// Config wires runtime options into the popup program
type Config struct {
	Dispatcher *orchestrator.Dispatcher
	Options    orchestrator.Options
	// AutoExtract starts an extraction as soon as the popup opens
	AutoExtract bool
	// Markdown selects glamour rendering for the system prompt
	Markdown bool
}

// eventMsg carries an orchestrator event into Update
type eventMsg struct {
	event orchestrator.Event
}

type model struct {
	config  Config
	ctx     context.Context
	state   orchestrator.State
	spinner spinner.Model
	width   int
}

// New returns a tea.Model ready to be mounted into a Program
func New(ctx context.Context, config Config) tea.Model {
	return newModel(ctx, config)
}

func newModel(ctx context.Context, config Config) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	return &model{
		config:  config,
		ctx:     ctx,
		state:   orchestrator.NewState(config.Options),
		spinner: spin,
	}
}

// State returns the current orchestrator state
func (m *model) State() orchestrator.State {
	return m.state
}

func (m *model) Init() tea.Cmd {
	if m.config.AutoExtract {
		return m.apply(orchestrator.StartExtraction{})
	}
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case eventMsg:
		return m, m.apply(msg.event)
	case spinner.TickMsg:
		if !m.state.Phase.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return tea.Quit
	case "e":
		return m.apply(orchestrator.StartExtraction{})
	case "p":
		return m.apply(orchestrator.StartProcessing{})
	case "s":
		return m.apply(orchestrator.Copy{Target: orchestrator.CopySystemPrompt})
	case "f":
		return m.apply(orchestrator.Copy{Target: orchestrator.CopyFullContext})
	case "j":
		return m.apply(orchestrator.Copy{Target: orchestrator.CopyJSON})
	case "o":
		return m.apply(orchestrator.OpenChat{})
	}
	return nil
}

// apply runs one transition. Effects leave the event loop as commands and
// come back as eventMsg, so State is only ever touched here.
func (m *model) apply(ev orchestrator.Event) tea.Cmd {
	wasBusy := m.state.Phase.Busy()
	next, eff := m.state.Next(ev)
	m.state = next
	if eff == nil {
		return nil
	}

	cmds := []tea.Cmd{m.runEffect(eff)}
	if m.state.Phase.Busy() && !wasBusy {
		cmds = append(cmds, m.spinner.Tick)
	}
	if seq := orchestrator.Seq(eff); seq != 0 && m.config.Options.Watchdog > 0 {
		cmds = append(cmds, tea.Tick(m.config.Options.Watchdog, func(time.Time) tea.Msg {
			return eventMsg{event: orchestrator.TimedOut{Seq: seq}}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *model) runEffect(eff orchestrator.Effect) tea.Cmd {
	d := m.config.Dispatcher
	ctx := m.ctx
	return func() tea.Msg {
		return eventMsg{event: d.Run(ctx, eff)}
	}
}

func (m *model) View() string {
	opts := Options{Width: m.width}
	if opts.Width > 80 || opts.Width == 0 {
		opts.Width = defaultWidth
	}
	if m.state.Phase.Busy() {
		opts.Spinner = m.spinner.View()
	}
	if m.config.Markdown {
		opts.Markdown = renderMarkdown
	}
	return Render(m.state, opts) + "\n"
}

func renderMarkdown(text string) (string, error) {
	return glamour.Render(text, "dark")
}

// Run shows the popup until the user quits and returns the final state
func Run(ctx context.Context, config Config, opts ...tea.ProgramOption) (orchestrator.State, error) {
	m := newModel(ctx, config)
	opts = append(opts, tea.WithContext(ctx))
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return m.state, err
	}
	return m.state, nil
}

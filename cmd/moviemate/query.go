package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

func newQueryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query [message]",
		Short: "Send a one-shot query to MovieMate",
		Long:  "Send a single message and get a response without entering interactive mode.",
		Example: `  moviemate query "recommend a comedy"
  moviemate query --json "movies directed by Denis Villeneuve"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			return runQuery(cmd.OutOrStdout(), message, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the assistant turn as JSON")
	return cmd
}

func runQuery(out io.Writer, message string, asJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := initServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if asJSON {
		_, turn := svc.agent.Step(ctx, session.New(), message)
		return writeTurnJSON(out, turn)
	}

	p := tea.NewProgram(newQueryModel(ctx, svc.agent, message), tea.WithOutput(out))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	if _, ok := m.(queryModel); !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	return nil
}

func writeTurnJSON(out io.Writer, turn session.Turn) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(turn); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// queryResponseMsg carries the assistant turn back to the TUI.
type queryResponseMsg struct {
	turn session.Turn
}

type queryModel struct {
	ctx     context.Context
	agent   *agent.Agent
	message string
	spinner spinner.Model
	turn    session.Turn
	width   int
	done    bool
}

func newQueryModel(ctx context.Context, a *agent.Agent, message string) queryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return queryModel{
		ctx:     ctx,
		agent:   a,
		message: message,
		spinner: s,
		width:   80,
	}
}

func (m queryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sendQuery())
}

func (m queryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case queryResponseMsg:
		m.turn = msg.turn
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m queryModel) View() string {
	if m.done {
		return renderTurn(m.turn, m.width) + "\n"
	}
	return m.spinner.View() + styleDim.Render(" Thinking...") + "\n"
}

func (m queryModel) sendQuery() tea.Cmd {
	return func() tea.Msg {
		_, turn := m.agent.Step(m.ctx, session.New(), m.message)
		return queryResponseMsg{turn: turn}
	}
}

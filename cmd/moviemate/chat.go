package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

const chatHelp = "Commands: /show N opens result N, /back closes it, " +
	"/clearcache drops cached movie data, /reset starts over, /quit exits."

// newChatCmd returns the "chat" subcommand for interactive conversation.
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: "Start an interactive conversation with MovieMate.\n" +
			"Use /show N to open a result, /reset to clear history, /quit or Ctrl+C to exit.\n" +
			"Logs are written to moviemate.log in the system temp directory.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runChat()
		},
	}
}

// runChat initializes services and starts the Bubble Tea chat TUI.
func runChat() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(filepath.Join(os.TempDir(), "moviemate.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := config.SetupLoggerTo(logFile, cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := initServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	p := tea.NewProgram(newChatModel(ctx, svc.agent, svc.cache), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

// cacheClearer is the part of the result cache the TUI needs.
type cacheClearer interface {
	Len() int
	Clear()
}

// chatResponseMsg carries the stepped conversation back to the TUI.
type chatResponseMsg struct {
	state session.State
	turn  session.Turn
}

// Chat role constants. System entries are local notices, never sent to the model.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
)

// chatEntry represents a single message in the chat log.
type chatEntry struct {
	role string
	turn session.Turn
}

// chatModel is the Bubble Tea model for interactive chat.
type chatModel struct {
	ctx       context.Context
	agent     *agent.Agent
	cache     cacheClearer
	state     session.State
	viewport  viewport.Model
	textinput textinput.Model
	spinner   spinner.Model
	messages  []chatEntry
	history   []string // input history
	histIdx   int      // current position in input history (-1 = not browsing)
	waiting   bool
	width     int
	height    int
	ready     bool
}

// newChatModel creates a chatModel seeded with the greeting.
func newChatModel(ctx context.Context, a *agent.Agent, c cacheClearer) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about movies..."
	ti.Focus()
	ti.CharLimit = 2000

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	m := chatModel{
		ctx:       ctx,
		agent:     a,
		cache:     c,
		textinput: ti,
		spinner:   s,
		histIdx:   -1,
	}
	m.resetConversation()
	return m
}

// resetConversation starts a new session and shows its greeting.
func (m *chatModel) resetConversation() {
	m.state = session.New()
	m.messages = []chatEntry{
		{role: roleSystem, turn: session.Turn{Content: chatHelp}},
		{role: roleAssistant, turn: m.state.Last()},
	}
}

// Init starts the text input blink cursor.
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and user input.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)

	case tea.KeyMsg:
		model, cmd, handled := m.handleKey(msg)
		if handled {
			return model, cmd
		}

	case chatResponseMsg:
		m.handleResponse(msg)
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.waiting {
		var tiCmd tea.Cmd
		m.textinput, tiCmd = m.textinput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	if m.ready {
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleResize adjusts viewport and text input dimensions on terminal resize.
func (m *chatModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	headerHeight := 1
	inputHeight := 3
	spinnerHeight := 0
	if m.waiting {
		spinnerHeight = 1
	}
	vpHeight := max(m.height-headerHeight-inputHeight-spinnerHeight, 1)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.textinput.Width = m.width - 4
	m.refresh()
}

// handleKey dispatches key events to the appropriate handler.
func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return *m, tea.Quit, true
	case "esc":
		if _, ok := m.state.Selected(); ok {
			m.state = m.state.ClearSelection()
			m.refresh()
			return *m, nil, true
		}
	case "up":
		return m.handleHistoryUp()
	case "down":
		return m.handleHistoryDown()
	case "enter":
		return m.handleEnter()
	}
	return *m, nil, false
}

// handleHistoryUp navigates to the previous entry in the input history.
func (m *chatModel) handleHistoryUp() (tea.Model, tea.Cmd, bool) {
	if m.waiting || len(m.history) == 0 {
		return *m, nil, false
	}
	if m.histIdx == -1 {
		m.histIdx = len(m.history) - 1
	} else if m.histIdx > 0 {
		m.histIdx--
	}
	m.textinput.SetValue(m.history[m.histIdx])
	m.textinput.CursorEnd()
	return *m, nil, true
}

// handleHistoryDown navigates to the next entry in the input history.
func (m *chatModel) handleHistoryDown() (tea.Model, tea.Cmd, bool) {
	if m.waiting || m.histIdx < 0 {
		return *m, nil, false
	}
	if m.histIdx < len(m.history)-1 {
		m.histIdx++
		m.textinput.SetValue(m.history[m.histIdx])
	} else {
		m.histIdx = -1
		m.textinput.SetValue("")
	}
	m.textinput.CursorEnd()
	return *m, nil, true
}

// handleEnter processes the current input: slash commands or a message to the agent.
func (m *chatModel) handleEnter() (tea.Model, tea.Cmd, bool) {
	if m.waiting {
		return *m, nil, true
	}
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return *m, nil, true
	}
	m.textinput.SetValue("")
	m.histIdx = -1

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.history = append(m.history, input)
	m.state = m.state.ClearSelection()
	m.messages = append(m.messages, chatEntry{role: roleUser, turn: session.Turn{Role: session.RoleUser, Content: input}})
	m.waiting = true
	m.refresh()
	return *m, tea.Batch(m.sendMessage(input), m.spinner.Tick), true
}

// handleCommand runs a slash command locally, without the model.
func (m *chatModel) handleCommand(input string) (tea.Model, tea.Cmd, bool) {
	cmd, arg, _ := strings.Cut(input, " ")
	switch cmd {
	case "/quit", "/exit":
		return *m, tea.Quit, true
	case "/reset":
		m.resetConversation()
		m.notice("Conversation reset.")
	case "/clearcache":
		n := m.cache.Len()
		m.cache.Clear()
		m.notice(fmt.Sprintf("Cache cleared (%d entries removed).", n))
	case "/show":
		m.show(strings.TrimSpace(arg))
	case "/back":
		m.state = m.state.ClearSelection()
	case "/help":
		m.notice(chatHelp)
	default:
		m.notice("Unknown command " + cmd + ". " + chatHelp)
	}
	m.refresh()
	return *m, nil, true
}

// show selects result n (1-based) of the latest turn that has results.
func (m *chatModel) show(arg string) {
	_, results := m.state.LatestResults()
	if len(results) == 0 {
		m.notice("There are no results to show yet.")
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(results) {
		m.notice(fmt.Sprintf("Pick a result between 1 and %d, e.g. /show 1.", len(results)))
		return
	}
	m.state = m.state.Select(results[n-1])
}

func (m *chatModel) notice(text string) {
	m.messages = append(m.messages, chatEntry{role: roleSystem, turn: session.Turn{Content: text}})
}

// handleResponse stores the stepped state and shows the assistant turn.
func (m *chatModel) handleResponse(msg chatResponseMsg) {
	m.waiting = false
	m.state = msg.state
	m.messages = append(m.messages, chatEntry{role: roleAssistant, turn: msg.turn})
	m.refresh()
}

// refresh re-renders the viewport: the detail panel when a movie is
// selected, the conversation otherwise.
func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	if movie, ok := m.state.Selected(); ok {
		m.viewport.SetContent(renderDetails(movie, m.width))
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// View renders the chat UI with message history, spinner, and input field.
func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("5")).
		Render("MovieMate")

	var spinnerLine string
	if m.waiting {
		spinnerLine = "\n" + m.spinner.View() + styleDim.Render(" Thinking...")
	}

	inputBorder := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		PaddingTop(0)

	return title + "\n" +
		m.viewport.View() +
		spinnerLine + "\n" +
		inputBorder.Render(m.textinput.View())
}

// renderMessages formats all chat entries into a styled string for the viewport.
func (m chatModel) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case roleUser:
			sb.WriteString(styleUser.Render("You: "))
			sb.WriteString(msg.turn.Content)
		case roleAssistant:
			sb.WriteString(renderTurn(msg.turn, m.width))
		case roleSystem:
			sb.WriteString(styleDim.Render(msg.turn.Content))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// sendMessage returns a Bubble Tea command that steps the conversation asynchronously.
func (m chatModel) sendMessage(input string) tea.Cmd {
	state := m.state
	return func() tea.Msg {
		next, turn := m.agent.Step(m.ctx, state, input)
		return chatResponseMsg{state: next, turn: turn}
	}
}

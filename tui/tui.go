package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/questrules/cli"
)

const greeting = "questrules console. Type /help for commands."

// Model is the Bubble Tea model for the questrules console.
type Model struct {
	ctx     context.Context
	console *cli.Console

	pane    viewport.Model
	input   textinput.Model
	history *History
	out     transcript

	width, height int
	ready         bool
	quitting      bool
}

// replyMsg delivers console output to Update.
type replyMsg struct {
	input string
	reply cli.Reply
}

// New creates a TUI model driving the given console.
func New(ctx context.Context, console *cli.Console) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = promptStyle
	in.CharLimit = 256
	in.Focus()

	return Model{ctx: ctx, console: console, input: in, history: NewHistory(100)}
}

// Run starts the Bubble Tea program and blocks until the operator quits
// or ctx is done.
func Run(ctx context.Context, console *cli.Console) error {
	p := tea.NewProgram(New(ctx, console),
		tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Init prints the greeting and starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	hello := func() tea.Msg { return replyMsg{reply: cli.Reply{Lines: []string{greeting}}} }
	return tea.Batch(textinput.Blink, hello)
}

// Update handles key presses, resizes and console output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if next, cmd, done := m.handleKey(msg); done {
			return next, cmd
		}
	case replyMsg:
		m.show(msg.input, msg.reply)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	paneHeight := max(height-2, 1) // status bar and input line

	if m.ready {
		m.pane.Width, m.pane.Height = width, paneHeight
	} else {
		m.pane = viewport.New(width, paneHeight)
		m.pane.KeyMap = paneKeys()
		m.ready = true
	}
	m.redraw()
}

// handleKey reports done=true when the key was consumed and must not
// reach the text input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		return m.submit()
	case "tab":
		m.completeInput()
	case "up":
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.setInput(prev)
		}
	case "down":
		if !m.history.Navigating() {
			break
		}
		next, ok := m.history.Next()
		if !ok {
			next = m.history.Prefix()
			m.history.ResetCursor()
		}
		m.setInput(next)
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.pane, cmd = m.pane.Update(msg)
		return m, cmd, true
	default:
		return m, nil, false
	}
	return m, nil, true
}

// submit runs the input line through the console.
func (m Model) submit() (Model, tea.Cmd, bool) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return m, nil, true
	}

	m.history.Push(line)
	m.history.ResetCursor()

	reply := m.console.Exec(m.ctx, line)
	m.show(line, reply)
	if reply.Quit {
		m.quitting = true
		return m, tea.Quit, true
	}
	return m, nil, true
}

// completeInput completes the word under the cursor and lists the
// alternatives when there is more than one.
func (m *Model) completeInput() {
	value := m.input.Value()
	words := strings.Fields(value)
	pos := len(words)
	if pos > 0 && !strings.HasSuffix(value, " ") {
		pos--
	}
	var cmd string
	if len(words) > 0 {
		cmd = strings.ToLower(words[0])
	}

	completed, options := complete(value, m.candidates(cmd, pos))
	m.setInput(completed)
	if len(options) > 1 {
		m.show("", cli.Reply{Lines: []string{strings.Join(options, "  ")}, System: true})
	}
}

func (m *Model) setInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

func (m *Model) show(input string, reply cli.Reply) {
	m.out.add(input, reply)
	m.redraw()
}

func (m *Model) redraw() {
	if !m.ready {
		return
	}
	m.pane.SetContent(m.out.render(m.width))
	m.pane.GotoBottom()
}

// View lays out the output pane, the status bar and the input line.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Loading..."
	}
	return strings.Join([]string{m.pane.View(), m.renderStatusBar(), m.input.View()}, "\n")
}

// paneKeys scrolls with paging keys only; Up and Down belong to history.
func paneKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/ascmem/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxHistory bounds the scrollback kept on screen.
const maxHistory = 200

type historyEntry struct {
	input  string
	output string
	err    error
}

type consoleModel struct {
	ctx      context.Context
	session  *session
	filename string
	input    textinput.Model
	history  []historyEntry
	busy     bool
	closed   bool
}

type execResultMsg struct {
	input  string
	output string
	err    error
	quit   bool
}

func newConsoleModel(ctx context.Context, s *session, filename string) *consoleModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("ascmem> ")
	ti.Placeholder = "help"
	ti.Width = 60
	ti.Focus()

	return &consoleModel{
		ctx:      ctx,
		session:  s,
		filename: filename,
		input:    ti,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			m.shutdown()
			return m, tea.Quit

		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.busy = true
			return m, m.run(line)
		}

	case execResultMsg:
		m.busy = false
		m.record(historyEntry{input: msg.input, output: msg.output, err: msg.err})
		if msg.quit {
			m.shutdown()
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes line off the update loop. Only one command runs at a time.
func (m *consoleModel) run(line string) tea.Cmd {
	return func() tea.Msg {
		if line == "quit" || line == "exit" {
			return execResultMsg{input: line, output: "bye", quit: true}
		}
		out, err := m.session.exec(m.ctx, line)
		return execResultMsg{input: line, output: out, err: err}
	}
}

func (m *consoleModel) record(e historyEntry) {
	m.history = append(m.history, e)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m *consoleModel) shutdown() {
	if m.closed {
		return
	}
	m.closed = true
	if err := m.session.Close(m.ctx); err != nil {
		m.record(historyEntry{input: "quit", err: err})
	}
}

func (m *consoleModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ascmem console"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(promptStyle.Render("> " + e.input))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
			b.WriteString("\n")
		} else if e.output != "" {
			b.WriteString(resultStyle.Render(e.output))
			b.WriteString("\n")
		}
	}

	if !m.closed {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("help for commands • quit or ctrl+c to exit"))
	}
	b.WriteString("\n")
	return b.String()
}

func runConsole(ctx context.Context, filename string, opts ...runtime.Option) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("console needs an interactive terminal; use call or read instead")
	}

	s, err := openSession(ctx, filename, opts...)
	if err != nil {
		return err
	}

	m := newConsoleModel(ctx, s, filename)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()
	m.shutdown()
	return err
}

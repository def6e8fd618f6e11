// internal/tui/prompt.go

// Package tui asks the operator for settings the configuration leaves out,
// such as an API key or a model name.
package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	// ErrNotInteractive is returned when input is needed but stdin is not a terminal.
	ErrNotInteractive = errors.New("input required but stdin is not a terminal")
	// ErrCancelled is returned when the operator aborts a prompt.
	ErrCancelled = errors.New("prompt cancelled")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Question describes one value to ask for.
type Question struct {
	Title       string
	Placeholder string
	Default     string
	Secret      bool
}

type promptModel struct {
	question  Question
	input     textinput.Model
	value     string
	err       string
	done      bool
	cancelled bool
}

func newPromptModel(q Question) *promptModel {
	ti := textinput.New()
	ti.Placeholder = q.Placeholder
	ti.CharLimit = 512
	ti.Width = 60
	if q.Secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return &promptModel{question: q, input: ti}
}

func (m *promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				value = m.question.Default
			}
			if value == "" {
				m.err = "a value is required"
				return m, nil
			}
			m.value = value
			m.done = true
			return m, tea.Quit
		}
	}
	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.question.Title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	hint := "enter to confirm, esc to cancel"
	if m.question.Default != "" {
		hint = fmt.Sprintf("default %q; %s", m.question.Default, hint)
	}
	b.WriteString(hintStyle.Render(hint))
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err))
	}
	b.WriteString("\n")
	return b.String()
}

// Asker answers questions.
type Asker interface {
	Ask(q Question) (string, error)
}

// TerminalAsker asks through a bubbletea text input on a terminal.
type TerminalAsker struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalAsker returns an asker bound to stdin and stdout.
func NewTerminalAsker() *TerminalAsker {
	return &TerminalAsker{In: os.Stdin, Out: os.Stdout}
}

// Ask runs the prompt. It fails with ErrNotInteractive unless In is a terminal.
func (a *TerminalAsker) Ask(q Question) (string, error) {
	if !IsTerminal(a.In) {
		return "", fmt.Errorf("%w: %s", ErrNotInteractive, q.Title)
	}
	m := newPromptModel(q)
	final, err := tea.NewProgram(m, tea.WithInput(a.In), tea.WithOutput(a.Out)).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}
	result := final.(*promptModel)
	if result.cancelled {
		return "", ErrCancelled
	}
	return result.value, nil
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

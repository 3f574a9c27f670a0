// Package tui is the interactive terminal menu over the ledger and reports.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/output"
	"github.com/cleared-dev/teller/internal/report"
)

type mode int

const (
	modeMenu mode = iota
	modePrompt
	modeRunning
	modeResult
)

// resultMsg carries the rendered outcome of an action.
type resultMsg struct {
	out string
	err error
}

// Model is the bubbletea model for the menu.
type Model struct {
	ctx     context.Context
	actions []action
	mode    mode
	cursor  int
	inputs  []textinput.Model
	focus   int
	result  string
	err     error
	width   int
}

// New creates the menu model.
func New(ctx context.Context, svc *ledger.Service, reports *report.Service) Model {
	return Model{
		ctx:     ctx,
		actions: buildActions(svc, reports),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case resultMsg:
		m.mode = modeResult
		m.result = msg.out
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(msg)
		case modePrompt:
			return m.updatePrompt(msg)
		case modeResult:
			m.mode = modeMenu
			m.result, m.err = "", nil
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.actions)-1 {
			m.cursor++
		}
	case "enter":
		a := m.actions[m.cursor]
		if len(a.fields) == 0 {
			m.mode = modeRunning
			return m, m.run(a, nil)
		}
		m.inputs = make([]textinput.Model, len(a.fields))
		for i, f := range a.fields {
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = f.placeholder
			ti.CharLimit = 64
			m.inputs[i] = ti
		}
		m.focus = 0
		m.mode = modePrompt
		return m, m.inputs[0].Focus()
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeMenu
		m.inputs = nil
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		if m.focus > 0 {
			return m, m.focusField(m.focus - 1)
		}
		return m, nil
	case tea.KeyEnter, tea.KeyTab, tea.KeyDown:
		a := m.actions[m.cursor]
		if strings.TrimSpace(m.inputs[m.focus].Value()) == "" && !a.fields[m.focus].optional {
			return m, nil
		}
		if m.focus < len(m.inputs)-1 {
			return m, m.focusField(m.focus + 1)
		}
		if msg.Type != tea.KeyEnter {
			return m, nil
		}
		vals := make([]string, len(m.inputs))
		for i, in := range m.inputs {
			vals[i] = strings.TrimSpace(in.Value())
		}
		m.mode = modeRunning
		return m, m.run(a, vals)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

// run executes a off the UI goroutine.
func (m Model) run(a action, vals []string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		var buf bytes.Buffer
		err := a.run(ctx, output.New(&buf), vals)
		return resultMsg{out: buf.String(), err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	switch m.mode {
	case modePrompt:
		a := m.actions[m.cursor]
		var b strings.Builder
		b.WriteString(titleStyle.Render(a.title))
		b.WriteString("\n")
		for i, f := range a.fields {
			label := f.label
			if f.optional {
				label += " (opt)"
			}
			b.WriteString(labelStyle.Render(label))
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render(
			formatKey("enter", "next/run") + " • " +
				formatKey("shift+tab", "back") + " • " +
				formatKey("esc", "menu"),
		))
		return b.String()

	case modeRunning:
		return titleStyle.Render(m.actions[m.cursor].title) + "\nWorking..."

	case modeResult:
		body := m.result
		if m.err != nil {
			body += errorStyle.Render(fmt.Sprintf("%s (%s)", m.err, ledger.KindOf(m.err)))
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.actions[m.cursor].title),
			boxStyle.Render(strings.TrimRight(body, "\n")),
			helpStyle.Render(formatKey("any key", "back to menu")),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Teller"))
	b.WriteString("\n")
	for i, a := range m.actions {
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ " + a.title))
		} else {
			b.WriteString(unselectedItemStyle.Render(a.title))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(
		formatKey("↑/↓", "navigate") + " • " +
			formatKey("enter", "select") + " • " +
			formatKey("q", "quit"),
	))
	return b.String()
}

// Run starts the menu on the terminal and blocks until the user quits.
func Run(ctx context.Context, svc *ledger.Service, reports *report.Service, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(New(ctx, svc, reports), opts...).Run(); err != nil {
		return fmt.Errorf("running menu: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/wrx-engine/config"
	"github.com/wippyai/wrx-engine/engine"
	"github.com/wippyai/wrx-engine/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func requireTerminal(f *os.File) error {
	if !term.IsTerminal(int(f.Fd())) {
		return errors.New(errors.PhaseEngine, errors.KindUnsupported).
			Detail("inspect needs a terminal").
			Build()
	}
	return nil
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [app]",
		Short: "Browse the object table of a started application",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTerminal(os.Stdout); err != nil {
				return err
			}
			eng, err := engine.New(engine.Options{Logger: rootOpts.Logger})
			if err != nil {
				return err
			}
			defer eng.Close(context.Background())

			p := tea.NewProgram(newInspectModel(eng, appArg(args)), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type modelState int

const (
	stateList modelState = iota
	stateLookup
	stateShowValue
)

type inspectModel struct {
	err      error
	eng      *engine.Engine
	app      string
	cfg      config.Config
	keys     []string
	shares   []string
	value    string
	input    textinput.Model
	selected int
	loaded   bool
	state    modelState
}

func newInspectModel(eng *engine.Engine, app string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "key"
	ti.Prompt = "lookup: "
	ti.Width = 40
	return &inspectModel{eng: eng, app: app, input: ti, state: stateList}
}

type startedMsg struct {
	err error
}

type valueMsg struct {
	err   error
	value string
}

func (m *inspectModel) Init() tea.Cmd {
	return m.start
}

func (m *inspectModel) start() tea.Msg {
	return startedMsg{err: m.eng.Start(context.Background(), m.app)}
}

func (m *inspectModel) refresh() {
	m.cfg = m.eng.Config()
	m.keys = m.eng.Keys()
	m.shares = m.eng.Shares()
	if m.selected >= len(m.keys) {
		m.selected = max(len(m.keys)-1, 0)
	}
}

func (m *inspectModel) lookup(key string) tea.Cmd {
	return func() tea.Msg {
		v, ok, err := m.eng.Get(key)
		if err != nil {
			return valueMsg{err: err}
		}
		if !ok {
			return valueMsg{err: fmt.Errorf("%q not found", key)}
		}
		defer v.Release()
		return valueMsg{value: fmt.Sprintf("%s = %v", key, v)}
	}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateLookup {
			switch msg.String() {
			case "enter":
				key := strings.TrimSpace(m.input.Value())
				m.input.Blur()
				m.input.SetValue("")
				return m, m.lookup(key)
			case "esc":
				m.input.Blur()
				m.state = stateList
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.keys)-1 {
				m.selected++
			}

		case "r":
			m.refresh()

		case "/":
			if m.state == stateList {
				m.state = stateLookup
				return m, m.input.Focus()
			}

		case "enter":
			switch m.state {
			case stateList:
				if len(m.keys) > 0 {
					return m, m.lookup(m.keys[m.selected])
				}
			case stateShowValue:
				m.state = stateList
				m.value = ""
				m.err = nil
			}

		case "esc":
			if m.state == stateShowValue {
				m.state = stateList
				m.value = ""
				m.err = nil
			}
		}

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loaded = true
		m.refresh()

	case valueMsg:
		m.value = msg.value
		m.err = msg.err
		m.state = stateShowValue
	}

	return m, nil
}

func (m *inspectModel) View() string {
	if m.err != nil && m.state != stateShowValue {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Starting " + m.app + "..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.cfg.Title))
	b.WriteString(" ")
	b.WriteString(m.app)
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("idBits %d • fps %d • threads %d • objects %d • shares %d",
		m.cfg.IDBits, m.cfg.FPS, m.cfg.Threads, m.eng.Objects(), len(m.shares))))
	b.WriteString("\n\n")

	switch m.state {
	case stateList, stateLookup:
		if len(m.keys) == 0 {
			b.WriteString("Object table is empty.\n")
		}
		for i, k := range m.keys {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + k))
			} else {
				b.WriteString("  " + keyStyle.Render(k))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateLookup {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter look up • esc back"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter show • / look up • r refresh • q quit"))
		}

	case stateShowValue:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.value))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

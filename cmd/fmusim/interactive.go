package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fmuruntime "github.com/wippyai/fmu-runtime"
	"github.com/wippyai/fmu-runtime/fmi2"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Step     key.Binding
	Snapshot key.Binding
	Restore  key.Binding
	Set      key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Snapshot, k.Restore, k.Set, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Step:     key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n/space", "step")),
	Snapshot: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "snapshot")),
	Restore:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restore")),
	Set:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "set real")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type interactiveModel struct {
	sim    *simulation
	out    Outputs
	header []string
	row    []string

	snapshot     fmi2.Handle
	snapshotTime float64

	input   textinput.Model
	editing bool
	help    help.Model

	result string
	err    error
}

func newInteractiveModel(sim *simulation) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "name=value"
	ti.Prompt = "set: "
	ti.Width = 40

	out := sim.outputs()
	return &interactiveModel{
		sim:    sim,
		out:    out,
		header: sim.header(out),
		input:  ti,
		help:   help.New(),
	}
}

type sampledMsg struct {
	row []string
	err error
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.sample
}

func (m *interactiveModel) sample() tea.Msg {
	row, err := m.sim.sample(m.out)
	return sampledMsg{row: row, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Step):
			if m.sim.done() {
				m.result, m.err = "", fmt.Errorf("stop time %g reached", m.sim.sc.Stop)
				return m, nil
			}
			m.err = m.sim.step()
			m.result = ""
			return m, m.sample

		case key.Matches(msg, keys.Snapshot):
			h, st := m.sim.d.GetFMUState(m.sim.h, m.snapshot)
			if m.err = check("GetFMUState", st); m.err == nil {
				m.snapshot, m.snapshotTime = h, m.sim.time
				m.result = fmt.Sprintf("snapshot taken at t=%s", formatFloat(m.sim.time))
			}

		case key.Matches(msg, keys.Restore):
			if m.snapshot == 0 {
				m.result, m.err = "", fmt.Errorf("no snapshot")
				return m, nil
			}
			if m.err = check("SetFMUState", m.sim.d.SetFMUState(m.sim.h, m.snapshot)); m.err == nil {
				m.sim.seek(m.snapshotTime)
				m.result = fmt.Sprintf("restored t=%s", formatFloat(m.sim.time))
			}
			return m, m.sample

		case key.Matches(msg, keys.Set):
			m.editing = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}

	case sampledMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.row = msg.row
	}
	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.input.Blur()
		m.err = m.setReal(m.input.Value())
		if m.err == nil {
			m.result = "set " + m.input.Value()
		}
		return m, m.sample
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// setReal applies "name=value" or "vr=value" to a real variable.
func (m *interactiveModel) setReal(assignment string) error {
	ref, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return fmt.Errorf("want name=value, got %q", assignment)
	}
	vr, err := m.sim.model.lookupReal(strings.TrimSpace(ref))
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("value %q: %w", raw, err)
	}
	return check("SetReal", m.sim.d.SetReal(m.sim.h, []fmuruntime.ValueReference{vr}, []float64{v}))
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FMU Simulator"))
	b.WriteString(" ")
	b.WriteString(m.sim.model.name)
	b.WriteString("\n\n")

	for i, name := range m.header {
		value := ""
		if i < len(m.row) {
			value = m.row[i]
		}
		fmt.Fprintf(&b, "  %s %s\n", nameStyle.Render(fmt.Sprintf("%-10s", name)), valueStyle.Render(value))
	}
	b.WriteString("\n")

	if m.snapshot != 0 {
		fmt.Fprintf(&b, "  snapshot at t=%s\n\n", formatFloat(m.snapshotTime))
	}

	switch {
	case m.editing:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(keys))
	return b.String()
}

// runInteractive steps the scenario under a terminal UI.
func runInteractive(sim *simulation) error {
	if err := sim.initialize(); err != nil {
		return err
	}
	_, err := tea.NewProgram(newInteractiveModel(sim), tea.WithAltScreen()).Run()
	return err
}

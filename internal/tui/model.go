// Package tui implements kvidx-inspect's interactive record browser.
//
// Grounded on ry256-slb/internal/tui/dashboard/model.go's Model shape
// (width/height tracking, a cursor into a slice of rows, Init/Update/
// View) — retargeted from the teacher's multi-panel approval dashboard
// to a single scrollable table over a kvidx store's key range, since
// kvidx has no request/review/activity feed to show panels for. The
// teacher's internal/tui/components/spinner.go (a thin bubbles/spinner
// wrapper) is generalized here into a load-in-progress indicator, and
// bubbles/viewport replaces the teacher's own manual scroll-offset math
// for panels taller than the terminal.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/kvidx"
	"github.com/Dicklesworthstone/kvidx/internal/tui/components"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("57")).Foreground(lipgloss.Color("255"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

const headerLines = 4 // title + blank + help + blank, reserved outside the viewport

// row is one record's display projection.
type row struct {
	id   uint64
	term uint64
	cmd  uint64
	size int
}

// Model is the Bubble Tea model for the record browser.
type Model struct {
	inst     *kvidx.Instance
	width    int
	height   int
	cursor   int
	rows     []row
	loading  bool
	err      error
	spinner  spinner.Model
	viewport viewport.Model
}

// New creates a browser Model loaded from inst's full key range.
func New(inst *kvidx.Instance) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{inst: inst, spinner: s, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reload, m.spinner.Tick)
}

// reload walks the store in ascending key order, collecting display rows.
func (m Model) reload() tea.Msg {
	ctx := context.Background()
	var rows []row

	minKey, ok, err := m.inst.MinKey(ctx)
	if err != nil {
		return errMsg{err}
	}
	if !ok {
		return rowsMsg{rows}
	}

	rec, err := m.inst.Get(ctx, minKey)
	if err != nil {
		return errMsg{err}
	}
	rows = append(rows, row{id: rec.ID, term: rec.Term, cmd: rec.Cmd, size: len(rec.Data)})

	cursor := rec.ID
	for {
		next, err := m.inst.GetNext(ctx, cursor)
		if err != nil {
			break // ErrNotFound ends the walk; any other error just stops rendering further rows
		}
		rows = append(rows, row{id: next.ID, term: next.Term, cmd: next.Cmd, size: len(next.Data)})
		cursor = next.ID
	}
	return rowsMsg{rows}
}

type rowsMsg struct{ rows []row }
type errMsg struct{ err error }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerLines
		m.viewport.SetContent(m.renderTable())
		return m, nil
	case rowsMsg:
		m.rows = msg.rows
		m.loading = false
		m.viewport.SetContent(m.renderTable())
		return m, nil
	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.viewport.SetContent(m.renderTable())
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			m.viewport.SetContent(m.renderTable())
		case "r":
			m.loading = true
			return m, tea.Batch(m.reload, m.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderTable() string {
	table := components.NewTable([]components.Column{
		{Header: "ID", MinWidth: 8},
		{Header: "TERM", MinWidth: 6},
		{Header: "CMD", MinWidth: 6},
		{Header: "SIZE", MinWidth: 6},
	}).WithSelection(m.cursor)

	for _, r := range m.rows {
		table.AddRow(fmt.Sprint(r.id), fmt.Sprint(r.term), fmt.Sprint(r.cmd), fmt.Sprint(r.size))
	}
	return table.Render()
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\npress q to quit\n", m.err)
	}

	title := titleStyle.Render(fmt.Sprintf(" kvidx-inspect — %d records ", len(m.rows)))
	help := helpStyle.Render("↑/↓ navigate · r reload · q quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n%s loading…\n\n%s\n", title, m.spinner.View(), help)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n", title, m.viewport.View(), help)
}

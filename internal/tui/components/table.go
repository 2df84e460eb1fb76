// Package components holds small, stateless rendering helpers shared
// by kvidx-inspect's plain-text output and its Bubble Tea browser.
//
// Grounded on ry256-slb/internal/tui/components/table.go's Column/Table
// shape (fixed/min/max width, striping, selection cursor), with the
// teacher's internal/tui/theme dependency replaced by a small built-in
// palette since that package wasn't part of what this module inherited.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("255"))
	stripeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Column defines one table column.
type Column struct {
	Header   string
	Width    int // fixed width; 0 means size to content within Min/Max
	MinWidth int
	MaxWidth int
}

// Table renders [][]string rows under a header row.
type Table struct {
	Columns     []Column
	Rows        [][]string
	SelectedRow int
	ShowHeader  bool
	Striped     bool
}

// NewTable creates a Table over columns with header display and
// striping on by default.
func NewTable(columns []Column) *Table {
	return &Table{
		Columns:     columns,
		ShowHeader:  true,
		Striped:     true,
		SelectedRow: -1,
	}
}

// AddRow appends one row of cell text.
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// WithSelection marks row idx as the cursor row.
func (t *Table) WithSelection(idx int) *Table {
	t.SelectedRow = idx
	return t
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		w := len(col.Header)
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		for _, row := range t.Rows {
			if i < len(row) && len(row[i]) > w {
				w = len(row[i])
			}
		}
		if col.MinWidth > 0 && w < col.MinWidth {
			w = col.MinWidth
		}
		if col.MaxWidth > 0 && w > col.MaxWidth {
			w = col.MaxWidth
		}
		widths[i] = w
	}
	return widths
}

func padCell(s string, width int) string {
	if len(s) > width {
		if width <= 1 {
			return s[:width]
		}
		return s[:width-1] + "…"
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Render produces the full table as a single string, ready to print.
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := t.widths()

	var b strings.Builder
	if t.ShowHeader {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = padCell(col.Header, widths[i])
		}
		b.WriteString(headerStyle.Render(strings.Join(cells, "  ")))
		b.WriteString("\n")
	}

	for rowIdx, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = padCell(cell, widths[i])
		}
		line := strings.Join(cells, "  ")

		switch {
		case rowIdx == t.SelectedRow:
			line = selectedStyle.Render(line)
		case t.Striped && rowIdx%2 == 1:
			line = stripeStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

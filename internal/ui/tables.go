package ui

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Align is a column alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table collects rows and renders them with go-pretty.
type Table struct {
	headers  []string
	rows     [][]string
	aligns   []Align
	maxWidth int
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		aligns:   make([]Align, len(headers)),
		maxWidth: 60,
	}
}

// SetAlign sets the alignment of the zero-based column col.
func (t *Table) SetAlign(col int, a Align) *Table {
	if col >= 0 && col < len(t.aligns) {
		t.aligns[col] = a
	}
	return t
}

// SetMaxWidth caps the width of each column; longer values are wrapped.
// Zero disables the cap.
func (t *Table) SetMaxWidth(width int) *Table {
	t.maxWidth = width
	return t
}

// AddRow adds a row; missing cells are blank and extra cells are dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the table as text, or "" when it has no columns.
func (t *Table) Render() string {
	columns := len(t.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if IsTerminal() {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i, h := range t.headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range t.rows {
		r := make(table.Row, columns)
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if t.aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    t.maxWidth,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

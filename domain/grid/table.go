package grid

import (
	"fmt"
	"strings"

	"crmqc/domain/core"
)

// Table is a loaded grid split into its header block (every row before the
// processing region, kept verbatim) and the cleaned processing rows.
// Processing column 0 is the fixed reference column.
type Table struct {
	Layout Layout
	Head   Grid // raw rows [0, DataStart), verbatim
	Header Row  // element names
	Data   Grid // cleaned processing rows, each len(Header) wide
}

// Load splits raw at the layout's fixed row indices and cleans every
// processing cell. The raw grid is not modified.
func Load(raw Grid, layout Layout) (*Table, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	start := layout.DataStart()
	if len(raw) < start {
		return nil, core.NewMalformedInputError(
			fmt.Sprintf("grid has %d rows, at least %d reserved rows required", len(raw), start))
	}

	header := raw[layout.HeaderRow].Clone()
	if len(header) == 0 {
		return nil, core.NewMalformedInputError("header row is empty")
	}

	data := make(Grid, 0, len(raw)-start)
	for i := start; i < len(raw); i++ {
		if len(raw[i]) != len(header) {
			return nil, core.NewMalformedInputError(
				fmt.Sprintf("row %d has %d columns, header has %d", i, len(raw[i]), len(header)))
		}
		row := make(Row, len(header))
		for j, cell := range raw[i] {
			row[j] = Clean(cell)
		}
		data = append(data, row)
	}

	return &Table{
		Layout: layout,
		Head:   raw[:start].Clone(),
		Header: header,
		Data:   data,
	}, nil
}

// Rows returns the number of processing rows
func (t *Table) Rows() int { return len(t.Data) }

// Columns returns the number of processing columns including the fixed one
func (t *Table) Columns() int { return len(t.Header) }

// Reserved returns a copy of reserved row idx
func (t *Table) Reserved(idx int) (Row, bool) {
	if !t.Layout.IsReserved(idx) || idx >= len(t.Head) {
		return nil, false
	}
	return t.Head[idx].Clone(), true
}

// ElementName returns the header text bound to column col
func (t *Table) ElementName(col int) string {
	if col < 0 || col >= len(t.Header) {
		return ""
	}
	return strings.TrimSpace(t.Header[col].String())
}

// Limit returns the detection limit for column col from the limit row.
// A marker-style limit such as "<0.01" counts as its number.
func (t *Table) Limit(col int) (float64, bool) {
	row := t.Head[t.Layout.LimitRow]
	if col < 0 || col >= len(row) {
		return 0, false
	}
	return Clean(row[col]).Float()
}

// Column returns a copy of processing column col
func (t *Table) Column(col int) []Cell {
	out := make([]Cell, len(t.Data))
	for i, row := range t.Data {
		out[i] = row[col]
	}
	return out
}

// Assemble rebuilds a full grid from the header block and data rows
func (t *Table) Assemble(data Grid) Grid {
	out := make(Grid, 0, len(t.Head)+len(data))
	out = append(out, t.Head.Clone()...)
	out = append(out, data.Clone()...)
	return out
}

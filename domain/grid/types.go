package grid

import (
	"fmt"
	"sort"
	"strings"

	"crmqc/domain/core"
)

// Row is an ordered sequence of cells
type Row []Cell

// Grid is an ordered sequence of rows
type Grid []Row

// Clone returns a deep copy
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Clone returns a deep copy
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = row.Clone()
	}
	return out
}

// Width returns the widest row length
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// FromStrings parses raw file values into a grid
func FromStrings(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, value := range raw {
			row[j] = ParseCell(value)
		}
		g[i] = row
	}
	return g
}

// Strings renders the grid for writing, padding every row to width
func (g Grid) Strings() [][]string {
	width := g.Width()
	out := make([][]string, len(g))
	for i, row := range g {
		line := make([]string, width)
		for j, cell := range row {
			line[j] = cell.String()
		}
		out[i] = line
	}
	return out
}

// Fingerprint hashes the cell kinds and values row by row. Trailing absent
// cells do not count, so padded and ragged copies of a grid hash the same.
func (g Grid) Fingerprint() core.Hash {
	var b strings.Builder
	for _, row := range g {
		end := len(row)
		for end > 0 && row[end-1].IsAbsent() {
			end--
		}
		for _, cell := range row[:end] {
			b.WriteByte(byte('0' + cell.Kind))
			b.WriteString(cell.String())
			b.WriteByte(0x1f)
		}
		b.WriteByte(0x1e)
	}
	return core.NewHash([]byte(b.String()))
}

// Layout fixes which raw rows are metadata. Row indices are zero-based
// positions in the raw grid and are configuration, never inferred.
type Layout struct {
	ReservedRows []int `json:"reserved_rows"`
	HeaderRow    int   `json:"header_row"`
	LimitRow     int   `json:"limit_row"`
	// ReferenceRow is a header-block row that may hold certified values; -1 disables it.
	ReferenceRow int `json:"reference_row"`
}

// DefaultLayout matches the lab template: element names on row 0,
// CRM values on row 1, detection limits on row 3, samples from row 6.
func DefaultLayout() Layout {
	return Layout{
		ReservedRows: []int{0, 2, 3, 4, 5},
		HeaderRow:    0,
		LimitRow:     3,
		ReferenceRow: 1,
	}
}

// DataStart is the first processing row: the row after the last reserved row
func (l Layout) DataStart() int {
	start := 0
	for _, idx := range l.ReservedRows {
		if idx+1 > start {
			start = idx + 1
		}
	}
	return start
}

// IsReserved reports whether raw row idx is a reserved row
func (l Layout) IsReserved(idx int) bool {
	for _, r := range l.ReservedRows {
		if r == idx {
			return true
		}
	}
	return false
}

// Validate checks the layout is self-consistent
func (l Layout) Validate() error {
	if len(l.ReservedRows) == 0 {
		return core.NewInvalidParamsError("reserved rows", "must not be empty")
	}

	seen := make(map[int]bool, len(l.ReservedRows))
	for _, idx := range l.ReservedRows {
		if idx < 0 {
			return core.NewInvalidParamsError("reserved rows", fmt.Sprintf("contain negative index %d", idx))
		}
		if seen[idx] {
			return core.NewInvalidParamsError("reserved rows", fmt.Sprintf("contain duplicate index %d", idx))
		}
		seen[idx] = true
	}

	if !l.IsReserved(l.HeaderRow) {
		return core.NewInvalidParamsError("header row", fmt.Sprintf("%d is not a reserved row", l.HeaderRow))
	}
	if !l.IsReserved(l.LimitRow) {
		return core.NewInvalidParamsError("limit row", fmt.Sprintf("%d is not a reserved row", l.LimitRow))
	}
	if l.ReferenceRow >= l.DataStart() {
		return core.NewInvalidParamsError("reference row", fmt.Sprintf("%d is inside the processing region", l.ReferenceRow))
	}
	return nil
}

// SortedReserved returns the reserved indices in ascending order
func (l Layout) SortedReserved() []int {
	out := append([]int(nil), l.ReservedRows...)
	sort.Ints(out)
	return out
}

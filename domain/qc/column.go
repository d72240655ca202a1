package qc

import (
	"sort"

	"crmqc/domain/core"
	"crmqc/domain/grid"
)

// ColumnState is the working copy of one processing column. Original is the
// cleaned load value and never changes; Modified has the same length and
// holds absent cells where nothing has been filled in.
type ColumnState struct {
	Column    int         `json:"column"`
	Element   string      `json:"element"`
	Original  []grid.Cell `json:"original"`
	Modified  []grid.Cell `json:"modified"`
	Committed bool        `json:"committed"`
}

// Clone returns a deep copy
func (s *ColumnState) Clone() *ColumnState {
	out := *s
	out.Original = append([]grid.Cell(nil), s.Original...)
	out.Modified = append([]grid.Cell(nil), s.Modified...)
	return &out
}

// Effective returns the modified value, or the original when unfilled
func (s *ColumnState) Effective(row int) grid.Cell {
	if !s.Modified[row].IsAbsent() {
		return s.Modified[row]
	}
	return s.Original[row]
}

// Filled counts rows with a modified value
func (s *ColumnState) Filled() int {
	n := 0
	for _, c := range s.Modified {
		if !c.IsAbsent() {
			n++
		}
	}
	return n
}

func (s *ColumnState) checkRow(row int) error {
	if row < 0 || row >= len(s.Original) {
		return core.NewRowOutOfRangeError(row, len(s.Original))
	}
	return nil
}

// ColumnSession owns the per-column states of a loaded table. States are
// created lazily on first access and kept until the session is discarded.
type ColumnSession struct {
	table  *grid.Table
	states map[int]*ColumnState
}

// NewColumnSession creates an empty session over table
func NewColumnSession(table *grid.Table) *ColumnSession {
	return &ColumnSession{
		table:  table,
		states: make(map[int]*ColumnState),
	}
}

// Table returns the underlying table
func (s *ColumnSession) Table() *grid.Table { return s.table }

// EditableColumns lists every processing column except the fixed column 0
func (s *ColumnSession) EditableColumns() []int {
	cols := make([]int, 0, s.table.Columns())
	for c := 1; c < s.table.Columns(); c++ {
		cols = append(cols, c)
	}
	return cols
}

// CheckColumn fails unless col is an editable column
func (s *ColumnSession) CheckColumn(col int) error {
	if col < 1 || col >= s.table.Columns() {
		return core.NewColumnOutOfRangeError(col, s.table.Columns())
	}
	return nil
}

// Open returns the recorded state for col, creating a fresh one with every
// modified cell absent on first use.
func (s *ColumnSession) Open(col int) (*ColumnState, error) {
	if err := s.CheckColumn(col); err != nil {
		return nil, err
	}
	if state, ok := s.states[col]; ok {
		return state, nil
	}

	state := &ColumnState{
		Column:   col,
		Element:  s.table.ElementName(col),
		Original: s.table.Column(col),
		Modified: make([]grid.Cell, s.table.Rows()),
	}
	s.states[col] = state
	return state, nil
}

// State returns the recorded state for col without creating one
func (s *ColumnSession) State(col int) (*ColumnState, bool) {
	state, ok := s.states[col]
	return state, ok
}

// RecordEdit sets modified[row]; an absent value clears the cell
func (s *ColumnSession) RecordEdit(col, row int, value grid.Cell) error {
	if err := s.CheckColumn(col); err != nil {
		return err
	}
	if row < 0 || row >= s.table.Rows() {
		return core.NewRowOutOfRangeError(row, s.table.Rows())
	}
	state, err := s.Open(col)
	if err != nil {
		return err
	}
	state.Modified[row] = value
	return nil
}

// Commit stores the column's edits as its recorded state
func (s *ColumnSession) Commit(col int) error {
	state, err := s.Open(col)
	if err != nil {
		return err
	}
	state.Committed = true
	return nil
}

// Committed reports whether col has a committed state
func (s *ColumnSession) Committed(col int) bool {
	state, ok := s.states[col]
	return ok && state.Committed
}

// Uncommitted lists editable columns without a committed state, ascending
func (s *ColumnSession) Uncommitted() []int {
	var missing []int
	for _, col := range s.EditableColumns() {
		if !s.Committed(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// FillEmpty fills rows whose original is numeric. A row is drawn when its
// modified cell is absent or params.OverwriteFilled is set:
// value = original*factor + offset, times ratio when the cell was absent or
// params.ApplyRatioToFilled is set, rounded to 2 places. Returns the rows
// written in ascending order.
func (s *ColumnSession) FillEmpty(col int, params FillParams, sampler Sampler) ([]int, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	state, err := s.Open(col)
	if err != nil {
		return nil, err
	}

	var filled []int
	for row, orig := range state.Original {
		v, ok := orig.Float()
		if !ok {
			continue
		}
		wasAbsent := state.Modified[row].IsAbsent()
		if !wasAbsent && !params.OverwriteFilled {
			continue
		}

		factor := sampler.Uniform(params.Min, params.Max)
		value := v*factor + params.Offset
		if params.ApplyRatioToFilled || wasAbsent {
			value *= params.Ratio
		}
		state.Modified[row] = grid.Number(round(value, 2))
		filled = append(filled, row)
	}
	return filled, nil
}

// uniqueRows validates rows against state and returns them deduplicated and sorted
func uniqueRows(state *ColumnState, rows []int) ([]int, error) {
	seen := make(map[int]bool, len(rows))
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if err := state.checkRow(row); err != nil {
			return nil, err
		}
		if !seen[row] {
			seen[row] = true
			out = append(out, row)
		}
	}
	sort.Ints(out)
	return out, nil
}

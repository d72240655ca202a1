package qc

import (
	"crmqc/domain/grid"
)

// LimitResult reports what ApplyLimits rewrote
type LimitResult struct {
	Columns map[int]int `json:"columns"` // column -> cells rewritten
	Skipped []int       `json:"skipped"` // columns without a numeric limit
}

// Total is the number of cells rewritten across all columns
func (r LimitResult) Total() int {
	n := 0
	for _, c := range r.Columns {
		n += c
	}
	return n
}

// LimitApplier rewrites modified values below a column's detection limit
// into "<limit" markers.
type LimitApplier struct {
	columns *ColumnSession
	// AboveMultiplier enables the ">limit" rule for values above
	// limit*AboveMultiplier. Zero disables it.
	AboveMultiplier float64
}

// NewLimitApplier creates an applier over the session's column states
func NewLimitApplier(columns *ColumnSession, aboveMultiplier float64) *LimitApplier {
	return &LimitApplier{columns: columns, AboveMultiplier: aboveMultiplier}
}

// ApplyLimits clamps every listed column that has a recorded state and a
// numeric limit in limitRow. Only numeric modified cells are considered, so
// markers written by an earlier run are left alone and a second run
// changes nothing.
func (a *LimitApplier) ApplyLimits(cols []int, limitRow grid.Row) (LimitResult, error) {
	for _, col := range cols {
		if err := a.columns.CheckColumn(col); err != nil {
			return LimitResult{}, err
		}
	}

	result := LimitResult{Columns: make(map[int]int)}
	for _, col := range cols {
		state, ok := a.columns.State(col)
		if !ok {
			continue
		}
		limit, hasLimit := 0.0, false
		if col < len(limitRow) {
			limit, hasLimit = grid.Clean(limitRow[col]).Float()
		}
		if !hasLimit {
			result.Skipped = append(result.Skipped, col)
			continue
		}
		result.Columns[col] = a.clampColumn(state, limit)
	}
	return result, nil
}

func (a *LimitApplier) clampColumn(state *ColumnState, limit float64) int {
	changed := 0
	for row, cell := range state.Modified {
		v, ok := cell.Float()
		if !ok {
			continue
		}
		switch {
		case v < limit:
			state.Modified[row] = grid.Below(limit)
		case a.AboveMultiplier > 0 && v > limit*a.AboveMultiplier:
			state.Modified[row] = grid.Above(limit)
		default:
			continue
		}
		changed++
	}
	return changed
}

package qc

import (
	"math"

	"crmqc/domain/core"
	"crmqc/domain/grid"

	"github.com/montanaflynn/stats"
)

// OutlierEngine flags duplicate measurements that stray from their group mean
type OutlierEngine struct {
	columns *ColumnSession
}

// NewOutlierEngine creates an engine over the session's column states
func NewOutlierEngine(columns *ColumnSession) *OutlierEngine {
	return &OutlierEngine{columns: columns}
}

// selectionMean returns the sorted unique selection and the mean of its
// numeric originals. Sorting first keeps the float sum independent of the
// order rows were selected in.
func (e *OutlierEngine) selectionMean(col int, selected []int) (*ColumnState, []int, float64, error) {
	state, err := e.columns.Open(col)
	if err != nil {
		return nil, nil, 0, err
	}
	rows, err := uniqueRows(state, selected)
	if err != nil {
		return nil, nil, 0, err
	}

	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := state.Original[row].Float(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, nil, 0, core.ErrEmptySelection
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return nil, nil, 0, core.ErrEmptySelection
	}
	return state, rows, mean, nil
}

// CheckDuplicates classifies each selected row. A row is an outlier when
// |original - mean| > mean*rangeFraction, where mean is taken over the
// numeric originals of the selection. Non-numeric rows are normal.
func (e *OutlierEngine) CheckDuplicates(col int, selected []int, rangeFraction float64) (map[int]Classification, error) {
	if err := validateFraction(rangeFraction); err != nil {
		return nil, err
	}
	state, rows, mean, err := e.selectionMean(col, selected)
	if err != nil {
		return nil, err
	}

	threshold := mean * rangeFraction
	result := make(map[int]Classification, len(rows))
	for _, row := range rows {
		result[row] = ClassNormal
		if v, ok := state.Original[row].Float(); ok && math.Abs(v-mean) > threshold {
			result[row] = ClassOutlier
		}
	}
	return result, nil
}

// FixDuplicates redraws every outlier row as round(mean*factor, 2) and
// passes the original through for selected non-outlier rows that have no
// modified value yet. Existing modified values of non-outlier rows are kept.
// Returns the cells written, keyed by row.
func (e *OutlierEngine) FixDuplicates(col int, selected, outliers []int, params RangeParams, sampler Sampler) (map[int]grid.Cell, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	state, rows, mean, err := e.selectionMean(col, selected)
	if err != nil {
		return nil, err
	}
	outlierRows, err := uniqueRows(state, outliers)
	if err != nil {
		return nil, err
	}

	isOutlier := make(map[int]bool, len(outlierRows))
	written := make(map[int]grid.Cell, len(rows))
	for _, row := range outlierRows {
		isOutlier[row] = true
		factor := sampler.Uniform(params.Min, params.Max)
		state.Modified[row] = grid.Number(round(mean*factor, 2))
		written[row] = state.Modified[row]
	}

	for _, row := range rows {
		if isOutlier[row] || !state.Modified[row].IsAbsent() {
			continue
		}
		if state.Original[row].IsAbsent() {
			continue
		}
		state.Modified[row] = state.Original[row]
		written[row] = state.Modified[row]
	}
	return written, nil
}

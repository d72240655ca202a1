package app

import (
	"crmqc/domain/grid"
	"crmqc/domain/qc"
)

// BatchOptions drive an unattended pass over every column
type BatchOptions struct {
	Fill        qc.FillParams
	ApplyLimits bool
}

// BatchResult reports what a batch pass changed
type BatchResult struct {
	Output  grid.Grid
	Filled  map[int]int // column -> rows filled
	Clamped int
}

// RunBatch fills every column in navigation order, optionally applies the
// detection limits and finalizes. raw is loaded into c first.
func RunBatch(c *SessionController, raw grid.Grid, opts BatchOptions) (BatchResult, error) {
	if err := c.Load(raw); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Filled: make(map[int]int)}
	for c.Mode() == ModeSingleColumn {
		col := c.Cursor()
		rows, err := c.FillEmpty(col, opts.Fill)
		if err != nil {
			return BatchResult{}, err
		}
		result.Filled[col] = len(rows)
		if _, err := c.Next(); err != nil {
			return BatchResult{}, err
		}
	}

	if opts.ApplyLimits {
		limits, err := c.ApplyLimits()
		if err != nil {
			return BatchResult{}, err
		}
		result.Clamped = limits.Total()
	}

	out, err := c.Finalize()
	if err != nil {
		return BatchResult{}, err
	}
	result.Output = out
	c.logger.Info("[Batch] Session %s: %d columns filled, %d cells clamped", c.id, len(result.Filled), result.Clamped)
	return result, nil
}

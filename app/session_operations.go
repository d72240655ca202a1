package app

import (
	"fmt"
	"sort"

	"crmqc/domain/core"
	"crmqc/domain/grid"
	"crmqc/domain/qc"
)

// Row indices taken and returned by the operations below are display
// indices: while a CRM reference row is shown on a column, rows after it
// are shifted by one. The controller translates them to data rows.

// CrmResult is a comparison as seen by the host
type CrmResult struct {
	qc.Comparison
	Display        int `json:"display"`         // display index of the compared row
	ReferenceIndex int `json:"reference_index"` // display index of the reference row, -1 once removed
}

// target checks col can be operated on. Before all columns are processed
// only the cursor column and columns already opened are available.
func (c *SessionController) target(col int) error {
	if err := c.requireLoaded(); err != nil {
		return err
	}
	if err := c.columns.CheckColumn(col); err != nil {
		return err
	}
	if c.mode == ModeSingleColumn && col != c.cursor {
		if _, ok := c.columns.State(col); !ok {
			return core.NewInvalidSelectionError(fmt.Sprintf("column %d has not been opened yet", col))
		}
	}
	return nil
}

// dataRows translates display indices, dropping the reference row
func (c *SessionController) dataRows(col int, display []int) []int {
	rows := make([]int, 0, len(display))
	for _, d := range display {
		if row, synthetic := c.crm.DataRow(col, d); !synthetic {
			rows = append(rows, row)
		}
	}
	return rows
}

// dataRow translates one display index; the reference row is rejected
func (c *SessionController) dataRow(col, display int) (int, error) {
	row, synthetic := c.crm.DataRow(col, display)
	if synthetic {
		return 0, core.NewInvalidSelectionError("the CRM reference row cannot be edited")
	}
	return row, nil
}

func (c *SessionController) highlight(col, row int, class qc.Classification) {
	if c.highlights[col] == nil {
		c.highlights[col] = make(map[int]qc.Classification)
	}
	c.highlights[col][row] = class
}

// RecordEdit sets one modified cell; an absent value clears it
func (c *SessionController) RecordEdit(col, display int, value grid.Cell) error {
	if err := c.target(col); err != nil {
		return err
	}
	row, err := c.dataRow(col, display)
	if err != nil {
		return err
	}
	if err := c.columns.RecordEdit(col, row, value); err != nil {
		return err
	}
	c.record(EventEdit, col, []int{row}, value.String())
	c.logger.Debug("[SessionController] Edited column %d row %d = %q", col, row, value.String())
	return nil
}

// FillEmpty draws values for the column's numeric originals
func (c *SessionController) FillEmpty(col int, params qc.FillParams) ([]int, error) {
	if err := c.target(col); err != nil {
		return nil, err
	}
	rows, err := c.columns.FillEmpty(col, params, c.sampler)
	if err != nil {
		return nil, err
	}
	c.record(EventFill, col, rows, fmt.Sprintf("factor [%g, %g], offset %g, ratio %g", params.Min, params.Max, params.Offset, params.Ratio))
	c.logger.Debug("[SessionController] Filled %d rows of column %d", len(rows), col)
	return c.displayRows(col, rows), nil
}

// CheckDuplicates classifies the selected rows against their mean. The
// result is keyed by display index and kept as the column's highlights.
func (c *SessionController) CheckDuplicates(col int, selected []int, rangeFraction float64) (map[int]qc.Classification, error) {
	if err := c.target(col); err != nil {
		return nil, err
	}
	classes, err := c.outliers.CheckDuplicates(col, c.dataRows(col, selected), rangeFraction)
	if err != nil {
		return nil, err
	}

	out := make(map[int]qc.Classification, len(classes))
	var outliers []int
	for row, class := range classes {
		c.highlight(col, row, class)
		out[c.crm.DisplayRow(col, row)] = class
		if class == qc.ClassOutlier {
			outliers = append(outliers, row)
		}
	}
	sort.Ints(outliers)
	c.record(EventCheckDuplicates, col, outliers, fmt.Sprintf("%d selected, range %g", len(classes), rangeFraction))
	c.logger.Debug("[SessionController] Duplicate check on column %d: %d of %d outliers", col, len(outliers), len(classes))
	return out, nil
}

// FixDuplicates redraws the outlier rows of a selection. A nil outliers
// slice uses the rows flagged by the last CheckDuplicates on col.
func (c *SessionController) FixDuplicates(col int, selected, outliers []int, params qc.RangeParams) (map[int]grid.Cell, error) {
	if err := c.target(col); err != nil {
		return nil, err
	}
	rows := c.dataRows(col, selected)

	var outlierRows []int
	if outliers == nil {
		for _, row := range rows {
			if c.highlights[col][row] == qc.ClassOutlier {
				outlierRows = append(outlierRows, row)
			}
		}
	} else {
		outlierRows = c.dataRows(col, outliers)
	}

	written, err := c.outliers.FixDuplicates(col, rows, outlierRows, params, c.sampler)
	if err != nil {
		return nil, err
	}

	out := make(map[int]grid.Cell, len(written))
	for row, cell := range written {
		out[c.crm.DisplayRow(col, row)] = cell
	}
	for _, row := range outlierRows {
		c.highlight(col, row, qc.ClassCorrected)
	}
	c.record(EventFixDuplicates, col, sortedKeys(written), fmt.Sprintf("%d outliers redrawn", len(outlierRows)))
	c.logger.Debug("[SessionController] Fixed duplicates on column %d: %d cells written", col, len(written))
	return out, nil
}

// SelectReferenceRow marks the CRM sample row of col for later comparison
func (c *SessionController) SelectReferenceRow(col int, selected []int) (int, error) {
	if err := c.target(col); err != nil {
		return 0, err
	}
	row, err := c.crm.SelectReferenceRow(col, c.dataRows(col, selected))
	if err != nil {
		return 0, err
	}
	c.crmRows[col] = row
	c.record(EventSelectReference, col, []int{row}, "")
	c.logger.Debug("[SessionController] Selected CRM row %d on column %d", row, col)
	return c.crm.DisplayRow(col, row), nil
}

// CompareWithReference compares the selected CRM row of col with the
// certified value, using typed when the row has no modified value. The
// reference row then shows after the compared row, replacing one shown
// on any other column.
func (c *SessionController) CompareWithReference(col int, rangeFraction float64, typed *float64) (CrmResult, error) {
	if err := c.target(col); err != nil {
		return CrmResult{}, err
	}
	row, ok := c.crmRows[col]
	if !ok {
		return CrmResult{}, core.NewInvalidSelectionError(fmt.Sprintf("no CRM row selected on column %d", col))
	}

	previous, hadPrevious := c.crm.Active()
	result, err := c.crm.Compare(col, row, rangeFraction, typed)
	if err != nil {
		return CrmResult{}, err
	}
	if hadPrevious && (previous.Column != col || previous.Row != row) {
		c.dropToleranceHighlight(previous.Column, previous.Row)
		c.logger.Debug("[SessionController] Reference row moved from column %d to %d", previous.Column, col)
	}

	c.highlight(col, row, result.Classification)
	c.record(EventCompareReference, col, []int{row}, fmt.Sprintf("%s %g vs %g: %s", result.Element, result.Value, result.Target, result.Classification))
	c.logger.Debug("[SessionController] CRM compare column %d row %d: %s", col, row, result.Classification)
	return c.crmResult(result), nil
}

// FixReferenceDifference redraws the compared row around the certified
// value and removes the reference row.
func (c *SessionController) FixReferenceDifference(col int) (CrmResult, error) {
	if err := c.target(col); err != nil {
		return CrmResult{}, err
	}
	result, err := c.crm.FixDifference(col, c.sampler)
	if err != nil {
		return CrmResult{}, err
	}
	c.highlight(col, result.Row, qc.ClassCorrected)
	c.record(EventFixReference, col, []int{result.Row}, fmt.Sprintf("%s set to %g", result.Element, result.Value))
	c.logger.Debug("[SessionController] CRM fix column %d row %d = %g", col, result.Row, result.Value)
	return c.crmResult(result), nil
}

// ClearReference removes the reference row from col without touching data
func (c *SessionController) ClearReference(col int) error {
	if err := c.target(col); err != nil {
		return err
	}
	active, ok := c.dropReference(col)
	if !ok {
		return nil
	}
	c.record(EventClearReference, col, []int{active.Row}, "")
	c.logger.Debug("[SessionController] Cleared reference row on column %d", col)
	return nil
}

// dropReference removes the reference row shown on col together with the
// tolerance highlight of its compared row.
func (c *SessionController) dropReference(col int) (qc.ActiveReference, bool) {
	active, ok := c.crm.Active()
	if !ok || active.Column != col {
		return qc.ActiveReference{}, false
	}
	c.crm.ClearReference(col)
	c.dropToleranceHighlight(col, active.Row)
	return active, true
}

func (c *SessionController) dropToleranceHighlight(col, row int) {
	if class := c.highlights[col][row]; class == qc.ClassWithinTolerance || class == qc.ClassOutOfTolerance {
		delete(c.highlights[col], row)
	}
}

func (c *SessionController) crmResult(cmp qc.Comparison) CrmResult {
	res := CrmResult{Comparison: cmp, Display: c.crm.DisplayRow(cmp.Column, cmp.Row), ReferenceIndex: -1}
	if active, ok := c.crm.Active(); ok && active.Column == cmp.Column {
		res.ReferenceIndex = active.InsertionPoint()
	}
	return res
}

// ApplyLimits clamps every opened column against the limit row
func (c *SessionController) ApplyLimits() (qc.LimitResult, error) {
	if err := c.requireLoaded(); err != nil {
		return qc.LimitResult{}, err
	}
	return c.applyLimits(c.columns.EditableColumns())
}

// ApplyColumnLimits clamps a single column
func (c *SessionController) ApplyColumnLimits(col int) (qc.LimitResult, error) {
	if err := c.target(col); err != nil {
		return qc.LimitResult{}, err
	}
	return c.applyLimits([]int{col})
}

func (c *SessionController) applyLimits(cols []int) (qc.LimitResult, error) {
	limitRow, ok := c.table.Reserved(c.config.Layout.LimitRow)
	if !ok {
		return qc.LimitResult{}, core.NewMalformedInputError(fmt.Sprintf("limit row %d is missing", c.config.Layout.LimitRow))
	}
	result, err := c.limits.ApplyLimits(cols, limitRow)
	if err != nil {
		return qc.LimitResult{}, err
	}
	for _, col := range sortedKeys(result.Columns) {
		c.record(EventLimits, col, nil, fmt.Sprintf("%d cells clamped", result.Columns[col]))
	}
	c.logger.Debug("[SessionController] Applied limits to %d columns: %d cells clamped, skipped %v",
		len(result.Columns), result.Total(), result.Skipped)
	return result, nil
}

func (c *SessionController) displayRows(col int, rows []int) []int {
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = c.crm.DisplayRow(col, row)
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

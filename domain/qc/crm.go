package qc

import (
	"math"

	"crmqc/domain/core"
	"crmqc/domain/grid"
)

// Comparison is the outcome of comparing a row against its certified value
type Comparison struct {
	Column         int            `json:"column"`
	Row            int            `json:"row"`
	Element        string         `json:"element"`
	Target         float64        `json:"target"`
	Value          float64        `json:"value"`
	RangeFraction  float64        `json:"range_fraction"`
	Classification Classification `json:"classification"`
}

// ActiveReference is the synthetic CRM row shown directly after Row while
// a comparison is open. It never reaches the column data.
type ActiveReference struct {
	Comparison
}

// InsertionPoint is the display index of the synthetic row
func (a ActiveReference) InsertionPoint() int { return a.Row + 1 }

// CrmComparator compares rows with a fixed reference table. At most one
// reference row is active at a time across all columns.
type CrmComparator struct {
	columns   *ColumnSession
	reference ReferenceTable
	active    *ActiveReference
}

// NewCrmComparator creates a comparator using reference
func NewCrmComparator(columns *ColumnSession, reference ReferenceTable) *CrmComparator {
	return &CrmComparator{columns: columns, reference: reference}
}

// Reference returns the reference table in use
func (c *CrmComparator) Reference() ReferenceTable { return c.reference }

// Active returns the active reference row, if any
func (c *CrmComparator) Active() (ActiveReference, bool) {
	if c.active == nil {
		return ActiveReference{}, false
	}
	return *c.active, true
}

// SelectReferenceRow accepts exactly one row whose original is numeric
func (c *CrmComparator) SelectReferenceRow(col int, selected []int) (int, error) {
	state, err := c.columns.Open(col)
	if err != nil {
		return 0, err
	}
	rows, err := uniqueRows(state, selected)
	if err != nil {
		return 0, err
	}
	if len(rows) != 1 {
		return 0, core.NewInvalidSelectionError("select exactly one row as the CRM row")
	}
	if !state.Original[rows[0]].IsNumber() {
		return 0, core.NewInvalidSelectionError("CRM row must hold a numeric original value")
	}
	return rows[0], nil
}

// Compare checks row of col against the certified value of the column's
// element. The value compared is the row's modified number, else typed
// when given, else the original. On success the synthetic reference row
// becomes active after row, replacing any reference active elsewhere.
func (c *CrmComparator) Compare(col, row int, rangeFraction float64, typed *float64) (Comparison, error) {
	if err := validateFraction(rangeFraction); err != nil {
		return Comparison{}, err
	}
	state, err := c.columns.Open(col)
	if err != nil {
		return Comparison{}, err
	}
	if err := state.checkRow(row); err != nil {
		return Comparison{}, err
	}
	if c.reference.Len() == 0 {
		return Comparison{}, core.ErrReferenceNotLoaded
	}
	target, ok := c.reference.Lookup(state.Element)
	if !ok {
		return Comparison{}, core.NewUnknownElementError(state.Element)
	}

	value, ok := state.Modified[row].Float()
	if !ok && typed != nil {
		if !finite(*typed) {
			return Comparison{}, core.NewInvalidParamsError("comparison value", "must be finite")
		}
		value, ok = *typed, true
	}
	if !ok {
		value, ok = state.Original[row].Float()
	}
	if !ok {
		return Comparison{}, core.NewInvalidSelectionError("row has no numeric value to compare")
	}

	result := Comparison{
		Column:         col,
		Row:            row,
		Element:        state.Element,
		Target:         target,
		Value:          value,
		RangeFraction:  rangeFraction,
		Classification: classifyTolerance(value, target, rangeFraction),
	}
	c.active = &ActiveReference{Comparison: result}
	return result, nil
}

func classifyTolerance(value, target, rangeFraction float64) Classification {
	if math.Abs(value-target) <= target*rangeFraction {
		return ClassWithinTolerance
	}
	return ClassOutOfTolerance
}

// FixDifference redraws the compared row as round(target*factor, 6) with
// factor in [1-range, 1+range], then removes the reference row.
func (c *CrmComparator) FixDifference(col int, sampler Sampler) (Comparison, error) {
	if c.active == nil || c.active.Column != col {
		return Comparison{}, core.ErrNoActiveReference
	}
	state, err := c.columns.Open(col)
	if err != nil {
		return Comparison{}, err
	}

	active := c.active.Comparison
	factor := sampler.Uniform(1-active.RangeFraction, 1+active.RangeFraction)
	corrected := round(active.Target*factor, 6)
	state.Modified[active.Row] = grid.Number(corrected)

	active.Value = corrected
	active.Classification = ClassCorrected
	c.active = nil
	return active, nil
}

// ClearReference removes the reference row from col without touching data.
// Clearing when nothing is active on col is a no-op.
func (c *CrmComparator) ClearReference(col int) {
	if c.active != nil && c.active.Column == col {
		c.active = nil
	}
}

// DataRow translates a display index on col into a data row. The synthetic
// reference row itself reports synthetic=true; rows after it shift by one.
func (c *CrmComparator) DataRow(col, display int) (row int, synthetic bool) {
	if c.active == nil || c.active.Column != col {
		return display, false
	}
	point := c.active.InsertionPoint()
	switch {
	case display == point:
		return -1, true
	case display > point:
		return display - 1, false
	}
	return display, false
}

// DisplayRow translates a data row on col into its display index
func (c *CrmComparator) DisplayRow(col, row int) int {
	if c.active == nil || c.active.Column != col || row < c.active.InsertionPoint() {
		return row
	}
	return row + 1
}

// DisplayRows is the number of display rows on col
func (c *CrmComparator) DisplayRows(col int) int {
	rows := c.columns.Table().Rows()
	if c.active != nil && c.active.Column == col {
		rows++
	}
	return rows
}

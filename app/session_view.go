package app

import (
	"time"

	"crmqc/domain/core"
	"crmqc/domain/grid"
	"crmqc/domain/qc"

	"github.com/montanaflynn/stats"
)

// EventKind names a recorded operation
type EventKind string

const (
	EventLoad             EventKind = "load"
	EventNavigate         EventKind = "navigate"
	EventCommit           EventKind = "commit"
	EventEdit             EventKind = "edit"
	EventFill             EventKind = "fill"
	EventCheckDuplicates  EventKind = "check_duplicates"
	EventFixDuplicates    EventKind = "fix_duplicates"
	EventSelectReference  EventKind = "select_reference"
	EventCompareReference EventKind = "compare_reference"
	EventFixReference     EventKind = "fix_reference"
	EventClearReference   EventKind = "clear_reference"
	EventLimits           EventKind = "limits"
	EventFinalize         EventKind = "finalize"
)

// Event is one entry of the session history. Rows are data rows.
type Event struct {
	ID      core.EventID `json:"id"`
	Kind    EventKind    `json:"kind"`
	Column  int          `json:"column"`
	Element string       `json:"element,omitempty"`
	Rows    []int        `json:"rows,omitempty"`
	Detail  string       `json:"detail,omitempty"`
	At      time.Time    `json:"at"`
}

func (c *SessionController) record(kind EventKind, col int, rows []int, detail string) {
	c.history = append(c.history, Event{
		ID:      core.NewEventID(),
		Kind:    kind,
		Column:  col,
		Element: c.table.ElementName(col),
		Rows:    append([]int(nil), rows...),
		Detail:  detail,
		At:      time.Now(),
	})
}

// History returns a copy of the recorded events, oldest first
func (c *SessionController) History() []Event {
	return append([]Event(nil), c.history...)
}

// ViewRow is one display row of a column
type ViewRow struct {
	Display        int               `json:"display"`
	Row            int               `json:"row"` // data row, -1 for the reference row
	Reference      bool              `json:"reference,omitempty"`
	Fixed          grid.Cell         `json:"fixed"`
	Original       grid.Cell         `json:"original"`
	Modified       grid.Cell         `json:"modified"`
	Classification qc.Classification `json:"classification,omitempty"`
}

// ColumnStats summarises the effective numeric values of a column. Markers
// counts "<limit" and ">limit" cells, which are left out of the numbers.
type ColumnStats struct {
	Count   int     `json:"count"`
	Filled  int     `json:"filled"`
	Markers int     `json:"markers"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ColumnView is everything a host needs to render one column
type ColumnView struct {
	ColumnInfo
	Mode      Mode                `json:"mode"`
	Rows      []ViewRow           `json:"rows"`
	Reference *qc.ActiveReference `json:"reference,omitempty"`
	Stats     ColumnStats         `json:"stats"`
}

// View renders col with the reference row interleaved. Columns not yet
// opened show their originals with nothing modified.
func (c *SessionController) View(col int) (ColumnView, error) {
	if err := c.requireLoaded(); err != nil {
		return ColumnView{}, err
	}
	if err := c.columns.CheckColumn(col); err != nil {
		return ColumnView{}, err
	}

	infos := c.columnInfos()
	view := ColumnView{ColumnInfo: infos[col-1], Mode: c.mode}

	original := c.table.Column(col)
	modified := make([]grid.Cell, len(original))
	if state, ok := c.columns.State(col); ok {
		original, modified = state.Original, state.Modified
	}
	fixed := c.table.Column(0)

	view.Rows = make([]ViewRow, 0, c.crm.DisplayRows(col))
	for row := range original {
		view.Rows = append(view.Rows, ViewRow{
			Display:        c.crm.DisplayRow(col, row),
			Row:            row,
			Fixed:          fixed[row],
			Original:       original[row],
			Modified:       modified[row],
			Classification: c.highlights[col][row],
		})
	}
	if active, ok := c.crm.Active(); ok && active.Column == col {
		point := active.InsertionPoint()
		ref := ViewRow{
			Display:   point,
			Row:       -1,
			Reference: true,
			Fixed:     grid.Text(c.reference.Name()),
			Original:  grid.Number(active.Target),
			Modified:  grid.Absent(),
		}
		view.Rows = append(view.Rows[:point], append([]ViewRow{ref}, view.Rows[point:]...)...)
		view.Reference = &active
	}

	view.Stats = columnStats(original, modified)
	return view, nil
}

func columnStats(original, modified []grid.Cell) ColumnStats {
	var out ColumnStats
	values := make([]float64, 0, len(original))
	for row := range original {
		cell := original[row]
		if !modified[row].IsAbsent() {
			out.Filled++
			cell = modified[row]
		}
		if cell.IsMarker() {
			out.Markers++
		}
		if v, ok := cell.Float(); ok {
			values = append(values, v)
		}
	}
	out.Count = len(values)
	if len(values) == 0 {
		return out
	}

	data := stats.Float64Data(values)
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.Min, _ = data.Min()
	out.Max, _ = data.Max()
	return out
}

// SessionSummary is the session-wide state used by hosts and reports
type SessionSummary struct {
	ID                core.SessionID `json:"id"`
	Mode              Mode           `json:"mode"`
	Cursor            int            `json:"cursor"`
	LoadedAt          time.Time      `json:"loaded_at"`
	InputHash         core.Hash      `json:"input_hash"`
	OutputHash        core.Hash      `json:"output_hash,omitempty"`
	Rows              int            `json:"rows"`
	ReservedRows      []int          `json:"reserved_rows"`
	Reference         string         `json:"reference"`
	ReferenceElements []string       `json:"reference_elements"`
	Columns           []ColumnInfo   `json:"columns"`
	Events            int            `json:"events"`
}

// Summary describes the loaded session
func (c *SessionController) Summary() (SessionSummary, error) {
	if err := c.requireLoaded(); err != nil {
		return SessionSummary{}, err
	}
	return SessionSummary{
		ID:                c.id,
		Mode:              c.mode,
		Cursor:            c.cursor,
		LoadedAt:          c.loadedAt,
		InputHash:         c.input,
		OutputHash:        c.output,
		Rows:              c.table.Rows(),
		ReservedRows:      c.config.Layout.SortedReserved(),
		Reference:         c.reference.Name(),
		ReferenceElements: c.reference.Elements(),
		Columns:           c.columnInfos(),
		Events:            len(c.history),
	}, nil
}

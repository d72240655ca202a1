package app

import (
	"fmt"
	"strings"
	"time"

	"crmqc/domain/core"
	"crmqc/domain/grid"
	"crmqc/domain/qc"
	"crmqc/internal"
	"crmqc/ports"
)

// Mode is the navigation state of a session
type Mode string

const (
	ModeEmpty        Mode = "empty"
	ModeSingleColumn Mode = "single_column"
	ModeAllProcessed Mode = "all_processed"
)

const inFileReferenceName = "in-file CRM"

// ControllerConfig holds the static settings of a controller
type ControllerConfig struct {
	Layout grid.Layout
	// Reference is the certified value table. When empty, the layout's
	// reference row is used if it carries numbers.
	Reference qc.ReferenceTable
	// AboveLimitMultiplier enables the ">limit" clamp, 0 disables it.
	AboveLimitMultiplier float64
}

// DefaultControllerConfig uses the lab template layout and no reference table
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{Layout: grid.DefaultLayout()}
}

// ColumnInfo identifies an editable column and its progress
type ColumnInfo struct {
	Column    int      `json:"column"`
	Element   string   `json:"element"`
	Visited   bool     `json:"visited"`
	Committed bool     `json:"committed"`
	Filled    int      `json:"filled"`
	Limit     *float64 `json:"limit,omitempty"`
}

// Position is where navigation left the session
type Position struct {
	Mode    Mode         `json:"mode"`
	Column  int          `json:"column"`
	Element string       `json:"element"`
	Columns []ColumnInfo `json:"columns,omitempty"` // set once all columns are processed
}

// SessionController drives one editing session: load, per-column navigation,
// the all-processed view and final reassembly. It is not safe for concurrent
// use; hosts serialise access.
type SessionController struct {
	config  ControllerConfig
	sampler ports.Sampler
	logger  *internal.Logger

	id       core.SessionID
	loadedAt time.Time
	input    core.Hash
	output   core.Hash
	mode     Mode
	cursor   int

	table     *grid.Table
	reference qc.ReferenceTable
	columns   *qc.ColumnSession
	outliers  *qc.OutlierEngine
	crm       *qc.CrmComparator
	limits    *qc.LimitApplier

	highlights map[int]map[int]qc.Classification // column -> data row -> class
	crmRows    map[int]int                       // column -> selected CRM row
	history    []Event
}

// NewSessionController creates an empty controller. A nil logger falls back
// to internal.DefaultLogger.
func NewSessionController(config ControllerConfig, sampler ports.Sampler, logger *internal.Logger) *SessionController {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SessionController{
		config:  config,
		sampler: sampler,
		logger:  logger,
		mode:    ModeEmpty,
	}
}

// Load replaces any current session with raw. The first editable column is
// opened; a grid with only the fixed column is immediately all-processed.
func (c *SessionController) Load(raw grid.Grid) error {
	table, err := grid.Load(raw, c.config.Layout)
	if err != nil {
		c.logger.Warn("[SessionController] Rejected grid: %v", err)
		return err
	}

	c.id = core.NewSessionID()
	c.loadedAt = time.Now()
	c.input = raw.Fingerprint()
	c.output = ""
	c.table = table
	c.reference = c.resolveReference(table)
	c.columns = qc.NewColumnSession(table)
	c.outliers = qc.NewOutlierEngine(c.columns)
	c.crm = qc.NewCrmComparator(c.columns, c.reference)
	c.limits = qc.NewLimitApplier(c.columns, c.config.AboveLimitMultiplier)
	c.highlights = make(map[int]map[int]qc.Classification)
	c.crmRows = make(map[int]int)
	c.history = nil

	editable := c.columns.EditableColumns()
	if len(editable) == 0 {
		c.mode = ModeAllProcessed
		c.cursor = 0
	} else {
		c.mode = ModeSingleColumn
		c.cursor = editable[0]
		if _, err := c.columns.Open(c.cursor); err != nil {
			return err
		}
	}

	c.record(EventLoad, c.cursor, nil, fmt.Sprintf("%d rows, %d columns", table.Rows(), table.Columns()))
	c.logger.Info("[SessionController] Loaded session %s (input %s): %d rows, %d columns, reference %q (%d elements), mode %s",
		c.id, c.input.Short(), table.Rows(), table.Columns(), c.reference.Name(), c.reference.Len(), c.mode)
	return nil
}

func (c *SessionController) resolveReference(table *grid.Table) qc.ReferenceTable {
	if c.config.Reference.Len() > 0 {
		return c.config.Reference
	}
	idx := c.config.Layout.ReferenceRow
	if idx < 0 || idx >= len(table.Head) {
		return c.config.Reference
	}

	row := table.Head[idx]
	name := inFileReferenceName
	if len(row) > 0 && row[0].Kind == grid.CellText {
		name = strings.TrimSpace(row[0].Text)
	}
	cleaned := make(grid.Row, len(row))
	for i, cell := range row {
		cleaned[i] = grid.Clean(cell)
	}
	return qc.ReferenceFromRow(name, table.Header, cleaned)
}

// ID returns the current session id, empty before load
func (c *SessionController) ID() core.SessionID { return c.id }

// Mode returns the navigation state
func (c *SessionController) Mode() Mode { return c.mode }

// Cursor returns the column under navigation; 0 when none
func (c *SessionController) Cursor() int { return c.cursor }

// Reference returns the certified value table in use
func (c *SessionController) Reference() qc.ReferenceTable { return c.reference }

// Layout returns the configured row layout
func (c *SessionController) Layout() grid.Layout { return c.config.Layout }

// Columns lists every editable column with its element name and progress
func (c *SessionController) Columns() ([]ColumnInfo, error) {
	if err := c.requireLoaded(); err != nil {
		return nil, err
	}
	return c.columnInfos(), nil
}

func (c *SessionController) columnInfos() []ColumnInfo {
	editable := c.columns.EditableColumns()
	infos := make([]ColumnInfo, 0, len(editable))
	for _, col := range editable {
		info := ColumnInfo{Column: col, Element: c.table.ElementName(col)}
		if state, ok := c.columns.State(col); ok {
			info.Visited = true
			info.Committed = state.Committed
			info.Filled = state.Filled()
		}
		if limit, ok := c.table.Limit(col); ok {
			info.Limit = &limit
		}
		infos = append(infos, info)
	}
	return infos
}

// OpenColumn jumps to col. In single-column mode the current column is
// committed and the cursor moves; once all columns are processed this only
// selects col for viewing.
func (c *SessionController) OpenColumn(col int) (ColumnView, error) {
	if err := c.requireLoaded(); err != nil {
		return ColumnView{}, err
	}
	if err := c.columns.CheckColumn(col); err != nil {
		return ColumnView{}, err
	}

	if c.mode == ModeSingleColumn && col != c.cursor {
		if err := c.leaveCursor(); err != nil {
			return ColumnView{}, err
		}
		c.cursor = col
		c.record(EventNavigate, col, nil, "open")
		c.logger.Info("[SessionController] Opened column %d (%s)", col, c.table.ElementName(col))
	}
	if _, err := c.columns.Open(col); err != nil {
		return ColumnView{}, err
	}
	return c.View(col)
}

// Commit stores the cursor column's edits without moving
func (c *SessionController) Commit() error {
	if err := c.requireLoaded(); err != nil {
		return err
	}
	if c.mode != ModeSingleColumn {
		return nil
	}
	if err := c.columns.Commit(c.cursor); err != nil {
		return err
	}
	c.record(EventCommit, c.cursor, nil, "")
	c.logger.Debug("[SessionController] Committed column %d", c.cursor)
	return nil
}

// Next commits the current column and advances. Moving past the last column
// switches to all-processed once every column has a recorded state;
// otherwise the cursor stays on the last column.
func (c *SessionController) Next() (Position, error) {
	if err := c.requireNavigation(); err != nil {
		return Position{}, err
	}
	if err := c.leaveCursor(); err != nil {
		return Position{}, err
	}

	editable := c.columns.EditableColumns()
	last := editable[len(editable)-1]
	if c.cursor < last {
		c.cursor++
		if _, err := c.columns.Open(c.cursor); err != nil {
			return Position{}, err
		}
		c.record(EventNavigate, c.cursor, nil, "next")
		c.logger.Info("[SessionController] Moved to column %d (%s)", c.cursor, c.table.ElementName(c.cursor))
		return c.position(), nil
	}

	for _, col := range editable {
		if _, ok := c.columns.State(col); !ok {
			c.logger.Debug("[SessionController] Column %d not visited, staying on last column", col)
			return c.position(), nil
		}
	}
	c.mode = ModeAllProcessed
	c.record(EventNavigate, c.cursor, nil, "all processed")
	c.logger.Info("[SessionController] All %d columns processed, navigation closed", len(editable))
	return c.position(), nil
}

// Previous commits the current column and moves back, stopping at the
// first editable column.
func (c *SessionController) Previous() (Position, error) {
	if err := c.requireNavigation(); err != nil {
		return Position{}, err
	}
	if err := c.leaveCursor(); err != nil {
		return Position{}, err
	}

	if c.cursor > 1 {
		c.cursor--
		if _, err := c.columns.Open(c.cursor); err != nil {
			return Position{}, err
		}
		c.record(EventNavigate, c.cursor, nil, "previous")
		c.logger.Info("[SessionController] Moved to column %d (%s)", c.cursor, c.table.ElementName(c.cursor))
	}
	return c.position(), nil
}

// leaveCursor commits the cursor column and drops a reference row shown on it
func (c *SessionController) leaveCursor() error {
	if err := c.columns.Commit(c.cursor); err != nil {
		return err
	}
	c.dropReference(c.cursor)
	return nil
}

func (c *SessionController) position() Position {
	pos := Position{Mode: c.mode, Column: c.cursor, Element: c.table.ElementName(c.cursor)}
	if c.mode == ModeAllProcessed {
		pos.Columns = c.columnInfos()
	}
	return pos
}

// Finalize merges every column back into the grid. All editable columns must
// be committed; in single-column mode the cursor column is committed here.
// Nothing is mutated when a column is missing.
func (c *SessionController) Finalize() (grid.Grid, error) {
	if err := c.requireLoaded(); err != nil {
		return nil, err
	}

	var missing []int
	for _, col := range c.columns.Uncommitted() {
		if c.mode == ModeSingleColumn && col == c.cursor {
			continue
		}
		missing = append(missing, col)
	}
	if len(missing) > 0 {
		c.logger.Warn("[SessionController] Finalize refused, uncommitted columns %v", missing)
		return nil, core.NewIncompleteProcessingError(missing)
	}
	if c.mode == ModeSingleColumn {
		if err := c.columns.Commit(c.cursor); err != nil {
			return nil, err
		}
	}

	data := c.table.Data.Clone()
	for _, col := range c.columns.EditableColumns() {
		state, _ := c.columns.State(col)
		for row := range data {
			data[row][col] = state.Effective(row)
		}
	}
	out := c.table.Assemble(data)
	c.output = out.Fingerprint()

	c.record(EventFinalize, 0, nil, fmt.Sprintf("%d rows, output %s", len(out), c.output.Short()))
	c.logger.Info("[SessionController] Finalized session %s: %d rows, output %s", c.id, len(out), c.output.Short())
	return out, nil
}

func (c *SessionController) requireLoaded() error {
	if c.mode == ModeEmpty {
		return core.ErrNotLoaded
	}
	return nil
}

func (c *SessionController) requireNavigation() error {
	switch c.mode {
	case ModeEmpty:
		return core.ErrNotLoaded
	case ModeAllProcessed:
		return core.ErrNavigationClosed
	}
	return nil
}

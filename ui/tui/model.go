// Package tui is an interactive terminal host for a QC session.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"crmqc/adapters/excel"
	"crmqc/app"
	"crmqc/domain/core"
	"crmqc/domain/grid"
	"crmqc/domain/qc"
	"crmqc/internal/config"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configure the terminal host
type Options struct {
	Defaults config.OperatorDefaults
	Excel    excel.ExcelConfig
	Output   string // finalized grid is written here on save
}

type inputKind int

const (
	inputNone inputKind = iota
	inputEdit
	inputCompare
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	classStyles = map[string]lipgloss.Style{
		"outlier":          lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"out_of_tolerance": lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"within_tolerance": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"corrected":        lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	}
)

const help = "n/p column  space select  e edit  f fill  d/D check/fix dups  r/c/x/z crm select/compare/fix/clear  l/L limits  [ ] target  s save  q quit"

// Model is the bubbletea model around a loaded controller
type Model struct {
	controller *app.SessionController
	options    Options

	col      int
	selected map[int]bool // display indices
	tbl      table.Model
	input    textinput.Model
	inputFor inputKind

	status string
	err    error
	saved  bool
}

// New creates a model showing the controller's cursor column
func New(controller *app.SessionController, options Options) *Model {
	input := textinput.New()
	input.CharLimit = 32

	m := &Model{
		controller: controller,
		options:    options,
		col:        controller.Cursor(),
		selected:   make(map[int]bool),
		tbl:        table.New(table.WithFocused(true), table.WithHeight(20)),
		input:      input,
	}
	m.tbl.SetColumns([]table.Column{
		{Title: "#", Width: 4},
		{Title: "Sample", Width: 14},
		{Title: "Original", Width: 10},
		{Title: "Modified", Width: 10},
		{Title: "Class", Width: 16},
		{Title: "Sel", Width: 3},
	})
	m.refresh()
	return m
}

// Run starts the interactive program
func Run(ctx context.Context, controller *app.SessionController, options Options) error {
	_, err := tea.NewProgram(New(controller, options), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.tbl.SetHeight(h)
		}
		return m, nil
	case tea.KeyMsg:
		if m.inputFor != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n":
		m.navigate(m.controller.Next)
	case "p":
		m.navigate(m.controller.Previous)
	case "[":
		m.retarget(-1)
	case "]":
		m.retarget(1)
	case " ":
		row := m.tbl.Cursor()
		m.selected[row] = !m.selected[row]
		if !m.selected[row] {
			delete(m.selected, row)
		}
	case "e":
		m.startInput(inputEdit, "value (empty clears): ")
		return m, textinput.Blink
	case "f":
		rows, err := m.controller.FillEmpty(m.col, m.options.Defaults.Fill)
		m.report(err, "filled %d rows", len(rows))
	case "d":
		classes, err := m.controller.CheckDuplicates(m.col, m.selection(), m.options.Defaults.DuplicateRange)
		outliers := 0
		for _, c := range classes {
			if c == qc.ClassOutlier {
				outliers++
			}
		}
		m.report(err, "%d of %d selected rows are outliers", outliers, len(classes))
	case "D":
		written, err := m.controller.FixDuplicates(m.col, m.selection(), nil, m.options.Defaults.DuplicateFix)
		m.report(err, "wrote %d cells", len(written))
		if err == nil {
			m.clearSelection()
		}
	case "r":
		rows := m.selection()
		if len(rows) == 0 {
			rows = []int{m.tbl.Cursor()}
		}
		row, err := m.controller.SelectReferenceRow(m.col, rows)
		m.report(err, "CRM row %d selected", row)
	case "c":
		m.startInput(inputCompare, "typed value (empty uses the row): ")
		return m, textinput.Blink
	case "x":
		res, err := m.controller.FixReferenceDifference(m.col)
		m.report(err, "%s corrected to %g", res.Element, res.Value)
	case "z":
		m.report(m.controller.ClearReference(m.col), "reference row cleared")
	case "l":
		res, err := m.controller.ApplyLimits()
		m.report(err, "clamped %d cells, skipped columns %v", res.Total(), res.Skipped)
	case "L":
		res, err := m.controller.ApplyColumnLimits(m.col)
		m.report(err, "clamped %d cells", res.Total())
	case "s":
		m.save()
	default:
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputFor = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		kind, text := m.inputFor, strings.TrimSpace(m.input.Value())
		m.inputFor = inputNone
		m.input.Blur()
		m.submitInput(kind, text)
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startInput(kind inputKind, prompt string) {
	m.inputFor = kind
	m.input.Prompt = prompt
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) submitInput(kind inputKind, text string) {
	switch kind {
	case inputEdit:
		row := m.tbl.Cursor()
		m.report(m.controller.RecordEdit(m.col, row, grid.ParseCell(text)), "row %d set to %q", row, text)
	case inputCompare:
		var typed *float64
		if text != "" {
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				m.report(fmt.Errorf("%q is not a number", text), "")
				return
			}
			typed = &v
		}
		res, err := m.controller.CompareWithReference(m.col, m.options.Defaults.CrmRange, typed)
		m.report(err, "%s %g vs certified %g: %s", res.Element, res.Value, res.Target, res.Classification)
	}
}

func (m *Model) navigate(step func() (app.Position, error)) {
	pos, err := step()
	if err != nil {
		m.report(err, "")
		return
	}
	m.col = pos.Column
	m.clearSelection()
	if pos.Mode == app.ModeAllProcessed {
		m.status = fmt.Sprintf("all %d columns processed; use [ ] to pick a target column", len(pos.Columns))
		return
	}
	m.status = fmt.Sprintf("column %d (%s)", pos.Column, pos.Element)
}

// retarget picks another column once all columns are processed
func (m *Model) retarget(delta int) {
	if m.controller.Mode() != app.ModeAllProcessed {
		m.status = "target columns are available once all columns are processed"
		return
	}
	cols, err := m.controller.Columns()
	if err != nil || len(cols) == 0 {
		m.report(err, "")
		return
	}
	next := m.col + delta
	if next < cols[0].Column || next > cols[len(cols)-1].Column {
		return
	}
	m.col = next
	m.clearSelection()
}

func (m *Model) save() {
	out, err := m.controller.Finalize()
	if err != nil {
		m.report(err, "")
		return
	}
	if m.options.Output == "" {
		m.status = fmt.Sprintf("finalized %d rows (no output path)", len(out))
		return
	}
	err = excel.NewDataWriter(m.options.Output, m.options.Excel).WriteGrid(context.Background(), out)
	m.saved = err == nil
	m.report(err, "saved %d rows to %s", len(out), m.options.Output)
}

func (m *Model) report(err error, format string, args ...interface{}) {
	if err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf(format, args...)
}

// errorLabel names the family of a failed operation for the status line
func errorLabel(err error) string {
	switch {
	case core.IsInputError(err):
		return "input error"
	case core.IsSelectionError(err):
		return "selection error"
	case core.IsReferenceError(err):
		return "reference error"
	case core.IsSessionError(err):
		return "session error"
	}
	return "error"
}

func (m *Model) selection() []int {
	rows := make([]int, 0, len(m.selected))
	for row := range m.selected {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	return rows
}

func (m *Model) clearSelection() {
	m.selected = make(map[int]bool)
}

func (m *Model) refresh() {
	view, err := m.controller.View(m.col)
	if err != nil {
		m.tbl.SetRows(nil)
		return
	}
	rows := make([]table.Row, 0, len(view.Rows))
	for _, r := range view.Rows {
		index := strconv.Itoa(r.Row)
		if r.Reference {
			index = "CRM"
		}
		sel := ""
		if m.selected[r.Display] {
			sel = "*"
		}
		rows = append(rows, table.Row{index, r.Fixed.String(), r.Original.String(), r.Modified.String(), string(r.Classification), sel})
	}
	m.tbl.SetRows(rows)
}

func (m *Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("CRM QC  %s  column %d", m.controller.Mode(), m.col)
	if view, err := m.controller.View(m.col); err == nil {
		title = fmt.Sprintf("CRM QC  %s  column %d (%s)  filled %d  mean %.4g",
			view.Mode, view.Column, view.Element, view.Stats.Filled, view.Stats.Mean)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.tbl.View())
	b.WriteString("\n")

	if row := m.tbl.SelectedRow(); len(row) > 4 {
		if style, ok := classStyles[row[4]]; ok {
			b.WriteString(style.Render(row[4]))
			b.WriteString("\n")
		}
	}
	if m.inputFor != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(errorLabel(m.err) + ": " + m.err.Error()))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

package tui

import (
	"path/filepath"
	"testing"

	"crmqc/adapters/excel"
	"crmqc/app"
	"crmqc/domain/grid"
	"crmqc/domain/qc"
	"crmqc/internal"
	"crmqc/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type midSampler struct{}

func (midSampler) Uniform(min, max float64) float64 { return (min + max) / 2 }

func newModel(t *testing.T, output string) (*Model, *app.SessionController) {
	t.Helper()
	c := app.NewSessionController(app.DefaultControllerConfig(), midSampler{}, internal.NewLogger(internal.LogLevelError))
	require.NoError(t, c.Load(grid.FromStrings([][]string{
		{"Sample", "Au", "Cu"},
		{"OREAS 903", "1.5", "300"},
		{"", "", ""},
		{"DL", "0.5", "10"},
		{"", "", ""},
		{"", "", ""},
		{"S-1", "0.7", "120"},
		{"S-2", "1.2", "130"},
	})))
	m := New(c, Options{
		Defaults: config.OperatorDefaults{
			Fill:           qc.FillParams{Min: 1, Max: 1, Ratio: 1},
			DuplicateRange: 0.05,
			DuplicateFix:   qc.RangeParams{Min: 1, Max: 1},
			CrmRange:       0.1,
		},
		Excel:  excel.DefaultExcelConfig(),
		Output: output,
	})
	return m, c
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestFillAndNavigate(t *testing.T) {
	m, c := newModel(t, "")

	press(m, "f")
	assert.NoError(t, m.err)
	assert.Equal(t, "filled 2 rows", m.status)
	assert.Equal(t, "1.2", m.tbl.Rows()[1][3])

	press(m, "n")
	assert.Equal(t, 2, m.col)
	press(m, "n")
	assert.Equal(t, app.ModeAllProcessed, c.Mode())

	press(m, "[")
	assert.Equal(t, 1, m.col)
	press(m, "[")
	assert.Equal(t, 1, m.col)
	assert.Contains(t, m.View(), "column 1 (Au)")
}

func TestEditThroughInput(t *testing.T) {
	m, _ := newModel(t, "")

	press(m, "down", "e", "9", ".", "5", "enter")
	require.NoError(t, m.err)
	assert.Equal(t, "9.5", m.tbl.Rows()[1][3])
}

func TestCrmFlowShowsReferenceRow(t *testing.T) {
	m, _ := newModel(t, "")

	press(m, "r", "c", "enter")
	require.NoError(t, m.err)
	require.Len(t, m.tbl.Rows(), 3)
	assert.Equal(t, "CRM", m.tbl.Rows()[1][0])
	assert.Equal(t, "out_of_tolerance", m.tbl.Rows()[0][4])

	press(m, "x")
	require.NoError(t, m.err)
	assert.Len(t, m.tbl.Rows(), 2)
	assert.Equal(t, "1.5", m.tbl.Rows()[0][3])
}

func TestSaveWritesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	m, _ := newModel(t, out)

	press(m, "s")
	assert.Error(t, m.err)

	press(m, "n", "s")
	require.NoError(t, m.err)
	assert.True(t, m.saved)

	got, err := excel.NewDataReader(out, excel.DefaultExcelConfig()).ReadGrid(t.Context())
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestErrorsAreShown(t *testing.T) {
	m, _ := newModel(t, "")
	press(m, "x")
	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "reference error: no active reference row")

	press(m, "d")
	assert.Contains(t, m.View(), "selection error: ")

	press(m, "s")
	assert.Contains(t, m.View(), "session error: not all columns have been processed")
}

package grid

import (
	"testing"

	"crmqc/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid() Grid {
	return FromStrings([][]string{
		{"Sample", "Au", "Cu"},
		{"OREAS", "1.2", "300"},
		{"Batch", "B1", "B1"},
		{"DL", "0.01", "5"},
		{"Unit", "ppm", "ppm"},
		{"Method", "FA", "ICP"},
		{"S-1", "<0.01", "310"},
		{"S-2", "1.5", ">20"},
		{"S-3", "n.a.", ""},
	})
}

func TestLoadSplitsAndCleans(t *testing.T) {
	table, err := Load(sampleGrid(), DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Rows())
	assert.Equal(t, 3, table.Columns())
	assert.Len(t, table.Head, 6)
	assert.Equal(t, "Au", table.ElementName(1))

	assert.True(t, Number(0.01).Equal(table.Data[0][1]))
	assert.True(t, Number(20).Equal(table.Data[1][2]))
	assert.True(t, Text("n.a.").Equal(table.Data[2][1]))
	assert.True(t, Absent().Equal(table.Data[2][2]))

	limit, ok := table.Limit(2)
	assert.True(t, ok)
	assert.Equal(t, 5.0, limit)

	_, ok = table.Limit(0)
	assert.False(t, ok, "fixed column header text is not a limit")
}

func TestLoadKeepsHeaderBlockVerbatim(t *testing.T) {
	raw := sampleGrid()
	table, err := Load(raw, DefaultLayout())
	require.NoError(t, err)

	for i, row := range table.Head {
		require.Len(t, row, len(raw[i]))
		for j := range row {
			assert.True(t, raw[i][j].Equal(row[j]))
		}
	}

	limits, ok := table.Reserved(3)
	require.True(t, ok)
	assert.Equal(t, "DL", limits[0].String())

	_, ok = table.Reserved(1)
	assert.False(t, ok, "row 1 is header block but not reserved")
}

func TestLoadDoesNotMutateRaw(t *testing.T) {
	raw := sampleGrid()
	_, err := Load(raw, DefaultLayout())
	require.NoError(t, err)
	assert.True(t, Text("<0.01").Equal(raw[6][1]))
}

func TestLoadMalformed(t *testing.T) {
	short := sampleGrid()[:4]
	_, err := Load(short, DefaultLayout())
	assert.ErrorIs(t, err, core.ErrMalformedInput)

	ragged := sampleGrid()
	ragged[7] = ragged[7][:2]
	_, err = Load(ragged, DefaultLayout())
	assert.ErrorIs(t, err, core.ErrMalformedInput)

	emptyHeader := sampleGrid()
	emptyHeader[0] = Row{}
	_, err = Load(emptyHeader, DefaultLayout())
	assert.ErrorIs(t, err, core.ErrMalformedInput)
}

func TestLoadAllowsEmptyProcessingRegion(t *testing.T) {
	table, err := Load(sampleGrid()[:6], DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Rows())
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, DefaultLayout().Validate())
	assert.Equal(t, 6, DefaultLayout().DataStart())

	tests := []struct {
		name   string
		layout Layout
	}{
		{"empty", Layout{HeaderRow: 0, LimitRow: 0, ReferenceRow: -1}},
		{"duplicate", Layout{ReservedRows: []int{0, 0}, ReferenceRow: -1}},
		{"negative", Layout{ReservedRows: []int{-1, 0}, ReferenceRow: -1}},
		{"header not reserved", Layout{ReservedRows: []int{0, 3}, HeaderRow: 1, LimitRow: 3, ReferenceRow: -1}},
		{"limit not reserved", Layout{ReservedRows: []int{0, 2}, HeaderRow: 0, LimitRow: 1, ReferenceRow: -1}},
		{"reference in data", Layout{ReservedRows: []int{0, 1}, HeaderRow: 0, LimitRow: 1, ReferenceRow: 4}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.ErrorIs(t, test.layout.Validate(), core.ErrInvalidParams)
		})
	}
}

func TestAssembleRestoresShape(t *testing.T) {
	raw := sampleGrid()
	table, err := Load(raw, DefaultLayout())
	require.NoError(t, err)

	out := table.Assemble(table.Data)
	require.Len(t, out, len(raw))
	assert.Equal(t, "OREAS", out[1][0].String())
	assert.Equal(t, "0.01", out[6][1].String())
}

func TestGridStringsPads(t *testing.T) {
	g := Grid{{Number(1)}, {Text("a"), Text("b")}}
	assert.Equal(t, [][]string{{"1", ""}, {"a", "b"}}, g.Strings())
}

func TestFingerprintIgnoresTrailingAbsentCells(t *testing.T) {
	g := sampleGrid()
	padded := g.Clone()
	padded[1] = append(padded[1], Absent(), Absent())

	assert.Equal(t, g.Fingerprint(), padded.Fingerprint())
	assert.Len(t, g.Fingerprint().String(), 64)

	changed := g.Clone()
	changed[1][1] = Text("1.2")
	assert.NotEqual(t, g.Fingerprint(), changed.Fingerprint(), "kind is part of the hash")
}

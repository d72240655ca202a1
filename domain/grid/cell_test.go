package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		input    string
		expected Cell
	}{
		{"12.5", Number(12.5)},
		{"  7 ", Number(7)},
		{"", Absent()},
		{"   ", Absent()},
		{"<2", Text("<2")},
		{"Au", Text("Au")},
		{"NaN", Text("NaN")},
		{"Inf", Text("Inf")},
	}

	for _, test := range tests {
		result := ParseCell(test.input)
		assert.True(t, test.expected.Equal(result), "ParseCell(%q) = %+v", test.input, result)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    Cell
		expected Cell
	}{
		{"below prefix", Text("<2"), Number(2)},
		{"above prefix", Text(">0.5"), Number(0.5)},
		{"below suffix", Text("3<"), Number(3)},
		{"above suffix", Text("4.25>"), Number(4.25)},
		{"spaced", Text("< 10"), Number(10)},
		{"unparsable marker", Text("<abc"), Text("<abc")},
		{"plain text", Text("n.a."), Text("n.a.")},
		{"number untouched", Number(9), Number(9)},
		{"absent untouched", Absent(), Absent()},
		{"marker cell", Below(0.01), Number(0.01)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.True(t, test.expected.Equal(Clean(test.input)))
		})
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "5", Number(5).String())
	assert.Equal(t, "0.125", Number(0.125).String())
	assert.Equal(t, "<0.01", Below(0.01).String())
	assert.Equal(t, ">2", Above(2).String())
	assert.Equal(t, "", Absent().String())
	assert.Equal(t, "Cu", Text("Cu").String())
}

func TestMarkerIsNotNumeric(t *testing.T) {
	_, ok := Below(1).Float()
	assert.False(t, ok)

	v, ok := Number(3).Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestCellJSON(t *testing.T) {
	row := Row{Number(1.5), Below(0.2), Text("x"), Absent()}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, "<0.2", "x", null]`, string(data))

	var decoded Row
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(row))
	for i := range row {
		assert.True(t, row[i].Equal(decoded[i]), "cell %d: %+v", i, decoded[i])
	}
}

func TestCellUnmarshalRejectsObjects(t *testing.T) {
	var c Cell
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &c))
}

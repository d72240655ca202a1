package qc

import (
	"testing"

	"crmqc/domain/grid"

	"github.com/stretchr/testify/assert"
)

func TestReferenceFromRow(t *testing.T) {
	header := grid.FromStrings([][]string{{"Sample", "Au", "Cu", "Zn", "Pb"}})[0]
	values := grid.FromStrings([][]string{{"OREAS 903", "1.23", "", "n.a.", "45"}})[0]

	table := ReferenceFromRow("OREAS 903", header, values)
	assert.Equal(t, "OREAS 903", table.Name())
	assert.Equal(t, []string{"Au", "Pb"}, table.Elements())

	v, ok := table.Lookup("Au")
	assert.True(t, ok)
	assert.Equal(t, 1.23, v)

	_, ok = table.Lookup("Cu")
	assert.False(t, ok)
}

func TestReferenceLookupCaseInsensitive(t *testing.T) {
	table := NewReferenceTable("x", map[string]float64{" Au ": 1, "": 3})

	v, ok := table.Lookup("au")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = table.Lookup(" AU ")
	assert.True(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestReferenceValuesIsACopy(t *testing.T) {
	table := NewReferenceTable("x", map[string]float64{"Au": 1})
	values := table.Values()
	values["Au"] = 99

	v, _ := table.Lookup("Au")
	assert.Equal(t, 1.0, v)
}

func TestReferenceLookupCaseCollisionIsStable(t *testing.T) {
	table := NewReferenceTable("x", map[string]float64{"AU": 1, "au": 2, "Cu ": 5, "Cu": 6})

	for i := 0; i < 200; i++ {
		v, ok := table.Lookup("Au")
		assert.True(t, ok)
		assert.Equal(t, 1.0, v, "AU sorts before au")

		v, ok = table.Lookup("cu")
		assert.True(t, ok)
		assert.Equal(t, 6.0, v, "Cu sorts before \"Cu \"")
	}

	v, ok := table.Lookup("au")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v, "exact match wins over the folded one")
}

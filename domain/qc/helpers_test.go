package qc

import (
	"testing"

	"crmqc/domain/grid"

	"github.com/stretchr/testify/require"
)

// fixedSampler returns factor clamped into the requested range
type fixedSampler struct {
	factor float64
	calls  int
}

func (s *fixedSampler) Uniform(min, max float64) float64 {
	s.calls++
	switch {
	case s.factor < min:
		return min
	case s.factor > max:
		return max
	}
	return s.factor
}

// seqSampler replays values in order
type seqSampler struct {
	values []float64
	next   int
}

func (s *seqSampler) Uniform(min, max float64) float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// newTable builds a table with the default layout: six header-block rows
// followed by one processing row per entry in data.
func newTable(t *testing.T, header []string, limits []string, data [][]string) *grid.Table {
	t.Helper()

	blank := make([]string, len(header))
	crm := make([]string, len(header))
	copy(crm, blank)
	raw := [][]string{header, crm, blank, limits, blank, blank}
	raw = append(raw, data...)

	table, err := grid.Load(grid.FromStrings(raw), grid.DefaultLayout())
	require.NoError(t, err)
	return table
}

// singleColumn is a table with a fixed id column and one element column
func singleColumn(t *testing.T, values ...string) *grid.Table {
	t.Helper()
	data := make([][]string, len(values))
	for i, v := range values {
		data[i] = []string{"S" + string(rune('A'+i)), v}
	}
	return newTable(t, []string{"Sample", "Au"}, []string{"DL", "1"}, data)
}

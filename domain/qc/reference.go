package qc

import (
	"sort"
	"strings"

	"crmqc/domain/grid"
)

// ReferenceTable maps element names to certified values for one CRM. It is
// static configuration and is never edited by a session.
type ReferenceTable struct {
	name   string
	values map[string]float64
	folded map[string]string // lowercased name -> name in values
}

// NewReferenceTable copies values into an immutable table. Names are
// trimmed; when two names collide after trimming or lowercasing, the
// lexically smallest original name wins.
func NewReferenceTable(name string, values map[string]float64) ReferenceTable {
	raw := make([]string, 0, len(values))
	for element := range values {
		raw = append(raw, element)
	}
	sort.Strings(raw)

	copied := make(map[string]float64, len(values))
	for _, element := range raw {
		v := values[element]
		trimmed := strings.TrimSpace(element)
		if trimmed == "" || !finite(v) {
			continue
		}
		if _, dup := copied[trimmed]; dup {
			continue
		}
		copied[trimmed] = v
	}

	names := make([]string, 0, len(copied))
	for element := range copied {
		names = append(names, element)
	}
	sort.Strings(names)
	folded := make(map[string]string, len(names))
	for _, element := range names {
		key := strings.ToLower(element)
		if _, dup := folded[key]; !dup {
			folded[key] = element
		}
	}
	return ReferenceTable{name: name, values: copied, folded: folded}
}

// ReferenceFromRow builds a table from an element-name row and a value row.
// Blank, textual and marker cells are skipped.
func ReferenceFromRow(name string, header, values grid.Row) ReferenceTable {
	parsed := make(map[string]float64)
	for col, cell := range values {
		if col >= len(header) {
			break
		}
		v, ok := cell.Float()
		if !ok {
			continue
		}
		parsed[header[col].String()] = v
	}
	return NewReferenceTable(name, parsed)
}

// Name is the CRM label, e.g. "OREAS 903"
func (t ReferenceTable) Name() string { return t.name }

// Len returns the number of certified elements
func (t ReferenceTable) Len() int { return len(t.values) }

// Lookup finds the certified value for element: exact match first, then a
// case-insensitive match on the trimmed name.
func (t ReferenceTable) Lookup(element string) (float64, bool) {
	if v, ok := t.values[element]; ok {
		return v, true
	}
	if name, ok := t.folded[strings.ToLower(strings.TrimSpace(element))]; ok {
		return t.values[name], true
	}
	return 0, false
}

// Elements lists certified element names in sorted order
func (t ReferenceTable) Elements() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of the table contents
func (t ReferenceTable) Values() map[string]float64 {
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

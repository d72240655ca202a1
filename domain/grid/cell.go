package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind tags the variant held by a Cell
type CellKind int

const (
	CellAbsent CellKind = iota
	CellNumber
	CellMarker
	CellText
)

// String returns the kind name used in logs and JSON views
func (k CellKind) String() string {
	switch k {
	case CellAbsent:
		return "absent"
	case CellNumber:
		return "number"
	case CellMarker:
		return "marker"
	case CellText:
		return "text"
	}
	return "invalid"
}

// Bound is the direction of a bounded marker
type Bound int

const (
	BoundBelow Bound = iota + 1
	BoundAbove
)

// Cell is a single grid value: a finite number, a bounded marker such as
// "<0.01", free text, or absent.
type Cell struct {
	Kind  CellKind
	Num   float64 // number value, or the threshold of a marker
	Text  string
	Bound Bound
}

// Absent returns the empty cell
func Absent() Cell { return Cell{Kind: CellAbsent} }

// Number creates a numeric cell
func Number(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

// Text creates a textual cell; an empty string is absent
func Text(s string) Cell {
	if s == "" {
		return Absent()
	}
	return Cell{Kind: CellText, Text: s}
}

// Below creates a "<limit" marker
func Below(limit float64) Cell { return Cell{Kind: CellMarker, Num: limit, Bound: BoundBelow} }

// Above creates a ">limit" marker
func Above(limit float64) Cell { return Cell{Kind: CellMarker, Num: limit, Bound: BoundAbove} }

func (c Cell) IsAbsent() bool { return c.Kind == CellAbsent }
func (c Cell) IsNumber() bool { return c.Kind == CellNumber }
func (c Cell) IsMarker() bool { return c.Kind == CellMarker }

// Float returns the numeric value. Markers are not numeric.
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}
	return c.Num, true
}

// String renders the cell the way it is written to output files
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return FormatNumber(c.Num)
	case CellMarker:
		if c.Bound == BoundAbove {
			return ">" + FormatNumber(c.Num)
		}
		return "<" + FormatNumber(c.Num)
	case CellText:
		return c.Text
	}
	return ""
}

// Equal reports whether two cells hold the same variant and value
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case CellNumber:
		return c.Num == other.Num
	case CellMarker:
		return c.Num == other.Num && c.Bound == other.Bound
	case CellText:
		return c.Text == other.Text
	}
	return true
}

// FormatNumber uses the shortest representation that round-trips
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseCell converts a raw file value into a cell. Numeric text becomes a
// number, blanks become absent, everything else stays text. Markers are not
// recognised here; see Clean.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Absent()
	}
	if v, ok := parseFinite(s); ok {
		return Number(v)
	}
	return Text(s)
}

// Clean undoes clamping markers from a previous save: text that begins or
// ends with '<' or '>' and wraps a number becomes that number. Anything
// else is returned unchanged.
func Clean(c Cell) Cell {
	switch c.Kind {
	case CellMarker:
		return Number(c.Num)
	case CellText:
	default:
		return c
	}

	t := c.Text
	var rest string
	switch {
	case strings.HasPrefix(t, "<"), strings.HasPrefix(t, ">"):
		rest = t[1:]
	case strings.HasSuffix(t, "<"), strings.HasSuffix(t, ">"):
		rest = t[:len(t)-1]
	default:
		return c
	}

	if v, ok := parseFinite(strings.TrimSpace(rest)); ok {
		return Number(v)
	}
	return c
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// MarshalJSON writes numbers as JSON numbers, markers and text as strings
// and absent cells as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellAbsent:
		return []byte("null"), nil
	case CellNumber:
		return json.Marshal(c.Num)
	default:
		return json.Marshal(c.String())
	}
}

// UnmarshalJSON accepts null, a number or a string. Strings go through
// ParseCell and marker recognition so "<0.5" round-trips as a marker.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*c = Absent()
	case float64:
		*c = Number(v)
	case string:
		*c = parseMarker(v)
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

func parseMarker(raw string) Cell {
	parsed := ParseCell(raw)
	if parsed.Kind != CellText {
		return parsed
	}
	t := parsed.Text
	if len(t) > 1 && (t[0] == '<' || t[0] == '>') {
		if v, ok := parseFinite(strings.TrimSpace(t[1:])); ok {
			if t[0] == '>' {
				return Above(v)
			}
			return Below(v)
		}
	}
	return parsed
}

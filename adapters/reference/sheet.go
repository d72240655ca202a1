package reference

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"crmqc/adapters/excel"
	"crmqc/domain/qc"
	"crmqc/ports"
)

// SheetSource reads certified values from a spreadsheet: row 0 holds the
// element names and ValueRow the values. Blank and non-numeric cells are
// skipped.
type SheetSource struct {
	path     string
	valueRow int
	config   excel.ExcelConfig
}

// NewSheetSource creates a source reading valueRow of path
func NewSheetSource(path string, valueRow int, config excel.ExcelConfig) *SheetSource {
	return &SheetSource{path: path, valueRow: valueRow, config: config}
}

// LoadReference reads the sheet and extracts the value row
func (s *SheetSource) LoadReference(ctx context.Context) (qc.ReferenceTable, error) {
	rows, err := excel.NewDataReader(s.path, s.config).ReadGrid(ctx)
	if err != nil {
		return qc.ReferenceTable{}, err
	}
	if s.valueRow <= 0 || s.valueRow >= len(rows) {
		return qc.ReferenceTable{}, fmt.Errorf("reference row %d outside %s (%d rows)", s.valueRow, s.path, len(rows))
	}

	values := rows[s.valueRow]
	name := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	if len(values) > 0 && !values[0].IsNumber() && !values[0].IsAbsent() {
		name = values[0].String()
	}

	table := qc.ReferenceFromRow(name, rows[0], values)
	if table.Len() == 0 {
		return qc.ReferenceTable{}, fmt.Errorf("reference row %d of %s has no numeric values", s.valueRow, s.path)
	}
	log.Printf("[Reference] Loaded %q with %d elements from %s row %d", table.Name(), table.Len(), s.path, s.valueRow)
	return table, nil
}

// FromFile picks a source by extension: .yaml/.yml files are YAML
// documents, anything else is a spreadsheet read at valueRow.
func FromFile(path string, valueRow int, config excel.ExcelConfig) ports.ReferenceSource {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLSource(path)
	}
	return NewSheetSource(path, valueRow, config)
}

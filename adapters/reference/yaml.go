package reference

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"crmqc/domain/qc"

	"gopkg.in/yaml.v3"
)

// document is the on-disk YAML layout of a certified value table:
//
//	name: OREAS 903
//	elements:
//	  Au: 1.23
//	  Cu: 300
type document struct {
	Name     string             `yaml:"name"`
	Elements map[string]float64 `yaml:"elements"`
}

// YAMLSource loads a reference table from a YAML file
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a source for path
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

// LoadReference reads and decodes the file
func (s *YAMLSource) LoadReference(ctx context.Context) (qc.ReferenceTable, error) {
	if err := ctx.Err(); err != nil {
		return qc.ReferenceTable{}, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return qc.ReferenceTable{}, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer file.Close()

	table, err := DecodeYAML(file)
	if err != nil {
		return qc.ReferenceTable{}, fmt.Errorf("%s: %w", s.path, err)
	}
	log.Printf("[Reference] Loaded %q with %d elements from %s", table.Name(), table.Len(), s.path)
	return table, nil
}

// DecodeYAML parses a reference document
func DecodeYAML(r io.Reader) (qc.ReferenceTable, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return qc.ReferenceTable{}, fmt.Errorf("invalid reference YAML: %w", err)
	}
	if len(doc.Elements) == 0 {
		return qc.ReferenceTable{}, fmt.Errorf("reference YAML has no elements")
	}
	return qc.NewReferenceTable(doc.Name, doc.Elements), nil
}

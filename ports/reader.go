package ports

import (
	"context"

	"crmqc/domain/grid"
	"crmqc/domain/qc"
)

// GridReader loads a raw tabular file into a grid
type GridReader interface {
	ReadGrid(ctx context.Context) (grid.Grid, error)
}

// GridWriter persists a finalized grid
type GridWriter interface {
	WriteGrid(ctx context.Context, g grid.Grid) error
}

// ReferenceSource provides the certified reference table for a session
type ReferenceSource interface {
	LoadReference(ctx context.Context) (qc.ReferenceTable, error)
}

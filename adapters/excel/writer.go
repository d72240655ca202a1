package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	"crmqc/domain/grid"
	"crmqc/ports"

	"github.com/xuri/excelize/v2"
)

// DataWriter writes finalized grids to Excel or CSV files
type DataWriter struct {
	filePath string
	fileType FileType
	config   ExcelConfig
}

var _ ports.GridWriter = (*DataWriter)(nil)

// NewDataWriter creates a writer; the format follows the file extension
func NewDataWriter(filePath string, config ExcelConfig) *DataWriter {
	return &DataWriter{filePath: filePath, fileType: DetectFileType(filePath), config: config}
}

// WriteGrid writes g to the writer's path, replacing any existing file
func (w *DataWriter) WriteGrid(ctx context.Context, g grid.Grid) error {
	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", w.filePath, err)
	}

	if err := WriteTo(ctx, file, w.fileType, w.config, g); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", w.filePath, err)
	}

	log.Printf("[DataWriter] Wrote %d rows to %s", len(g), w.filePath)
	return nil
}

// WriteTo encodes g as fileType into dst
func WriteTo(ctx context.Context, dst io.Writer, fileType FileType, config ExcelConfig, g grid.Grid) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch fileType {
	case FileTypeCSV:
		return writeCSV(dst, g)
	case FileTypeXLSX:
		return writeExcel(dst, config, g)
	}
	return fmt.Errorf("unsupported file type: %s", fileType)
}

func writeCSV(dst io.Writer, g grid.Grid) error {
	writer := csv.NewWriter(dst)
	if err := writer.WriteAll(g.Strings()); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// writeExcel keeps numbers numeric in the workbook; markers and text are strings
func writeExcel(dst io.Writer, config ExcelConfig, g grid.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
		}
	}

	for i, row := range g {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			switch cell.Kind {
			case grid.CellNumber:
				values[j] = cell.Num
			case grid.CellAbsent:
				values[j] = nil
			default:
				values[j] = cell.String()
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"crmqc/domain/grid"
	"crmqc/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType FileType
	config   ExcelConfig
}

var _ ports.GridReader = (*DataReader)(nil)

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ExcelConfig) *DataReader {
	return &DataReader{filePath: filePath, fileType: DetectFileType(filePath), config: config}
}

// ReadGrid reads the whole file. Rows are padded to the widest row because
// workbooks drop trailing blank cells.
func (r *DataReader) ReadGrid(ctx context.Context) (grid.Grid, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.fileType)), r.filePath)
	}

	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", r.fileType, err)
	}
	defer file.Close()

	return ReadFrom(ctx, file, r.fileType, r.config)
}

// ReadFrom parses tabular data of the given type from src
func ReadFrom(ctx context.Context, src io.Reader, fileType FileType, config ExcelConfig) (grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	readStart := time.Now()
	switch fileType {
	case FileTypeCSV:
		rows, err = readCSVRows(src)
	case FileTypeXLSX:
		rows, err = readExcelRows(src, config)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)",
		strings.ToUpper(string(fileType)), float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return padRows(grid.FromStrings(rows)), nil
}

// readExcelRows reads every row of the configured sheet, or the first sheet
func readExcelRows(src io.Reader, config ExcelConfig) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	return rows, nil
}

// readCSVRows reads CSV data allowing ragged rows
func readCSVRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func padRows(g grid.Grid) grid.Grid {
	width := g.Width()
	for i, row := range g {
		for len(row) < width {
			row = append(row, grid.Absent())
		}
		g[i] = row
	}
	return g
}

package excel

// ExcelConfig holds configuration for workbook access
type ExcelConfig struct {
	// SheetName is read and written; empty reads the first sheet and writes "Sheet1"
	SheetName string `json:"sheet_name"`
}

// DefaultExcelConfig returns sensible defaults for workbook processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{}
}

const defaultSheet = "Sheet1"

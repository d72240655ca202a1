package excel

import (
	"path/filepath"
	"strings"
)

// FileType identifies the on-disk tabular format
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// DetectFileType picks the format from the file extension; anything that
// is not .csv is treated as a workbook.
func DetectFileType(path string) FileType {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// ContentType is the MIME type served for downloads
func (t FileType) ContentType() string {
	if t == FileTypeCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

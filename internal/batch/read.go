package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/devicebulk/internal/csvio"
)

// Read parses a batch, choosing the format from the file name's extension.
func Read(filename string, r io.Reader) (*Batch, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ReadCSV(filename, r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(filename, r)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedFormat)
	}
}

// ReadCSV parses a CSV batch. A leading BOM is ignored.
func ReadCSV(source string, r io.Reader) (*Batch, error) {
	records, _, err := csvio.ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return FromRecords(source, records)
}

// ReadXLSX parses the first worksheet of a workbook. Cells are read as their
// formatted text.
func ReadXLSX(source string, r io.Reader) (*Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: open workbook: %w", source, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyBatch)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", source, sheets[0], err)
	}
	return FromRecords(source, rows)
}

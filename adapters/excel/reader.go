// Package excel reads the subject label table from CSV or XLSX files.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"crosspred/internal"

	"github.com/xuri/excelize/v2"
)

// ReadTable reads a CSV or XLSX file, chosen by extension. For workbooks the
// named sheet is read, or the first sheet when sheet is empty.
func ReadTable(path, sheet string, logger *internal.Logger) (*Table, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	ext := strings.ToLower(filepath.Ext(path))

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported label file type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: need a header row and at least one data row", path)
	}

	t := newTable(rows)
	logger.Debug("[Excel] read %s: %d columns, %d rows", filepath.Base(path), len(t.Headers), len(t.Rows))
	return t, nil
}

// ParseCSV reads a CSV label table from r
func ParseCSV(r io.Reader) (*Table, error) {
	rows, err := csvRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("need a header row and at least one data row")
	}
	return newTable(rows), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()
	return csvRows(f)
}

func csvRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

package excel

import (
	"math"
	"strconv"
	"strings"
)

// Row maps a header to its trimmed cell text
type Row map[string]string

// Number parses the cell of col. Empty, non-numeric and NaN cells report false.
func (r Row) Number(col string) (float64, bool) {
	s := r[col]
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Table is a spreadsheet read into a header row and data rows
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether the header row contains name
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Missing returns the columns of names absent from the header row
func (t *Table) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !t.HasColumn(n) {
			out = append(out, n)
		}
	}
	return out
}

func newTable(rows [][]string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	t := &Table{Headers: headers, Rows: make([]Row, 0, len(rows)-1)}
	for _, cells := range rows[1:] {
		row := make(Row, len(headers))
		for j, cell := range cells {
			if j < len(headers) {
				row[headers[j]] = strings.TrimSpace(cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

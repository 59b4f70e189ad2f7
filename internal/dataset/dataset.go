package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row maps a column name to a raw cell value. Values are strings as read
// from the source, or float64 when a caller has pre-coerced them. Rows are
// treated as immutable once loaded.
type Row map[string]any

// Table is an ordered set of rows with a stable column order.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Cell returns the raw value for col, or nil when the row has no entry.
func (r Row) Cell(col string) any {
	if r == nil {
		return nil
	}
	return r[col]
}

// CellString coerces the raw value for col to its textual form. Pre-coerced
// numbers are formatted with minimal digits so "5" and 5.0 compare equal.
func (r Row) CellString(col string) string {
	switch v := r.Cell(col).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// dedupeHeader gives duplicate or blank header names a stable unique form,
// so Row keys never collide. Blanks become "_1", "_2", ... by position;
// repeats get a numeric suffix.
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	count := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "_" + strconv.Itoa(i+1)
		}
		if n := count[name]; n > 0 {
			count[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		count[name]++
		out[i] = name
	}
	return out
}

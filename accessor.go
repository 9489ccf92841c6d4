package xlcomplete

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// CellAccessor provides read-only access to surrounding cell data. It
// must be side-effect-free and cheap: the suggesters call it once per
// scanned cell on every keystroke.
type CellAccessor interface {
	// CellValue returns the value at the 0-based row/col on the given
	// sheet ("" = active sheet). Empty cells return nil.
	CellValue(row, col int, sheet string) any

	// CacheKey identifies the current state of the surrounding data; it
	// changes when cell data changes. May return "".
	CacheKey() string
}

// NamedRange is one workbook-defined name and the reference it covers.
type NamedRange struct {
	Name string
	Ref  string
}

// TableInfo describes one workbook table for structured-reference
// suggestions.
type TableInfo struct {
	Name    string
	Sheet   string
	Ref     string
	Columns []string
}

// SchemaProvider supplies workbook-level structure. All methods may fail;
// the engine treats any failure as "no schema data".
type SchemaProvider interface {
	NamedRanges(ctx context.Context) ([]NamedRange, error)
	SheetNames(ctx context.Context) ([]string, error)
	Tables(ctx context.Context) ([]TableInfo, error)
	CacheKey() string
}

// MapAccessor is an in-memory CellAccessor backed by a map. The zero
// value is not usable; create one with NewMapAccessor.
type MapAccessor struct {
	cells    map[string]any
	revision int
}

// NewMapAccessor creates an empty in-memory accessor.
func NewMapAccessor() *MapAccessor {
	return &MapAccessor{cells: make(map[string]any)}
}

// SetCell stores a value at the 0-based row/col of the given sheet.
func (m *MapAccessor) SetCell(row, col int, sheet string, value any) {
	m.cells[mapCellKey(row, col, sheet)] = value
	m.revision++
}

// SetColumn stores a run of values downward from the 0-based start row.
func (m *MapAccessor) SetColumn(startRow, col int, sheet string, values ...any) {
	for i, v := range values {
		m.SetCell(startRow+i, col, sheet, v)
	}
}

// CellValue implements CellAccessor.
func (m *MapAccessor) CellValue(row, col int, sheet string) any {
	if row < 0 || col < 0 {
		return nil
	}
	return m.cells[mapCellKey(row, col, sheet)]
}

// CacheKey implements CellAccessor.
func (m *MapAccessor) CacheKey() string {
	return fmt.Sprintf("mem:%d", m.revision)
}

func mapCellKey(row, col int, sheet string) string {
	return sheet + "\x00" + strconv.Itoa(row) + ":" + strconv.Itoa(col)
}

// cellIsEmpty reports whether a cell value counts as empty for scanning:
// nil or a blank string.
func cellIsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// cellNumber extracts a numeric value from a cell, parsing numeric
// strings the way workbook readers surface them.
func cellNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// cellString renders a cell value for prefix matching.
func cellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		if s {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", s)
	}
}

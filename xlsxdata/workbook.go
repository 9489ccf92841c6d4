// Package xlsxdata adapts an excelize workbook to the read-only accessor
// and schema interfaces consumed by the completion engine. All cell data
// is read into memory once at open time so per-keystroke lookups never
// touch the file.
package xlsxdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/javajack/xlcomplete"
)

// Workbook is a read-only snapshot of an xlsx file implementing
// xlcomplete.CellAccessor and xlcomplete.SchemaProvider.
type Workbook struct {
	file        *excelize.File
	activeSheet string
	sheets      map[string][][]string // sheet name → rows → cells
	cacheKey    string
}

// Open opens an xlsx file and snapshots its cell data.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return New(f)
}

// New snapshots an already-open excelize file.
func New(f *excelize.File) (*Workbook, error) {
	w := &Workbook{
		file:   f,
		sheets: make(map[string][][]string),
	}

	list := f.GetSheetList()
	if len(list) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if idx := f.GetActiveSheetIndex(); idx >= 0 && idx < len(list) {
		w.activeSheet = list[idx]
	} else {
		w.activeSheet = list[0]
	}

	h := fnv.New64a()
	for _, sheet := range list {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read rows from sheet %q: %w", sheet, err)
		}
		w.sheets[sheet] = rows

		h.Write([]byte(sheet))
		for _, row := range rows {
			for _, cell := range row {
				h.Write([]byte(cell))
				h.Write([]byte{0})
			}
			h.Write([]byte{1})
		}
	}
	w.cacheKey = fmt.Sprintf("xlsx:%x", h.Sum64())

	return w, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// ActiveSheet returns the workbook's active sheet name.
func (w *Workbook) ActiveSheet() string { return w.activeSheet }

// CellValue implements xlcomplete.CellAccessor over the snapshot.
// Values are the formatted strings excelize surfaces; empty cells are nil.
func (w *Workbook) CellValue(row, col int, sheet string) any {
	if row < 0 || col < 0 {
		return nil
	}
	if sheet == "" {
		sheet = w.activeSheet
	}
	rows, ok := w.sheets[sheet]
	if !ok || row >= len(rows) {
		return nil
	}
	r := rows[row]
	if col >= len(r) || r[col] == "" {
		return nil
	}
	return r[col]
}

// CacheKey implements xlcomplete.CellAccessor: a content hash of the
// snapshot, so two workbooks with identical data share cache entries.
func (w *Workbook) CacheKey() string { return w.cacheKey }

// SheetNames implements xlcomplete.SchemaProvider.
func (w *Workbook) SheetNames(context.Context) ([]string, error) {
	return w.file.GetSheetList(), nil
}

// NamedRanges implements xlcomplete.SchemaProvider from the workbook's
// defined names.
func (w *Workbook) NamedRanges(context.Context) ([]xlcomplete.NamedRange, error) {
	defined := w.file.GetDefinedName()
	out := make([]xlcomplete.NamedRange, 0, len(defined))
	for _, d := range defined {
		if d.Name == "" || strings.HasPrefix(d.Name, "_xlnm.") {
			// Built-in names (print areas etc.) are not useful completions.
			continue
		}
		out = append(out, xlcomplete.NamedRange{Name: d.Name, Ref: d.RefersTo})
	}
	return out, nil
}

// Tables implements xlcomplete.SchemaProvider, with table column names
// read from each table's header row.
func (w *Workbook) Tables(context.Context) ([]xlcomplete.TableInfo, error) {
	var out []xlcomplete.TableInfo
	for _, sheet := range w.file.GetSheetList() {
		tables, err := w.file.GetTables(sheet)
		if err != nil {
			return nil, fmt.Errorf("read tables from sheet %q: %w", sheet, err)
		}
		for _, tbl := range tables {
			out = append(out, xlcomplete.TableInfo{
				Name:    tbl.Name,
				Sheet:   sheet,
				Ref:     tbl.Range,
				Columns: w.tableColumns(sheet, tbl.Range),
			})
		}
	}
	return out, nil
}

// tableColumns reads the header row of a table range like "A1:C5".
func (w *Workbook) tableColumns(sheet, rangeRef string) []string {
	startPart, _, ok := strings.Cut(rangeRef, ":")
	if !ok {
		return nil
	}
	start, err := xlcomplete.ParseCellRef(startPart)
	if err != nil {
		return nil
	}
	endPart := rangeRef[strings.Index(rangeRef, ":")+1:]
	end, err := xlcomplete.ParseCellRef(endPart)
	if err != nil {
		return nil
	}

	var cols []string
	for c := start.Col; c <= end.Col; c++ {
		v := w.CellValue(start.Row, c, sheet)
		if s, ok := v.(string); ok && s != "" {
			cols = append(cols, s)
		}
	}
	return cols
}

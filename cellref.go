package xlcomplete

import (
	"fmt"
	"strings"
)

// MaxCol is the largest valid 0-based column index (column "XFD").
const MaxCol = 16383

// CellRef represents a single cell position in a workbook.
type CellRef struct {
	Sheet string // sheet name (empty = current sheet)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses an A1-style cell reference such as "A1", "$B$2",
// "Sheet1!C3" or "'My Sheet'!D4". Apostrophes inside a quoted sheet name
// are escaped by doubling ('').
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	sheet, cellPart, err := splitSheetQualifier(s)
	if err != nil {
		return CellRef{}, err
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	if cellPart == "" {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, row, err := parseCellName(cellPart)
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

// splitSheetQualifier splits "Sheet!A1" into sheet and cell parts,
// unescaping a quoted sheet name.
func splitSheetQualifier(s string) (sheet, cell string, err error) {
	if !strings.HasPrefix(s, "'") {
		if idx := strings.LastIndex(s, "!"); idx >= 0 {
			return s[:idx], s[idx+1:], nil
		}
		return "", s, nil
	}

	// Quoted sheet name: scan for the closing quote, treating '' as an
	// escaped apostrophe.
	var b strings.Builder
	i := 1
	for i < len(s) {
		if s[i] == '\'' {
			if i+1 < len(s) && s[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			break
		}
		b.WriteByte(s[i])
		i++
	}
	if i >= len(s) || s[i] != '\'' {
		return "", "", fmt.Errorf("unterminated sheet quote in %q", s)
	}
	i++
	if i >= len(s) || s[i] != '!' {
		return "", "", fmt.Errorf("missing '!' after sheet name in %q", s)
	}
	return b.String(), s[i+1:], nil
}

// parseCellName parses "A1" into col=0, row=0.
func parseCellName(name string) (col, row int, err error) {
	if len(name) == 0 {
		return 0, 0, fmt.Errorf("empty cell name")
	}

	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", name)
	}

	colStr := name[:i]
	rowStr := name[i:]

	col, err = NameToCol(colStr)
	if err != nil {
		return 0, 0, err
	}

	rowNum := 0
	for _, ch := range rowStr {
		if ch < '0' || ch > '9' {
			return 0, 0, fmt.Errorf("invalid row in cell name: %q", name)
		}
		rowNum = rowNum*10 + int(ch-'0')
		if rowNum > 1048576 {
			return 0, 0, fmt.Errorf("row out of range in cell name: %q", name)
		}
	}
	if rowNum < 1 {
		return 0, 0, fmt.Errorf("invalid row number in cell name: %q", name)
	}

	return col, rowNum - 1, nil // convert 1-based row to 0-based
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
// Sheet names that require quoting are quoted with '' escapes.
func (c CellRef) String() string {
	name := c.CellName()
	if c.Sheet != "" {
		return QuoteSheetName(c.Sheet) + "!" + name
	}
	return name
}

// CellName returns just the cell part like "A1" without sheet name.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + fmt.Sprintf("%d", c.Row+1)
}

// ToA1 formats the CellRef as an A1 string, optionally $-anchored.
func (c CellRef) ToA1(anchored bool) string {
	if anchored {
		name := "$" + ColToName(c.Col) + "$" + fmt.Sprintf("%d", c.Row+1)
		if c.Sheet != "" {
			return QuoteSheetName(c.Sheet) + "!" + name
		}
		return name
	}
	return c.String()
}

// NormalizeCellRef parses a cell reference string and re-renders it in
// canonical form: upper-case column letters, no anchors, quoted sheet name
// only when required.
func NormalizeCellRef(s string) (string, error) {
	ref, err := ParseCellRef(s)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA". Indices outside [0, MaxCol] are
// clamped to that range, mirroring NameToCol's "XFD" bound.
func ColToName(col int) string {
	if col < 0 {
		col = 0
	}
	if col > MaxCol {
		col = MaxCol
	}
	result := ""
	col++ // convert to 1-based for algorithm
	for col > 0 {
		col-- // adjust for 0-indexed letter
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26. Columns beyond "XFD" are rejected.
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
		if col-1 > MaxCol {
			return 0, fmt.Errorf("column out of range: %q", name)
		}
	}
	return col - 1, nil
}

// QuoteSheetName quotes a sheet name for use in a reference when it
// contains characters that require quoting, escaping apostrophes as ''.
func QuoteSheetName(name string) string {
	if !sheetNameNeedsQuoting(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// sheetNameNeedsQuoting reports whether a sheet name must be quoted in a
// reference: it is empty, starts with a digit, contains characters other
// than letters, digits, underscore and '.', or could be mistaken for a
// cell reference.
func sheetNameNeedsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if isDigit(name[0]) {
		return true
	}
	for i := 0; i < len(name); i++ {
		b := name[i]
		if isAlpha(b) || isDigit(b) || b == '_' || b == '.' {
			continue
		}
		return true
	}
	// "A1" as a sheet name is ambiguous with a cell reference.
	if looksLikeCellName(name) {
		return true
	}
	return false
}

// looksLikeCellName reports whether s matches ^[A-Za-z]{1,3}[0-9]+$.
func looksLikeCellName(s string) bool {
	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i < 1 || i > 3 || i == len(s) {
		return false
	}
	for j := i; j < len(s); j++ {
		if !isDigit(s[j]) {
			return false
		}
	}
	return true
}

package xlcomplete

import (
	"fmt"
	"strconv"
	"strings"
)

// RangeReason says which heuristic produced a RangeSuggestion.
type RangeReason int

const (
	ReasonEntireColumn RangeReason = iota
	ReasonContiguousAbove
	ReasonContiguousBelow
	ReasonContiguousFromStart
	ReasonTableAbove
	ReasonTableBelow
	ReasonTableFromStart
)

// String returns a short name for the RangeReason.
func (r RangeReason) String() string {
	switch r {
	case ReasonEntireColumn:
		return "entire-column"
	case ReasonContiguousAbove:
		return "contiguous-above"
	case ReasonContiguousBelow:
		return "contiguous-below"
	case ReasonContiguousFromStart:
		return "contiguous-from-start"
	case ReasonTableAbove:
		return "table-above"
	case ReasonTableBelow:
		return "table-below"
	case ReasonTableFromStart:
		return "table-from-start"
	default:
		return "unknown"
	}
}

// IsTable reports whether the reason is one of the 2-D table variants.
func (r RangeReason) IsTable() bool {
	switch r {
	case ReasonTableAbove, ReasonTableBelow, ReasonTableFromStart:
		return true
	}
	return false
}

// RangeSuggestion is one proposed A1 range with a confidence in [0,1].
type RangeSuggestion struct {
	Range      string
	Confidence float64
	Reason     RangeReason
}

// RangeOptions bounds the scans of SuggestRanges. Zero values select the
// defaults. SheetName is passed through to the accessor; it does not
// appear in the suggested text.
type RangeOptions struct {
	SheetName   string
	MaxScanRows int
	MaxScanCols int
}

const (
	defaultMaxScanRows = 1000
	defaultMaxScanCols = 30
)

// rangePrefix is the parsed form of the conservative A1 prefix subset the
// suggester accepts. Tokens are kept exactly as typed so suggestions can
// round-trip the user's $-anchoring and casing.
type rangePrefix struct {
	startColTok string // column token as typed, including '$' ("$a")
	startCol    int
	hasRow      bool
	startTok    string // full start cell token as typed ("A$1")
	startRow    int
	hasColon    bool
	endColTok   string // end column token as typed, "" if absent
}

// parseRangePrefix parses the accepted subset: a bare column ("A", "$A"),
// a cell ("A1", "A$1", "$A$1"), or a partial range ("A:", "A1:", "A1:A",
// "A:A") whose end column must be a case-insensitive prefix of the start
// column letters. Anything else is rejected.
func parseRangePrefix(s string) (rangePrefix, bool) {
	var p rangePrefix
	s = strings.TrimSpace(s)
	if s == "" {
		return p, true
	}

	startPart := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		p.hasColon = true
		startPart = s[:idx]
		endPart := s[idx+1:]
		if strings.ContainsAny(endPart, ":!") {
			return p, false
		}
		endLetters := strings.TrimPrefix(endPart, "$")
		for i := 0; i < len(endLetters); i++ {
			if !isAlpha(endLetters[i]) {
				return p, false
			}
		}
		p.endColTok = endPart
	}

	tok := startPart
	letters := tok
	hadAnchor := strings.HasPrefix(letters, "$")
	letters = strings.TrimPrefix(letters, "$")
	i := 0
	for i < len(letters) && isAlpha(letters[i]) {
		i++
	}
	if i == 0 || i > 3 {
		return p, false
	}
	colLetters := letters[:i]
	rest := letters[i:]

	col, err := NameToCol(colLetters)
	if err != nil {
		return p, false
	}
	p.startCol = col
	if hadAnchor {
		p.startColTok = "$" + colLetters
	} else {
		p.startColTok = colLetters
	}

	if rest != "" {
		rowPart := strings.TrimPrefix(rest, "$")
		if rowPart == "" {
			return p, false
		}
		n, err := strconv.Atoi(rowPart)
		if err != nil || n < 1 {
			return p, false
		}
		p.hasRow = true
		p.startRow = n - 1
		p.startTok = tok
	}

	// The end column, when typed, must be a case-insensitive prefix of
	// the start column's letters; otherwise we would be guessing a 2-D
	// shape the user did not ask for.
	if p.endColTok != "" {
		endLetters := strings.TrimPrefix(p.endColTok, "$")
		if !strings.HasPrefix(strings.ToUpper(colLetters), strings.ToUpper(endLetters)) {
			return p, false
		}
	}

	return p, true
}

// blockReason distinguishes how a contiguous block was anchored.
type blockReason int

const (
	blockAbove blockReason = iota
	blockBelow
	blockFromStart
)

// SuggestRanges proposes 1-D and 2-D A1 ranges for the partially-typed
// argument, by scanning the accessor for contiguous, table-shaped data
// around the anchor cell. It accepts only a conservative subset of A1
// prefixes and returns nil rather than guess at anything else. All scans
// are hard-bounded by the options' row/column caps.
func SuggestRanges(currentArg string, anchor CellRef, cells CellAccessor, opts RangeOptions) []RangeSuggestion {
	if cells == nil {
		return nil
	}
	if opts.MaxScanRows <= 0 {
		opts.MaxScanRows = defaultMaxScanRows
	}
	if opts.MaxScanCols <= 0 {
		opts.MaxScanCols = defaultMaxScanCols
	}
	if anchor.Row < 0 {
		anchor.Row = 0
	}
	if anchor.Col < 0 {
		anchor.Col = 0
	}

	p, ok := parseRangePrefix(currentArg)
	if !ok {
		return nil
	}
	// Empty argument defaults to the anchor's own column so the
	// suggestion stays a pure insertion.
	if p.startColTok == "" {
		p.startCol = anchor.Col
		p.startColTok = ColToName(anchor.Col)
	}

	s := &rangeScanner{
		cells:     cells,
		sheet:     opts.SheetName,
		rowBudget: opts.MaxScanRows,
		colBudget: opts.MaxScanCols,
	}

	block, reason, found := s.findBlock(p, anchor)
	if !found {
		return []RangeSuggestion{{
			Range:      p.startColTok + ":" + endColToken(p, p.startColTok),
			Confidence: 0.3,
			Reason:     ReasonEntireColumn,
		}}
	}

	block = s.trimHeaderFooter(p.startCol, block)

	var out []RangeSuggestion
	out = append(out, RangeSuggestion{
		Range:      renderRange(p, block),
		Confidence: singleColumnConfidence(reason, block),
		Reason:     singleColumnReason(reason),
	})

	if table, okT := s.expandTable(p.startCol, block); okT {
		out = append(out, RangeSuggestion{
			Range:      renderTableRange(p, block, table),
			Confidence: s.tableConfidence(p.startCol, table, block),
			Reason:     tableReason(reason),
		})
	}

	// Highest confidence first; ties keep heuristic order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Confidence > out[j-1].Confidence; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// rowBlock is a discovered contiguous run of rows [start, end] inclusive.
type rowBlock struct {
	start int
	end   int
}

func (b rowBlock) rows() int { return b.end - b.start + 1 }

// rangeScanner carries the accessor and the remaining scan budgets. Every
// cell visit decrements rowBudget so the per-keystroke cost stays
// proportional to the caps, not the sheet size.
type rangeScanner struct {
	cells     CellAccessor
	sheet     string
	rowBudget int
	colBudget int
}

func (s *rangeScanner) value(row, col int) any {
	if row < 0 || col < 0 || col > MaxCol {
		return nil
	}
	return s.cells.CellValue(row, col, s.sheet)
}

// spend consumes one row of scan budget; it returns false once the budget
// is exhausted.
func (s *rangeScanner) spend() bool {
	if s.rowBudget <= 0 {
		return false
	}
	s.rowBudget--
	return true
}

// findBlock locates the contiguous block the typed prefix most plausibly
// refers to. With an explicit start row it scans downward from that row;
// otherwise it scans upward from the anchor, falling back to a downward
// scan below the anchor when nothing is found above.
func (s *rangeScanner) findBlock(p rangePrefix, anchor CellRef) (rowBlock, blockReason, bool) {
	col := p.startCol

	if p.hasRow {
		end, ok := s.scanDownWhileOccupied(col, p.startRow)
		if !ok {
			return rowBlock{}, 0, false
		}
		return rowBlock{start: p.startRow, end: end}, blockFromStart, true
	}

	// Upward scan. When the anchor sits in a different column, its own
	// row may hold data in the target column, so include it.
	from := anchor.Row - 1
	crossColumn := anchor.Col != col
	if crossColumn {
		from = anchor.Row
	}
	if block, ok := s.scanUpForBlock(col, from); ok {
		if crossColumn {
			// The formula sits beside the data, not below it: the block
			// may continue past the anchor row.
			if end, okDown := s.scanDownWhileOccupied(col, block.end); okDown {
				block.end = end
			}
		}
		return block, blockAbove, true
	}

	// Nothing above: scan downward from the cell itself.
	firstRow, ok := s.findFirstOccupiedDown(col, anchor.Row)
	if !ok {
		return rowBlock{}, 0, false
	}
	end, ok := s.scanDownWhileOccupied(col, firstRow)
	if !ok {
		return rowBlock{}, 0, false
	}
	return rowBlock{start: firstRow, end: end}, blockBelow, true
}

// scanUpForBlock scans upward from the given row for an occupied run and
// returns it. A single empty cell immediately above an occupied run does
// not stop the search; a run of two or more empty cells does.
func (s *rangeScanner) scanUpForBlock(col, from int) (rowBlock, bool) {
	r := from
	// Find the bottom of the block.
	for r >= 0 {
		if !s.spend() {
			return rowBlock{}, false
		}
		if !cellIsEmpty(s.value(r, col)) {
			break
		}
		r--
	}
	if r < 0 {
		return rowBlock{}, false
	}

	block := rowBlock{start: r, end: r}
	blanks := 0
	for r--; r >= 0; r-- {
		if !s.spend() {
			break
		}
		if cellIsEmpty(s.value(r, col)) {
			blanks++
			if blanks > 1 {
				break
			}
			continue
		}
		blanks = 0
		block.start = r
	}
	return block, true
}

// scanDownWhileOccupied extends an occupied run downward from start,
// with the same skip-one-blank semantics as the upward scan. The given
// start row must itself be occupied.
func (s *rangeScanner) scanDownWhileOccupied(col, start int) (int, bool) {
	if cellIsEmpty(s.value(start, col)) {
		return 0, false
	}
	end := start
	blanks := 0
	for r := start + 1; ; r++ {
		if !s.spend() {
			break
		}
		if cellIsEmpty(s.value(r, col)) {
			blanks++
			if blanks > 1 {
				break
			}
			continue
		}
		blanks = 0
		end = r
	}
	return end, true
}

// findFirstOccupiedDown returns the first occupied row at or below start.
func (s *rangeScanner) findFirstOccupiedDown(col, start int) (int, bool) {
	for r := start; ; r++ {
		if !s.spend() {
			return 0, false
		}
		if !cellIsEmpty(s.value(r, col)) {
			return r, true
		}
	}
}

// trimHeaderFooter trims non-numeric edge cells from a block that is
// otherwise numeric: when the block holds at least two cells and all but
// at most two of its non-empty cells parse as numbers, text header and
// footer rows are treated as outside the data range.
func (s *rangeScanner) trimHeaderFooter(col int, block rowBlock) rowBlock {
	if block.rows() < 2 {
		return block
	}
	nonEmpty, numeric := 0, 0
	for r := block.start; r <= block.end; r++ {
		v := s.value(r, col)
		if cellIsEmpty(v) {
			continue
		}
		nonEmpty++
		if _, ok := cellNumber(v); ok {
			numeric++
		}
	}
	if nonEmpty < 2 || numeric < nonEmpty-2 {
		return block
	}

	trimmed := block
	for trimmed.start < trimmed.end {
		v := s.value(trimmed.start, col)
		if _, ok := cellNumber(v); ok || cellIsEmpty(v) {
			break
		}
		trimmed.start++
	}
	for trimmed.end > trimmed.start {
		v := s.value(trimmed.end, col)
		if _, ok := cellNumber(v); ok || cellIsEmpty(v) {
			break
		}
		trimmed.end--
	}
	return trimmed
}

// expandTable grows the block rightward into a 2-D table: adjacent
// columns are included while their non-empty coverage over the row span
// is at least 60%, stopping at the first fully-empty column (a gap) or at
// the column budget. Returns the last included column and whether the
// table is wider than the starting column.
func (s *rangeScanner) expandTable(startCol int, block rowBlock) (int, bool) {
	lastCol := startCol
	for c := startCol + 1; c-startCol < s.colBudget && c <= MaxCol; c++ {
		occupied := 0
		for r := block.start; r <= block.end; r++ {
			if !cellIsEmpty(s.value(r, c)) {
				occupied++
			}
		}
		if occupied == 0 {
			break
		}
		if float64(occupied)/float64(block.rows()) < 0.6 {
			break
		}
		lastCol = c
	}
	return lastCol, lastCol > startCol
}

// tableConfidence scores a 2-D table candidate: a base score plus capped
// additive bonuses for width, header density (populated first row),
// length, and numeric density computed without the putative header row.
func (s *rangeScanner) tableConfidence(startCol, endCol int, block rowBlock) float64 {
	width := endCol - startCol + 1
	rows := block.rows()

	conf := 0.5

	widthBonus := 0.05 * float64(width-1)
	if widthBonus > 0.15 {
		widthBonus = 0.15
	}
	conf += widthBonus

	headerCols := 0
	for c := startCol; c <= endCol; c++ {
		if !cellIsEmpty(s.value(block.start, c)) {
			headerCols++
		}
	}
	conf += 0.1 * float64(headerCols) / float64(width)

	lengthBonus := 0.01 * float64(rows)
	if lengthBonus > 0.1 {
		lengthBonus = 0.1
	}
	conf += lengthBonus

	// Numeric density, excluding the putative header row.
	bodyStart := block.start
	if rows > 1 {
		bodyStart++
	}
	total, numeric := 0, 0
	for r := bodyStart; r <= block.end; r++ {
		for c := startCol; c <= endCol; c++ {
			v := s.value(r, c)
			if cellIsEmpty(v) {
				continue
			}
			total++
			if _, ok := cellNumber(v); ok {
				numeric++
			}
		}
	}
	if total > 0 {
		conf += 0.15 * float64(numeric) / float64(total)
	}

	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}

func singleColumnReason(r blockReason) RangeReason {
	switch r {
	case blockBelow:
		return ReasonContiguousBelow
	case blockFromStart:
		return ReasonContiguousFromStart
	default:
		return ReasonContiguousAbove
	}
}

func tableReason(r blockReason) RangeReason {
	switch r {
	case blockBelow:
		return ReasonTableBelow
	case blockFromStart:
		return ReasonTableFromStart
	default:
		return ReasonTableAbove
	}
}

func singleColumnConfidence(r blockReason, block rowBlock) float64 {
	base := 0.7
	switch r {
	case blockAbove:
		base = 0.8
	case blockFromStart:
		base = 0.75
	case blockBelow:
		base = 0.7
	}
	bonus := 0.01 * float64(block.rows())
	if bonus > 0.1 {
		bonus = 0.1
	}
	return base + bonus
}

// endColToken picks the end column token for a 1-D range, preferring the
// token the user actually typed after the colon.
func endColToken(p rangePrefix, fallback string) string {
	if p.endColTok != "" {
		return p.endColTok
	}
	return fallback
}

// renderRange renders a single-column block, round-tripping the user's
// typed tokens. With an explicit start row the typed start token is kept
// verbatim.
func renderRange(p rangePrefix, block rowBlock) string {
	end := endColToken(p, p.startColTok)
	if p.hasRow {
		return fmt.Sprintf("%s:%s%d", p.startTok, end, block.end+1)
	}
	return fmt.Sprintf("%s%d:%s%d", p.startColTok, block.start+1, end, block.end+1)
}

// renderTableRange renders the 2-D table variant. The computed end column
// inherits the start token's anchoring since the user never typed it.
func renderTableRange(p rangePrefix, block rowBlock, endCol int) string {
	endTok := ColToName(endCol)
	if strings.HasPrefix(p.startColTok, "$") {
		endTok = "$" + endTok
	}
	if p.hasRow {
		return fmt.Sprintf("%s:%s%d", p.startTok, endTok, block.end+1)
	}
	return fmt.Sprintf("%s%d:%s%d", p.startColTok, block.start+1, endTok, block.end+1)
}

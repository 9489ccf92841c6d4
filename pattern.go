package xlcomplete

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// PatternSuggestion is one proposed literal value for a non-formula cell.
type PatternSuggestion struct {
	Text       string
	Confidence float64
}

const (
	// patternScanSpan bounds how far the nearby-cell scan walks in each
	// direction along the anchor's row and column.
	patternScanSpan = 25

	// sequenceWindow is how many numeric cells above the anchor feed the
	// arithmetic-sequence extrapolation.
	sequenceWindow = 3

	// sequenceScore is the base score of an extrapolated next value.
	sequenceScore = 0.6

	maxPatternSuggestions = 5
)

// SuggestPatternValues proposes values for non-formula input from two
// signals: nearby cells whose text starts with the typed prefix, weighted
// by 1/distance, and an arithmetic-sequence extrapolation of the cells
// directly above the anchor. Scores for the same candidate string sum.
func SuggestPatternValues(input string, cursor int, anchor CellRef, cells CellAccessor) []PatternSuggestion {
	if cells == nil {
		return nil
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(input) {
		cursor = len(input)
	}
	prefix := input[:cursor]

	scores := make(map[string]float64)

	if strings.TrimSpace(prefix) != "" {
		scanNearbyMatches(prefix, anchor, cells, scores)
	}

	if next, ok := extrapolateSequence(anchor, cells); ok {
		// The extrapolated value must extend what was already typed.
		if strings.HasPrefix(next, prefix) && next != prefix {
			scores[next] += sequenceScore
		}
	}

	if len(scores) == 0 {
		return nil
	}

	out := make([]PatternSuggestion, 0, len(scores))
	for text, score := range scores {
		out = append(out, PatternSuggestion{Text: text, Confidence: clamp01(score)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		if len(out[i].Text) != len(out[j].Text) {
			return len(out[i].Text) < len(out[j].Text)
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > maxPatternSuggestions {
		out = out[:maxPatternSuggestions]
	}
	return out
}

// scanNearbyMatches walks outward from the anchor along its row and
// column, scoring cells whose text starts with the typed prefix
// (case-insensitive) by 1/distance.
func scanNearbyMatches(prefix string, anchor CellRef, cells CellAccessor, scores map[string]float64) {
	lower := strings.ToLower(prefix)

	consider := func(row, col, distance int) {
		if row < 0 || col < 0 || (row == anchor.Row && col == anchor.Col) {
			return
		}
		text := cellString(cells.CellValue(row, col, anchor.Sheet))
		if text == "" || strings.EqualFold(text, prefix) {
			return
		}
		if !strings.HasPrefix(strings.ToLower(text), lower) {
			return
		}
		scores[text] += 1.0 / float64(distance)
	}

	for d := 1; d <= patternScanSpan; d++ {
		consider(anchor.Row-d, anchor.Col, d)
		consider(anchor.Row+d, anchor.Col, d)
		consider(anchor.Row, anchor.Col-d, d)
		consider(anchor.Row, anchor.Col+d, d)
	}
}

// extrapolateSequence reads up to sequenceWindow numeric cells directly
// above the anchor; when at least two are found and their consecutive
// differences agree within floating tolerance, it proposes last + step.
func extrapolateSequence(anchor CellRef, cells CellAccessor) (string, bool) {
	// vals[0] is the nearest cell above the anchor.
	var vals []float64
	for d := 1; d <= sequenceWindow; d++ {
		row := anchor.Row - d
		if row < 0 {
			break
		}
		n, ok := cellNumber(cells.CellValue(row, anchor.Col, anchor.Sheet))
		if !ok {
			break
		}
		vals = append(vals, n)
	}
	if len(vals) < 2 {
		return "", false
	}

	step := vals[0] - vals[1]
	for i := 1; i < len(vals)-1; i++ {
		if !floatsClose(vals[i]-vals[i+1], step) {
			return "", false
		}
	}

	next := vals[0] + step
	return strconv.FormatFloat(next, 'f', -1, 64), true
}

func floatsClose(a, b float64) bool {
	const tol = 1e-9
	diff := math.Abs(a - b)
	if diff <= tol {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tol*scale
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

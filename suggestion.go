package xlcomplete

import "sort"

// SuggestionType classifies a completion suggestion. The ranking order
// among equal confidences is range > formula > function_arg > value.
type SuggestionType int

const (
	SuggestionValue SuggestionType = iota
	SuggestionFunctionArg
	SuggestionFormula
	SuggestionRange
)

// String returns the wire name of the SuggestionType.
func (t SuggestionType) String() string {
	switch t {
	case SuggestionRange:
		return "range"
	case SuggestionFormula:
		return "formula"
	case SuggestionFunctionArg:
		return "function_arg"
	case SuggestionValue:
		return "value"
	default:
		return "unknown"
	}
}

// Suggestion is one completion candidate. Text is always a complete
// replacement of the full input, so callers can diff it against the
// original to find the insertion. Suggestions are never mutated after
// ranking; previews are attached to copies.
type Suggestion struct {
	Text        string
	DisplayText string
	Type        SuggestionType
	Confidence  float64
	Preview     any
}

// rankSuggestions orders candidates by confidence descending, then type
// priority, then display text, and deduplicates by Text keeping the
// highest-confidence variant. The order is deterministic for identical
// inputs.
func rankSuggestions(in []Suggestion) []Suggestion {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Confidence != in[j].Confidence {
			return in[i].Confidence > in[j].Confidence
		}
		if in[i].Type != in[j].Type {
			return in[i].Type > in[j].Type
		}
		return in[i].DisplayText < in[j].DisplayText
	})

	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s.Text == "" || seen[s.Text] {
			continue
		}
		seen[s.Text] = true
		out = append(out, s)
	}
	return out
}

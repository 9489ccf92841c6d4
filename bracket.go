package xlcomplete

// bracketCheckpoint records a tentatively-escaped "]]" so the scan can be
// resumed with the first ']' reinterpreted as a real closing bracket.
type bracketCheckpoint struct {
	index int
	depth int
}

// MatchBracket resolves one bracketed structured-reference or
// external-workbook segment starting at src[start] == '['. It returns the
// exclusive end index of the segment and true, or false if the segment
// cannot be closed before limit.
//
// The "]]" sequence is ambiguous: it is either an escaped literal ']' or
// two closing brackets ("[[Col]]"). The scan greedily assumes the escape,
// pushing a checkpoint, and backtracks to reinterpret the first ']' as a
// real close if the segment later fails to close.
//
// A '[' only opens a nested item specifier where the structured-reference
// grammar allows one: immediately after '[' or after an item separator
// (','). Anywhere else, '[' is literal text ("[Name.xlsx]Sheet1").
func MatchBracket(src string, start, limit int) (int, bool) {
	if limit > len(src) {
		limit = len(src)
	}
	if start < 0 || start >= limit || src[start] != '[' {
		return 0, false
	}

	var checkpoints []bracketCheckpoint
	depth := 1
	i := start + 1

	for {
		for i < limit {
			switch src[i] {
			case '[':
				if nestedSpecifierPosition(src, start, i) {
					depth++
				}
				i++
			case ']':
				if i+1 < limit && src[i+1] == ']' && depth > 0 {
					// Tentatively an escaped literal ']'.
					checkpoints = append(checkpoints, bracketCheckpoint{index: i, depth: depth})
					i += 2
					continue
				}
				depth--
				if depth <= 0 {
					return i + 1, true
				}
				i++
			default:
				i++
			}
		}

		// Ran past the limit without closing: reinterpret the most recent
		// "]]" escape as a real closing bracket and resume after it.
		if len(checkpoints) == 0 {
			return 0, false
		}
		cp := checkpoints[len(checkpoints)-1]
		checkpoints = checkpoints[:len(checkpoints)-1]
		depth = cp.depth - 1
		if depth <= 0 {
			return cp.index + 1, true
		}
		i = cp.index + 1
	}
}

// nestedSpecifierPosition reports whether the '[' at index i (with the
// segment opener at start) sits where a nested item specifier may begin:
// directly after the opening '[' or after a ',' separator, ignoring
// intervening spaces.
func nestedSpecifierPosition(src string, start, i int) bool {
	j := i - 1
	for j > start && src[j] == ' ' {
		j--
	}
	return src[j] == '[' || src[j] == ','
}

package xlcomplete

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span marks a half-open substring [Start, End) of the original input.
type Span struct {
	Start int
	End   int
	Text  string
}

// FormulaContext describes where the cursor sits within a partial,
// possibly malformed formula prefix. It is recomputed per keystroke and
// never persisted.
type FormulaContext struct {
	IsFormula      bool
	InFunctionCall bool

	// FunctionName is the upper-cased name of the active call. A "_xlfn."
	// prefix is preserved here; registry lookups strip it.
	FunctionName string

	// ArgIndex is the 0-based index of the argument under the cursor.
	// Only meaningful when InFunctionCall; -1 otherwise.
	ArgIndex int

	// CurrentArg spans from just after the last argument separator (or the
	// opening paren) to the cursor, with leading whitespace trimmed.
	CurrentArg *Span

	// ExpectsRange is set when the registry says the current argument
	// position expects a range.
	ExpectsRange bool

	// FunctionNamePrefix is the identifier ending at the cursor when the
	// cursor is not inside any call, suitable for name completion.
	FunctionNamePrefix *Span
}

// openParen records one currently-open '(' and the identifier captured
// immediately before it ("" for a grouping paren).
type openParen struct {
	index    int
	funcName string
}

// ParsePartialFormula determines the completion context for the prefix
// input[:cursor]. It returns a well-formed context for every input and
// cursor; the cursor is clamped to [0, len(input)] and the function never
// panics, whatever the byte sequence.
func ParsePartialFormula(input string, cursor int, registry *Registry) FormulaContext {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(input) {
		cursor = len(input)
	}
	ctx := FormulaContext{ArgIndex: -1}

	if cursor == 0 || input[0] != '=' {
		return ctx
	}
	ctx.IsFormula = true
	src := input[:cursor]

	var (
		inString     bool
		inSheetQuote bool
		braceDepth   int
		parens       []openParen
		pendStart    = -1 // pending identifier window
		pendEnd      = -1
	)
	resetPending := func() { pendStart, pendEnd = -1, -1 }

	i := 1
	for i < cursor {
		c := src[i]

		if inString {
			if c == '"' {
				if i+1 < cursor && src[i+1] == '"' {
					i += 2
					continue
				}
				inString = false
			}
			i++
			continue
		}
		if inSheetQuote {
			if c == '\'' {
				if i+1 < cursor && src[i+1] == '\'' {
					i += 2
					continue
				}
				inSheetQuote = false
			}
			i++
			continue
		}

		switch c {
		case '"':
			inString = true
			resetPending()
			i++
		case '\'':
			inSheetQuote = true
			resetPending()
			i++
		case '{':
			braceDepth++
			resetPending()
			i++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
			resetPending()
			i++
		case '[':
			end, ok := MatchBracket(src, i, cursor)
			if !ok {
				// Cursor sits inside an unterminated bracket segment; its
				// interior is not completable formula syntax.
				return ctx
			}
			resetPending()
			i = end
		case '(':
			name := ""
			if pendEnd == i && pendStart >= 0 {
				name = callableIdent(src[pendStart:i], registry)
			}
			parens = append(parens, openParen{index: i, funcName: name})
			resetPending()
			i++
		case ')':
			if len(parens) > 0 {
				parens = parens[:len(parens)-1]
			}
			resetPending()
			i++
		default:
			r, size := utf8.DecodeRuneInString(src[i:])
			if isIdentRune(r) {
				if pendEnd != i {
					pendStart = i
				}
				i += size
				pendEnd = i
				continue
			}
			resetPending()
			i += size
		}
	}

	// The interiors of strings and quoted sheet names are never
	// completable formula syntax.
	if inString || inSheetQuote {
		return ctx
	}

	// Active call: the innermost open paren that captured an identifier.
	// A plain grouping paren never shadows an enclosing function call.
	for p := len(parens) - 1; p >= 0; p-- {
		if parens[p].funcName == "" {
			continue
		}
		call := parens[p]
		ctx.InFunctionCall = true
		ctx.FunctionName = strings.ToUpper(call.funcName)
		argIndex, argStart := argContext(src, call.index, cursor)
		ctx.ArgIndex = argIndex
		ctx.CurrentArg = &Span{Start: argStart, End: cursor, Text: input[argStart:cursor]}
		if registry != nil {
			ctx.ExpectsRange = registry.IsRangeArg(ctx.FunctionName, argIndex)
		}
		return ctx
	}

	// No call open: an identifier ending exactly at the cursor may be a
	// function-name prefix when it follows only '=', whitespace, or an
	// operator.
	if pendEnd == cursor && pendStart >= 0 && braceDepth == 0 {
		tok := src[pendStart:cursor]
		if prefixPosition(src, pendStart) && functionNamePrefixCandidate(tok, registry) {
			ctx.FunctionNamePrefix = &Span{Start: pendStart, End: cursor, Text: tok}
		}
	}
	return ctx
}

// callableIdent validates an identifier captured before '(' as a function
// name. Identifiers that look like bare cell references (LOG1, A1) are
// rejected unless the registry actually has such a function (LOG10), and
// a callable name must start with a letter or underscore.
func callableIdent(ident string, registry *Registry) string {
	if ident == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(ident)
	if !unicode.IsLetter(r) && r != '_' {
		return ""
	}
	if looksLikeCellName(ident) && (registry == nil || !registry.Has(ident)) {
		return ""
	}
	return ident
}

// functionNamePrefixCandidate filters tokens unsuitable for function-name
// completion: digits-only tokens and bare cell references without a
// matching function.
func functionNamePrefixCandidate(tok string, registry *Registry) bool {
	if tok == "" {
		return false
	}
	digitsOnly := true
	for j := 0; j < len(tok); j++ {
		if !isDigit(tok[j]) {
			digitsOnly = false
			break
		}
	}
	if digitsOnly {
		return false
	}
	if looksLikeCellName(tok) && (registry == nil || !registry.Has(tok)) {
		return false
	}
	return true
}

// prefixPosition reports whether the character before index start (after
// skipping whitespace) permits a function-name prefix there: '=' or an
// operator.
func prefixPosition(src string, start int) bool {
	j := start - 1
	for j > 0 && (src[j] == ' ' || src[j] == '\t') {
		j--
	}
	if j < 0 {
		return false
	}
	switch src[j] {
	case '=', '(', ',', ';', '{', '+', '-', '*', '/', '^', '@', '<', '>', '&':
		return true
	}
	return false
}

// argContext re-scans from the active call's open paren to the cursor and
// determines the 0-based argument index and the start of the current
// argument. Both ',' and ';' are counted at base depth; if any ';'
// occurred, semicolon is the delimiter for the whole call (decimal-comma
// locales), otherwise comma.
func argContext(src string, openIdx, cursor int) (argIndex, argStart int) {
	var (
		inString     bool
		inSheetQuote bool
		braceDepth   int
		parenDepth   int
		commas       []int
		semis        []int
	)

	i := openIdx + 1
	for i < cursor {
		c := src[i]
		if inString {
			if c == '"' {
				if i+1 < cursor && src[i+1] == '"' {
					i += 2
					continue
				}
				inString = false
			}
			i++
			continue
		}
		if inSheetQuote {
			if c == '\'' {
				if i+1 < cursor && src[i+1] == '\'' {
					i += 2
					continue
				}
				inSheetQuote = false
			}
			i++
			continue
		}
		switch c {
		case '"':
			inString = true
			i++
		case '\'':
			inSheetQuote = true
			i++
		case '{':
			braceDepth++
			i++
		case '}':
			if braceDepth > 0 {
				braceDepth--
			}
			i++
		case '[':
			end, ok := MatchBracket(src, i, cursor)
			if !ok {
				i = cursor
				break
			}
			i = end
		case '(':
			parenDepth++
			i++
		case ')':
			if parenDepth > 0 {
				parenDepth--
			}
			i++
		case ',':
			if parenDepth == 0 && braceDepth == 0 {
				commas = append(commas, i)
			}
			i++
		case ';':
			if parenDepth == 0 && braceDepth == 0 {
				semis = append(semis, i)
			}
			i++
		default:
			i++
		}
	}

	seps := commas
	if len(semis) > 0 {
		seps = semis
	}
	argIndex = len(seps)
	argStart = openIdx + 1
	if len(seps) > 0 {
		argStart = seps[len(seps)-1] + 1
	}
	for argStart < cursor && (src[argStart] == ' ' || src[argStart] == '\t') {
		argStart++
	}
	return argIndex, argStart
}

// isIdentRune reports whether r can be part of a formula identifier:
// ASCII alphanumerics, '.', '_', and (best effort, for localized function
// names) any Unicode letter or digit.
func isIdentRune(r rune) bool {
	if r == '.' || r == '_' {
		return true
	}
	if r < utf8.RuneSelf {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

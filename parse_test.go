package xlcomplete

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartialFormula_NotAFormula(t *testing.T) {
	r := NewDefaultRegistry()

	fc := ParsePartialFormula("hello", 5, r)
	assert.False(t, fc.IsFormula)

	fc = ParsePartialFormula("", 0, r)
	assert.False(t, fc.IsFormula)
	assert.Equal(t, -1, fc.ArgIndex)
}

func TestParsePartialFormula_FunctionNamePrefix(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=SU", 3, r)
	require.True(t, fc.IsFormula)
	assert.False(t, fc.InFunctionCall)
	require.NotNil(t, fc.FunctionNamePrefix)
	assert.Equal(t, "SU", fc.FunctionNamePrefix.Text)
	assert.Equal(t, 1, fc.FunctionNamePrefix.Start)
}

func TestParsePartialFormula_PrefixAfterOperator(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=A1+VLO", 7, r)
	require.NotNil(t, fc.FunctionNamePrefix)
	assert.Equal(t, "VLO", fc.FunctionNamePrefix.Text)
}

func TestParsePartialFormula_CellRefIsNotAPrefix(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=A1", 3, r)
	require.True(t, fc.IsFormula)
	// "A1" looks like a cell reference and no such function exists.
	assert.Nil(t, fc.FunctionNamePrefix)
}

func TestParsePartialFormula_InsideCall(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=SUM(A1", 7, r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "SUM", fc.FunctionName)
	assert.Equal(t, 0, fc.ArgIndex)
	require.NotNil(t, fc.CurrentArg)
	assert.Equal(t, "A1", fc.CurrentArg.Text)
	assert.True(t, fc.ExpectsRange) // SUM's first arg is a range
}

func TestParsePartialFormula_SecondArgument(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=VLOOKUP(A1, B", 14, r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "VLOOKUP", fc.FunctionName)
	assert.Equal(t, 1, fc.ArgIndex)
	require.NotNil(t, fc.CurrentArg)
	assert.Equal(t, "B", fc.CurrentArg.Text)
	assert.True(t, fc.ExpectsRange) // table_array
}

func TestParsePartialFormula_SemicolonWinsOverComma(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=VLOOKUP(1,2; A"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	// With a ';' present, semicolon is the delimiter; the lone ';'
	// means the cursor is on argument 1.
	assert.Equal(t, 1, fc.ArgIndex)
	require.NotNil(t, fc.CurrentArg)
	assert.Equal(t, "A", fc.CurrentArg.Text)
}

func TestParsePartialFormula_NestedCallWins(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=IF(SUM(A1:A5)>10, MATCH(B1, C"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "MATCH", fc.FunctionName)
	assert.Equal(t, 1, fc.ArgIndex)
	assert.Equal(t, "C", fc.CurrentArg.Text)
}

func TestParsePartialFormula_GroupingParenDoesNotShadow(t *testing.T) {
	r := NewDefaultRegistry()
	// The innermost paren is a bare grouping paren; the active call is
	// still SUM.
	input := "=SUM((A1+B1"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "SUM", fc.FunctionName)
	assert.Equal(t, 0, fc.ArgIndex)
}

func TestParsePartialFormula_ClosedCallIsInactive(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=SUM(A1:A5)"
	fc := ParsePartialFormula(input, len(input), r)
	assert.False(t, fc.InFunctionCall)
	assert.Nil(t, fc.FunctionNamePrefix)
}

func TestParsePartialFormula_InsideStringLiteral(t *testing.T) {
	r := NewDefaultRegistry()
	input := `=IF(A1="pen`
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.IsFormula)
	// The cursor is inside a string: nothing is completable.
	assert.False(t, fc.InFunctionCall)
	assert.Nil(t, fc.FunctionNamePrefix)
}

func TestParsePartialFormula_SeparatorInsideStringIgnored(t *testing.T) {
	r := NewDefaultRegistry()
	input := `=TEXTJOIN(", ", TRUE, A`
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "TEXTJOIN", fc.FunctionName)
	assert.Equal(t, 2, fc.ArgIndex)
	assert.Equal(t, "A", fc.CurrentArg.Text)
}

func TestParsePartialFormula_UnterminatedBracket(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=SUM(Table1[[A],B"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.IsFormula)
	// The bracket segment cannot close: its interior is not formula
	// syntax, so no call context is reported.
	assert.False(t, fc.InFunctionCall)
}

func TestParsePartialFormula_StructuredReferenceArgument(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=SUM(Table1[Amount], B"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "SUM", fc.FunctionName)
	assert.Equal(t, 1, fc.ArgIndex)
	assert.Equal(t, "B", fc.CurrentArg.Text)
}

func TestParsePartialFormula_XlfnName(t *testing.T) {
	r := NewDefaultRegistry()
	input := "=_xlfn.XLOOKUP(A1, B"
	fc := ParsePartialFormula(input, len(input), r)
	require.True(t, fc.InFunctionCall)
	assert.Equal(t, "_XLFN.XLOOKUP", fc.FunctionName)
	assert.Equal(t, 1, fc.ArgIndex)
	assert.True(t, fc.ExpectsRange) // lookup_array via the xlfn alias
}

func TestParsePartialFormula_CursorClamped(t *testing.T) {
	r := NewDefaultRegistry()
	fc := ParsePartialFormula("=SUM(", 99, r)
	assert.True(t, fc.InFunctionCall)

	fc = ParsePartialFormula("=SUM(", -5, r)
	assert.False(t, fc.IsFormula)
}

func TestParsePartialFormula_ArgSpanRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []string{
		"=SUM(A1:A5, B",
		"=VLOOKUP(1,2; A",
		"=IF(SUM(A1)>2, MATCH(B1, C",
		"=SUMIFS(A:A, B:B, \">2\", C",
	}
	for _, input := range inputs {
		fc := ParsePartialFormula(input, len(input), r)
		require.True(t, fc.InFunctionCall, "input %q", input)
		require.NotNil(t, fc.CurrentArg, "input %q", input)
		arg := fc.CurrentArg
		assert.Equal(t, len(input), arg.End, "input %q", input)
		assert.Equal(t, input[arg.Start:arg.End], arg.Text, "input %q", input)
	}
}

// TestParsePartialFormula_NeverPanics throws seeded random byte soup at
// the parser at several cursor positions. The parser must return a
// well-formed context for every one of them.
func TestParsePartialFormula_NeverPanics(t *testing.T) {
	r := NewDefaultRegistry()
	rng := rand.New(rand.NewSource(42))

	alphabet := []byte(`=SUMIF(),;:'"[]{}$!A1bz+-*/^&<>. ` + "\t\xc3\xa9\xff")

	for i := 0; i < 1500; i++ {
		n := rng.Intn(40)
		buf := make([]byte, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		input := string(buf)

		cursors := []int{0, len(input), len(input) / 2, rng.Intn(len(input) + 1)}
		for _, cursor := range cursors {
			fc := ParsePartialFormula(input, cursor, r)
			if fc.CurrentArg != nil {
				arg := fc.CurrentArg
				require.GreaterOrEqual(t, arg.Start, 0)
				require.LessOrEqual(t, arg.End, len(input))
				require.Equal(t, input[arg.Start:arg.End], arg.Text)
			}
			if !fc.InFunctionCall {
				require.Equal(t, -1, fc.ArgIndex)
			}
		}
	}
}

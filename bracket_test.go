package xlcomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBracket_ExternalWorkbookSegment(t *testing.T) {
	src := "[A1[Name.xlsx]Sheet1!A1"
	end, ok := MatchBracket(src, 0, len(src))
	require.True(t, ok)
	// Ends right after the ']' preceding "Sheet1".
	assert.Equal(t, "[A1[Name.xlsx]", src[:end])
}

func TestMatchBracket_DoubledBracketEscape(t *testing.T) {
	src := "[Book[Name[Part[More]]Name.xlsx]Sheet1!A1"
	end, ok := MatchBracket(src, 0, len(src))
	require.True(t, ok)
	// The "]]" is a literal ']'; the segment still closes before "Sheet1".
	assert.Equal(t, "[Book[Name[Part[More]]Name.xlsx]", src[:end])
}

func TestMatchBracket_Unclosable(t *testing.T) {
	src := "[[A],B"
	_, ok := MatchBracket(src, 0, len(src))
	assert.False(t, ok)
}

func TestMatchBracket_SimpleColumn(t *testing.T) {
	src := "[Amount]*2"
	end, ok := MatchBracket(src, 0, len(src))
	require.True(t, ok)
	assert.Equal(t, "[Amount]", src[:end])
}

func TestMatchBracket_NestedSpecifiers(t *testing.T) {
	src := "[[#Headers],[Amount]] rest"
	end, ok := MatchBracket(src, 0, len(src))
	require.True(t, ok)
	assert.Equal(t, "[[#Headers],[Amount]]", src[:end])
}

func TestMatchBracket_BacktracksEscapeAtEndOfInput(t *testing.T) {
	// Without backtracking the trailing "]]" would be consumed as an
	// escape and the segment would never close.
	src := "[Col]]"
	end, ok := MatchBracket(src, 0, len(src))
	require.True(t, ok)
	assert.Equal(t, "[Col]", src[:end])
}

func TestMatchBracket_BadStart(t *testing.T) {
	_, ok := MatchBracket("A[B]", 0, 4)
	assert.False(t, ok)

	_, ok = MatchBracket("[A]", 5, 3)
	assert.False(t, ok)
}

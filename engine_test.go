package xlcomplete

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingClient is a CompletionClient that records how often it was
// called and returns a fixed completion.
type countingClient struct {
	calls  atomic.Int64
	result string
	err    error
	delay  time.Duration
}

func (c *countingClient) CompleteTabCompletion(ctx context.Context, req CompletionRequest) (string, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.result, c.err
}

func tenNumericRows() *MapAccessor {
	m := NewMapAccessor()
	m.SetColumn(0, 0, "", 1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0)
	return m
}

func TestEngine_EndToEndSumRange(t *testing.T) {
	e := NewEngine()
	cc := CompletionContext{
		Input:  "=SUM(",
		Cursor: 5,
		Cell:   NewCellRef("", 10, 0), // A11, below ten numeric rows
		Cells:  tenNumericRows(),
	}

	out := e.GetSuggestions(context.Background(), cc)
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(A1:A10)", out[0].Text) // auto-closed paren
	assert.Equal(t, SuggestionRange, out[0].Type)
}

func TestEngine_ZeroStateStarters(t *testing.T) {
	e := NewEngine()
	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=", Cursor: 1})

	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(", out[0].Text)
	assert.Equal(t, "=IF(", out[1].Text)
	for _, s := range out {
		assert.Equal(t, SuggestionFormula, s.Type)
	}
}

func TestEngine_FunctionNameCompletion(t *testing.T) {
	e := NewEngine()
	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=VLOO", Cursor: 5})

	require.NotEmpty(t, out)
	assert.Equal(t, "=VLOOKUP(", out[0].Text)
	assert.Contains(t, out[0].DisplayText, "lookup_value")
}

func TestEngine_ArgumentHints(t *testing.T) {
	e := NewEngine()
	input := "=VLOOKUP(A1, B1:C9, 2, "
	out := e.GetSuggestions(context.Background(), CompletionContext{Input: input, Cursor: len(input)})

	require.NotEmpty(t, out)
	assert.Equal(t, "=VLOOKUP(A1, B1:C9, 2, FALSE)", out[0].Text)
	assert.Equal(t, SuggestionFunctionArg, out[0].Type)
	assert.Contains(t, out[0].DisplayText, "exact match")
}

func TestEngine_CacheHitSkipsBackend(t *testing.T) {
	client := &countingClient{result: "SUM(A1:A10)"}
	e := NewEngine(WithClient(client))
	cc := CompletionContext{
		Input:  "=SU",
		Cursor: 3,
		Cell:   NewCellRef("", 10, 0),
		Cells:  tenNumericRows(),
	}

	first := e.GetSuggestions(context.Background(), cc)
	require.Equal(t, int64(1), client.calls.Load())

	second := e.GetSuggestions(context.Background(), cc)
	assert.Equal(t, int64(1), client.calls.Load(), "cache hit must not re-invoke the backend")
	assert.Equal(t, first, second)
}

func TestEngine_CacheKeyComponents(t *testing.T) {
	client := &countingClient{result: "X"}
	cells := tenNumericRows()
	e := NewEngine(WithClient(client))

	base := CompletionContext{Input: "=SU", Cursor: 3, Cell: NewCellRef("", 10, 0), Cells: cells}
	e.GetSuggestions(context.Background(), base)
	require.Equal(t, int64(1), client.calls.Load())

	// Different cursor.
	changed := base
	changed.Cursor = 2
	e.GetSuggestions(context.Background(), changed)
	assert.Equal(t, int64(2), client.calls.Load())

	// Different cell.
	changed = base
	changed.Cell = NewCellRef("", 11, 0)
	e.GetSuggestions(context.Background(), changed)
	assert.Equal(t, int64(3), client.calls.Load())

	// Different surrounding data (the accessor's key changes on write).
	cells.SetCell(50, 5, "", "x")
	e.GetSuggestions(context.Background(), base)
	assert.Equal(t, int64(4), client.calls.Load())
}

func TestEngine_BuildCacheKeyStable(t *testing.T) {
	e := NewEngine()
	cc := CompletionContext{Input: "=A", Cursor: 2, Cell: NewCellRef("S", 1, 1)}
	assert.Equal(t, e.BuildCacheKey(cc), e.BuildCacheKey(cc))

	other := cc
	other.Input = "=B"
	assert.NotEqual(t, e.BuildCacheKey(cc), e.BuildCacheKey(other))
}

func TestEngine_BackendWinsOverStarters(t *testing.T) {
	client := &countingClient{result: "=SUM(B2:B9)"}
	e := NewEngine(WithClient(client))

	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=", Cursor: 1})
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(B2:B9)", out[0].Text)
}

func TestEngine_BackendErrorDegrades(t *testing.T) {
	client := &countingClient{err: errors.New("boom")}
	e := NewEngine(WithClient(client))

	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=", Cursor: 1})
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(", out[0].Text) // starters still served
}

func TestEngine_BackendTimeBoxed(t *testing.T) {
	client := &countingClient{result: "=SUM(A:A)", delay: 500 * time.Millisecond}
	e := NewEngine(WithClient(client), WithBackendBudget(5*time.Millisecond))

	start := time.Now()
	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=", Cursor: 1})
	assert.Less(t, time.Since(start), 300*time.Millisecond)

	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(", out[0].Text) // the slow backend contributed nothing
}

func TestEngine_BackendInsertionText(t *testing.T) {
	// A bare string is inserted at the cursor, not treated as a formula.
	client := &countingClient{result: "A1:A10)"}
	e := NewEngine(WithClient(client))

	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=SUM(", Cursor: 5})
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(A1:A10)", out[0].Text)
	assert.InDelta(t, backendConfidence, out[0].Confidence, 1e-9)
}

func TestEngine_CancelledRequestDoesNotCache(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cc := CompletionContext{Input: "=SU", Cursor: 3}
	_ = e.GetSuggestions(ctx, cc)

	_, ok := e.cache.Get(e.BuildCacheKey(cc))
	assert.False(t, ok, "a superseded request must not write the cache")
}

func TestEngine_MaxSuggestions(t *testing.T) {
	e := NewEngine(WithMaxSuggestions(2))
	out := e.GetSuggestions(context.Background(), CompletionContext{Input: "=", Cursor: 1})
	assert.Len(t, out, 2)
}

func TestEngine_NeverReturnsNilOnJunk(t *testing.T) {
	e := NewEngine()
	for _, input := range []string{"", "=", "===((", "=SUM((((", "not a formula", "=\"unterminated"} {
		for _, cursor := range []int{-3, 0, 1, len(input), len(input) + 5} {
			assert.NotPanics(t, func() {
				_ = e.GetSuggestions(context.Background(), CompletionContext{Input: input, Cursor: cursor})
			}, "input %q cursor %d", input, cursor)
		}
	}
}

func TestEngine_PatternSuggestionsForPlainText(t *testing.T) {
	m := NewMapAccessor()
	m.SetColumn(0, 0, "", "Widget", "Widget")
	e := NewEngine()

	out := e.GetSuggestions(context.Background(), CompletionContext{
		Input:  "Wi",
		Cursor: 2,
		Cell:   NewCellRef("", 2, 0),
		Cells:  m,
	})
	require.NotEmpty(t, out)
	assert.Equal(t, "Widget", out[0].Text)
	assert.Equal(t, SuggestionValue, out[0].Type)
}

func TestEngine_SchemaNamedRangesOffered(t *testing.T) {
	schema := &stubSchema{
		named:  []NamedRange{{Name: "SalesData", Ref: "A1:C10"}},
		tables: []TableInfo{{Name: "Sales", Sheet: "S", Ref: "A1:C10"}},
	}
	e := NewEngine()

	input := "=SUM(Sal"
	out := e.GetSuggestions(context.Background(), CompletionContext{
		Input:  input,
		Cursor: len(input),
		Cells:  NewMapAccessor(),
		Schema: schema,
	})

	texts := make([]string, len(out))
	for i, s := range out {
		texts[i] = s.Text
	}
	assert.Contains(t, texts, "=SUM(SalesData)")
	assert.Contains(t, texts, "=SUM(Sales)")
}

func TestEngine_SchemaFailureSwallowed(t *testing.T) {
	e := NewEngine()
	input := "=SUM(A"
	out := e.GetSuggestions(context.Background(), CompletionContext{
		Input:  input,
		Cursor: len(input),
		Cells:  tenNumericRows(),
		Schema: &stubSchema{fail: true},
	})
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(A1:A10)", out[0].Text)
}

func TestEngine_PreviewAttachedToCopies(t *testing.T) {
	e := NewEngine()
	cc := CompletionContext{
		Input:  "=SUM(",
		Cursor: 5,
		Cell:   NewCellRef("", 10, 0),
		Cells:  tenNumericRows(),
	}

	eval := func(ctx context.Context, s Suggestion, cc CompletionContext) (any, error) {
		if s.Type == SuggestionRange {
			return 55.0, nil
		}
		return nil, errors.New("no preview")
	}

	out := e.GetSuggestions(context.Background(), cc, WithPreview(eval))
	require.NotEmpty(t, out)
	assert.Equal(t, 55.0, out[0].Preview)

	// The cached copy stays preview-free.
	cached, ok := e.cache.Get(e.BuildCacheKey(cc))
	require.True(t, ok)
	assert.Nil(t, cached[0].Preview)
}

func TestEngine_PreviewPanicDoesNotDropCandidate(t *testing.T) {
	e := NewEngine()
	cc := CompletionContext{
		Input:  "=SUM(",
		Cursor: 5,
		Cell:   NewCellRef("", 10, 0),
		Cells:  tenNumericRows(),
	}

	eval := func(ctx context.Context, s Suggestion, cc CompletionContext) (any, error) {
		panic("evaluator bug")
	}

	out := e.GetSuggestions(context.Background(), cc, WithPreview(eval))
	require.NotEmpty(t, out)
	assert.Equal(t, "=SUM(A1:A10)", out[0].Text)
	assert.Nil(t, out[0].Preview)
}

// stubSchema is a SchemaProvider with canned data or canned failure.
type stubSchema struct {
	named  []NamedRange
	tables []TableInfo
	fail   bool
}

func (s *stubSchema) NamedRanges(context.Context) ([]NamedRange, error) {
	if s.fail {
		return nil, errors.New("schema unavailable")
	}
	return s.named, nil
}

func (s *stubSchema) SheetNames(context.Context) ([]string, error) {
	if s.fail {
		return nil, errors.New("schema unavailable")
	}
	return []string{"S"}, nil
}

func (s *stubSchema) Tables(context.Context) ([]TableInfo, error) {
	if s.fail {
		return nil, errors.New("schema unavailable")
	}
	return s.tables, nil
}

func (s *stubSchema) CacheKey() string { return "stub" }

package xlcomplete

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CompletionRequest is the payload sent to a remote completion backend.
type CompletionRequest struct {
	Input  string
	Cursor int
	CellA1 string
}

// CompletionClient is the narrow interface to an optional remote
// completion backend. A returned string starting with '=' is a full
// replacement formula; anything else is literal insertion text at the
// cursor. Errors and timeouts mean "no suggestion".
type CompletionClient interface {
	CompleteTabCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// PreviewEvaluator computes a preview value for a formula or range
// suggestion. A failure for one candidate must not drop the candidate.
type PreviewEvaluator func(ctx context.Context, s Suggestion, cc CompletionContext) (any, error)

// CompletionContext is everything the engine knows about one keystroke.
type CompletionContext struct {
	Input  string
	Cursor int
	Cell   CellRef
	Cells  CellAccessor   // may be nil
	Schema SchemaProvider // may be nil
}

const (
	minBackendBudget     = 1 * time.Millisecond
	maxBackendBudget     = 200 * time.Millisecond
	defaultBackendBudget = 100 * time.Millisecond

	defaultCacheSize      = 128
	defaultMaxSuggestions = 8

	// backendConfidence is the confidence of a remote-backend suggestion;
	// starter stubs sit just below it so the backend's answer wins when
	// it arrives in time.
	backendConfidence = 0.9
	starterConfidence = 0.85
)

// starterStubs is the fixed ordered zero-state list offered for a bare
// "=" so the UI is never empty while the backend is in flight.
var starterStubs = []string{"SUM(", "IF(", "AVERAGE(", "COUNT(", "VLOOKUP(", "MAX(", "MIN("}

// Engine composes the parser, the registry, the suggesters, the cache
// and an optional remote backend into ranked suggestion lists.
type Engine struct {
	registry       *Registry
	client         CompletionClient
	cache          *Cache[string, []Suggestion]
	maxSuggestions int
	backendBudget  time.Duration
	maxScanRows    int
	maxScanCols    int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the function registry (default: NewDefaultRegistry).
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithClient injects the remote completion backend.
func WithClient(c CompletionClient) EngineOption {
	return func(e *Engine) { e.client = c }
}

// WithCacheSize sets the suggestion cache capacity.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.cache = NewCache[string, []Suggestion](n)
		}
	}
}

// WithBackendBudget sets the remote call's time budget, clamped to
// [1ms, 200ms].
func WithBackendBudget(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d < minBackendBudget {
			d = minBackendBudget
		}
		if d > maxBackendBudget {
			d = maxBackendBudget
		}
		e.backendBudget = d
	}
}

// WithMaxSuggestions caps the returned list length.
func WithMaxSuggestions(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSuggestions = n
		}
	}
}

// WithScanBounds caps the range/pattern scans per keystroke.
func WithScanBounds(rows, cols int) EngineOption {
	return func(e *Engine) {
		if rows > 0 {
			e.maxScanRows = rows
		}
		if cols > 0 {
			e.maxScanCols = cols
		}
	}
}

// NewEngine creates an Engine with the default registry, cache and
// budgets, then applies the options.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		registry:       NewDefaultRegistry(),
		cache:          NewCache[string, []Suggestion](defaultCacheSize),
		maxSuggestions: defaultMaxSuggestions,
		backendBudget:  defaultBackendBudget,
		maxScanRows:    defaultMaxScanRows,
		maxScanCols:    defaultMaxScanCols,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's function registry.
func (e *Engine) Registry() *Registry { return e.registry }

// SuggestOption configures one GetSuggestions call.
type SuggestOption func(*suggestConfig)

type suggestConfig struct {
	preview PreviewEvaluator
}

// WithPreview attaches the caller's preview evaluator for this call.
// Previews are computed after ranking and only for formula and range
// suggestions; they are never cached.
func WithPreview(p PreviewEvaluator) SuggestOption {
	return func(c *suggestConfig) { c.preview = p }
}

// BuildCacheKey composes the cache key for a completion context: input,
// cursor, cell, the accessor's data signature and the schema signature.
// Exposed so hosts can pre-warm or invalidate.
func (e *Engine) BuildCacheKey(cc CompletionContext) string {
	cc = normalizeContext(cc)
	cellsKey := ""
	if cc.Cells != nil {
		cellsKey = cc.Cells.CacheKey()
	}
	schemaKey := ""
	if cc.Schema != nil {
		schemaKey = cc.Schema.CacheKey()
	}
	return fmt.Sprintf("%s\x1f%d\x1f%s\x1f%s\x1f%s",
		cc.Input, cc.Cursor, cc.Cell.String(), cellsKey, schemaKey)
}

// GetSuggestions produces the ranked suggestion list for one keystroke.
// It always returns a (possibly empty) list: collaborator failures,
// timeouts and cancellations degrade to missing contributions, never to
// an error. The rule-based, pattern and remote sources run concurrently.
func (e *Engine) GetSuggestions(ctx context.Context, cc CompletionContext, opts ...SuggestOption) []Suggestion {
	if ctx == nil {
		ctx = context.Background()
	}
	var cfg suggestConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cc = normalizeContext(cc)

	key := e.BuildCacheKey(cc)
	if cached, ok := e.cache.Get(key); ok {
		return e.attachPreviews(ctx, cfg.preview, cached, cc)
	}

	var (
		wg      sync.WaitGroup
		rules   []Suggestion
		pattern []Suggestion
		remote  []Suggestion
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer swallowPanic()
		rules = e.ruleSuggestions(ctx, cc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer swallowPanic()
		pattern = e.patternSuggestions(cc)
	}()

	if e.client != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer swallowPanic()
			remote = e.backendSuggestion(ctx, cc)
		}()
	}

	wg.Wait()

	merged := make([]Suggestion, 0, len(rules)+len(pattern)+len(remote))
	merged = append(merged, rules...)
	merged = append(merged, pattern...)
	merged = append(merged, remote...)

	ranked := rankSuggestions(merged)
	if len(ranked) > e.maxSuggestions {
		ranked = ranked[:e.maxSuggestions]
	}

	// A superseded request must not overwrite a newer request's entry.
	if ctx.Err() == nil {
		e.cache.Put(key, ranked)
	}

	return e.attachPreviews(ctx, cfg.preview, ranked, cc)
}

// normalizeContext clamps all context fields to safe values; a malformed
// cell reference degrades to A1, never to a failure.
func normalizeContext(cc CompletionContext) CompletionContext {
	if cc.Cursor < 0 {
		cc.Cursor = 0
	}
	if cc.Cursor > len(cc.Input) {
		cc.Cursor = len(cc.Input)
	}
	if cc.Cell.Row < 0 {
		cc.Cell.Row = 0
	}
	if cc.Cell.Col < 0 || cc.Cell.Col > MaxCol {
		cc.Cell.Col = 0
	}
	return cc
}

// swallowPanic keeps a defect in one suggestion source from ever
// reaching the caller's input thread; the source contributes nothing.
func swallowPanic() {
	_ = recover()
}

// ruleSuggestions produces the deterministic, registry-driven
// suggestions: starter stubs, function-name completion, range completion
// and argument-value hints.
func (e *Engine) ruleSuggestions(ctx context.Context, cc CompletionContext) []Suggestion {
	fc := ParsePartialFormula(cc.Input, cc.Cursor, e.registry)
	if !fc.IsFormula {
		return nil
	}

	if isZeroState(cc.Input, cc.Cursor) {
		return starterSuggestions()
	}

	if fc.InFunctionCall {
		if fc.ExpectsRange {
			return e.rangeSuggestions(ctx, cc, fc)
		}
		return e.argumentSuggestions(cc, fc)
	}

	if fc.FunctionNamePrefix != nil {
		return e.nameSuggestions(cc, fc)
	}
	return nil
}

// isZeroState reports whether the formula body is exactly "=" (optionally
// padded with whitespace) with the cursor at end of input.
func isZeroState(input string, cursor int) bool {
	if cursor != len(input) {
		return false
	}
	trimmed := strings.TrimSpace(input)
	return trimmed == "="
}

func starterSuggestions() []Suggestion {
	out := make([]Suggestion, 0, len(starterStubs))
	for i, stub := range starterStubs {
		out = append(out, Suggestion{
			Text:        "=" + stub,
			DisplayText: stub,
			Type:        SuggestionFormula,
			// Slightly decreasing so the fixed order survives ranking.
			Confidence: starterConfidence - float64(i)*0.01,
		})
	}
	return out
}

// nameSuggestions completes a function-name prefix from the registry.
func (e *Engine) nameSuggestions(cc CompletionContext, fc FormulaContext) []Suggestion {
	prefix := fc.FunctionNamePrefix
	specs := e.registry.Search(prefix.Text, e.maxSuggestions)
	out := make([]Suggestion, 0, len(specs))
	for _, spec := range specs {
		text := cc.Input[:prefix.Start] + spec.Name + "(" + cc.Input[cc.Cursor:]
		out = append(out, Suggestion{
			Text:        text,
			DisplayText: displaySignature(spec),
			Type:        SuggestionFormula,
			Confidence:  0.7,
		})
	}
	return out
}

// displaySignature renders "NAME(arg1, arg2, ...)" for the picker.
func displaySignature(spec *FunctionSpec) string {
	if len(spec.Args) == 0 {
		return spec.Name + "()"
	}
	names := make([]string, 0, len(spec.Args))
	for _, a := range spec.Args {
		n := a.Name
		if n == "" {
			n = a.Type.String()
		}
		if a.Optional {
			n = "[" + n + "]"
		}
		names = append(names, n)
	}
	suffix := ""
	if spec.repeatingStart() >= 0 {
		suffix = ", ..."
	}
	return spec.Name + "(" + strings.Join(names, ", ") + suffix + ")"
}

// rangeSuggestions completes a range-typed argument from the data
// heuristics, plus named ranges and table references from the schema
// provider when one is wired.
func (e *Engine) rangeSuggestions(ctx context.Context, cc CompletionContext, fc FormulaContext) []Suggestion {
	arg := fc.CurrentArg
	if arg == nil {
		return nil
	}

	var out []Suggestion
	ranges := SuggestRanges(arg.Text, cc.Cell, cc.Cells, RangeOptions{
		SheetName:   cc.Cell.Sheet,
		MaxScanRows: e.maxScanRows,
		MaxScanCols: e.maxScanCols,
	})

	// Prefer table shapes when the argument position asks for one.
	tablePreferred := argPrefersTable(e.registry, fc)
	for _, rs := range ranges {
		conf := rs.Confidence
		if tablePreferred {
			if rs.Reason.IsTable() {
				conf = clamp01(conf + 0.1)
			} else {
				conf = clamp01(conf - 0.1)
			}
		}
		out = append(out, Suggestion{
			Text:        replaceArg(cc, arg, rs.Range),
			DisplayText: rs.Range,
			Type:        SuggestionRange,
			Confidence:  conf,
		})
	}

	out = append(out, e.schemaRangeSuggestions(ctx, cc, arg)...)
	return out
}

// argPrefersTable reports whether the active argument's declared name
// suggests a 2-D shape (table_array, array, database).
func argPrefersTable(r *Registry, fc FormulaContext) bool {
	name := r.ArgName(fc.FunctionName, fc.ArgIndex)
	switch name {
	case "table_array", "array", "database":
		return true
	}
	return false
}

// schemaRangeSuggestions offers named ranges and table structured
// references matching the typed argument. Schema failures contribute
// nothing.
func (e *Engine) schemaRangeSuggestions(ctx context.Context, cc CompletionContext, arg *Span) []Suggestion {
	if cc.Schema == nil {
		return nil
	}
	typed := strings.ToUpper(strings.TrimSpace(arg.Text))
	var out []Suggestion

	if named, err := cc.Schema.NamedRanges(ctx); err == nil {
		for _, nr := range named {
			if nr.Name == "" {
				continue
			}
			if typed != "" && !strings.HasPrefix(strings.ToUpper(nr.Name), typed) {
				continue
			}
			out = append(out, Suggestion{
				Text:        replaceArg(cc, arg, nr.Name),
				DisplayText: nr.Name,
				Type:        SuggestionRange,
				Confidence:  0.65,
			})
		}
	}

	if tables, err := cc.Schema.Tables(ctx); err == nil {
		for _, tbl := range tables {
			if tbl.Name == "" {
				continue
			}
			if typed != "" && !strings.HasPrefix(strings.ToUpper(tbl.Name), typed) {
				continue
			}
			out = append(out, Suggestion{
				Text:        replaceArg(cc, arg, tbl.Name),
				DisplayText: tbl.Name,
				Type:        SuggestionRange,
				Confidence:  0.6,
			})
		}
	}
	return out
}

// argumentSuggestions offers curated per-function enumerations for the
// active argument, generic booleans for boolean arguments, and "the cell
// to the left" for plain value positions.
func (e *Engine) argumentSuggestions(cc CompletionContext, fc FormulaContext) []Suggestion {
	arg := fc.CurrentArg
	if arg == nil {
		return nil
	}

	if hints := HintsForArg(fc.FunctionName, fc.ArgIndex); len(hints) > 0 {
		out := make([]Suggestion, 0, len(hints))
		for _, h := range hints {
			if arg.Text != "" && !strings.HasPrefix(strings.ToUpper(h.Value), strings.ToUpper(arg.Text)) {
				continue
			}
			out = append(out, Suggestion{
				Text:        replaceArg(cc, arg, h.Value),
				DisplayText: h.Display,
				Type:        SuggestionFunctionArg,
				Confidence:  h.Confidence,
			})
		}
		return out
	}

	argType, _ := e.registry.ArgType(fc.FunctionName, fc.ArgIndex)
	switch argType {
	case ArgBoolean:
		return []Suggestion{
			{Text: replaceArg(cc, arg, "TRUE"), DisplayText: "TRUE", Type: SuggestionFunctionArg, Confidence: 0.6},
			{Text: replaceArg(cc, arg, "FALSE"), DisplayText: "FALSE", Type: SuggestionFunctionArg, Confidence: 0.55},
		}
	case ArgValue, ArgAny:
		// Default hint: reference the cell to the left of the anchor.
		if arg.Text == "" && cc.Cell.Col > 0 {
			left := NewCellRef("", cc.Cell.Row, cc.Cell.Col-1)
			return []Suggestion{{
				Text:        replaceArg(cc, arg, left.CellName()),
				DisplayText: left.CellName(),
				Type:        SuggestionFunctionArg,
				Confidence:  0.4,
			}}
		}
	}
	return nil
}

// replaceArg splices replacement over the current argument span and
// auto-closes the call when the cursor is at end of input with an
// unbalanced paren.
func replaceArg(cc CompletionContext, arg *Span, replacement string) string {
	text := cc.Input[:arg.Start] + replacement + cc.Input[cc.Cursor:]
	if cc.Cursor == len(cc.Input) && unbalancedParens(text) {
		text += ")"
	}
	return text
}

// unbalancedParens reports whether text has more '(' than ')' outside
// string literals.
func unbalancedParens(text string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth > 0
}

// patternSuggestions wraps the pattern suggester for non-formula input.
func (e *Engine) patternSuggestions(cc CompletionContext) []Suggestion {
	if strings.HasPrefix(cc.Input, "=") || cc.Cells == nil {
		return nil
	}
	values := SuggestPatternValues(cc.Input, cc.Cursor, cc.Cell, cc.Cells)
	out := make([]Suggestion, 0, len(values))
	for _, v := range values {
		out = append(out, Suggestion{
			Text:        v.Text,
			DisplayText: v.Text,
			Type:        SuggestionValue,
			Confidence:  v.Confidence,
		})
	}
	return out
}

// backendSuggestion runs the remote backend inside its clamped time
// budget. The caller's cancellation flows into the request; expiry and
// errors mean "no suggestion".
func (e *Engine) backendSuggestion(ctx context.Context, cc CompletionContext) []Suggestion {
	bctx, cancel := context.WithTimeout(ctx, e.backendBudget)
	defer cancel()

	text, err := e.client.CompleteTabCompletion(bctx, CompletionRequest{
		Input:  cc.Input,
		Cursor: cc.Cursor,
		CellA1: cc.Cell.String(),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return nil
	}

	var full string
	if strings.HasPrefix(text, "=") {
		full = text
	} else {
		full = cc.Input[:cc.Cursor] + text + cc.Input[cc.Cursor:]
	}
	if full == cc.Input {
		return nil
	}
	return []Suggestion{{
		Text:        full,
		DisplayText: text,
		Type:        SuggestionFormula,
		Confidence:  backendConfidence,
	}}
}

// attachPreviews runs the caller's evaluator over formula and range
// suggestions, on copies: the cached list stays preview-free. A preview
// failure leaves the candidate without a preview.
func (e *Engine) attachPreviews(ctx context.Context, eval PreviewEvaluator, in []Suggestion, cc CompletionContext) []Suggestion {
	out := make([]Suggestion, len(in))
	copy(out, in)
	if eval == nil {
		return out
	}
	for i := range out {
		if out[i].Type != SuggestionFormula && out[i].Type != SuggestionRange {
			continue
		}
		v, err := safePreview(ctx, eval, out[i], cc)
		if err != nil {
			continue
		}
		out[i].Preview = v
	}
	return out
}

// safePreview isolates evaluator panics from the completion path.
func safePreview(ctx context.Context, eval PreviewEvaluator, s Suggestion, cc CompletionContext) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("preview panic: %v", r)
		}
	}()
	return eval(ctx, s, cc)
}

// Package preview computes aggregate previews for range and formula
// suggestions: for a suggestion like "=SUM(A1:A10)" it extracts the
// range, reads its values through the cell accessor, and evaluates the
// aggregate with expr-lang. It plugs into the engine as a
// PreviewEvaluator.
package preview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/javajack/xlcomplete"
)

// aggregateExprs maps a supported function name to the expr-lang source
// evaluated over the extracted range values.
var aggregateExprs = map[string]string{
	"SUM":     "sum(values)",
	"AVERAGE": "len(values) == 0 ? 0.0 : sum(values) / float(len(values))",
	"MIN":     "low(values)",
	"MAX":     "high(values)",
	"COUNT":   "float(len(values))",
	"COUNTA":  "float(nonEmpty)",
}

// maxPreviewCells bounds how many cells a single preview may read.
const maxPreviewCells = 10000

// Evaluator evaluates aggregate previews, caching compiled expr programs
// by source the way the engine caches suggestion lists.
type Evaluator struct {
	programs *xlcomplete.Cache[string, *vm.Program]
}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{programs: xlcomplete.NewCache[string, *vm.Program](64)}
}

// Evaluate implements xlcomplete.PreviewEvaluator. Unsupported
// suggestions return an error, which the engine treats as "no preview".
func (e *Evaluator) Evaluate(_ context.Context, s xlcomplete.Suggestion, cc xlcomplete.CompletionContext) (any, error) {
	if cc.Cells == nil {
		return nil, fmt.Errorf("no cell accessor")
	}

	name, rangeText, ok := splitAggregate(s.Text)
	if !ok {
		return nil, fmt.Errorf("no aggregate call in %q", s.Text)
	}
	source, ok := aggregateExprs[name]
	if !ok {
		return nil, fmt.Errorf("unsupported aggregate %q", name)
	}

	values, nonEmpty, err := rangeValues(rangeText, cc)
	if err != nil {
		return nil, err
	}

	program, err := e.compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile preview %q: %w", source, err)
	}
	out, err := expr.Run(program, previewEnv(values, nonEmpty))
	if err != nil {
		return nil, fmt.Errorf("evaluate preview %q: %w", source, err)
	}
	return out, nil
}

func (e *Evaluator) compile(source string) (*vm.Program, error) {
	if cached, ok := e.programs.Get(source); ok {
		return cached, nil
	}
	program, err := expr.Compile(source,
		expr.Env(previewEnv(nil, 0)),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	e.programs.Put(source, program)
	return program, nil
}

// previewEnv builds the evaluation environment. low/high avoid clashing
// with expr's own min/max builtins.
func previewEnv(values []float64, nonEmpty int) map[string]any {
	return map[string]any{
		"values":   values,
		"nonEmpty": nonEmpty,
		"low": func(xs []float64) float64 {
			if len(xs) == 0 {
				return 0
			}
			m := xs[0]
			for _, x := range xs[1:] {
				if x < m {
					m = x
				}
			}
			return m
		},
		"high": func(xs []float64) float64 {
			if len(xs) == 0 {
				return 0
			}
			m := xs[0]
			for _, x := range xs[1:] {
				if x > m {
					m = x
				}
			}
			return m
		},
	}
}

// splitAggregate extracts "NAME" and its sole argument from a suggestion
// text like "=SUM(A1:A10)" or "=IF(X, SUM(...))"; only the outermost
// simple "=NAME(arg" shape is supported.
func splitAggregate(text string) (name, arg string, ok bool) {
	if !strings.HasPrefix(text, "=") {
		return "", "", false
	}
	rest := strings.TrimSpace(text[1:])
	open := strings.IndexByte(rest, '(')
	if open <= 0 {
		return "", "", false
	}
	name = strings.ToUpper(strings.TrimSpace(rest[:open]))
	arg = rest[open+1:]
	if end := strings.IndexByte(arg, ')'); end >= 0 {
		arg = arg[:end]
	}
	arg = strings.TrimSpace(arg)
	if name == "" || arg == "" || strings.ContainsAny(arg, "(,;") {
		return "", "", false
	}
	return name, arg, true
}

// rangeValues reads the numeric values of an A1 range (or single cell)
// through the accessor, bounded by maxPreviewCells.
func rangeValues(rangeText string, cc xlcomplete.CompletionContext) (values []float64, nonEmpty int, err error) {
	startPart, endPart, isRange := strings.Cut(rangeText, ":")
	start, err := xlcomplete.ParseCellRef(startPart)
	if err != nil {
		return nil, 0, fmt.Errorf("parse range %q: %w", rangeText, err)
	}
	end := start
	if isRange {
		end, err = xlcomplete.ParseCellRef(endPart)
		if err != nil {
			return nil, 0, fmt.Errorf("parse range %q: %w", rangeText, err)
		}
	}
	if end.Row < start.Row || end.Col < start.Col {
		start, end = end, start
	}

	cells := (end.Row - start.Row + 1) * (end.Col - start.Col + 1)
	if cells > maxPreviewCells {
		return nil, 0, fmt.Errorf("range %q too large for preview", rangeText)
	}

	sheet := start.Sheet
	if sheet == "" {
		sheet = cc.Cell.Sheet
	}
	for r := start.Row; r <= end.Row; r++ {
		for c := start.Col; c <= end.Col; c++ {
			v := cc.Cells.CellValue(r, c, sheet)
			if v == nil {
				continue
			}
			nonEmpty++
			if n, ok := toNumber(v); ok {
				values = append(values, n)
			}
		}
	}
	return values, nonEmpty, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

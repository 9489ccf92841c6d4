package xlcomplete

// curatedSpecs holds hand-written signatures that override the generated
// catalog. These are the functions whose arguments completion
// special-cases: precise argument names, range vs value distinctions,
// and repeating-group markers.
var curatedSpecs = []*FunctionSpec{
	{
		Name: "SUM", MinArgs: 1, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "number1", Type: ArgRange, Repeating: true},
		},
	},
	{
		Name: "IF", MinArgs: 2, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "logical_test", Type: ArgBoolean},
			{Name: "value_if_true", Type: ArgValue},
			{Name: "value_if_false", Type: ArgValue, Optional: true},
		},
	},
	{
		Name: "IFS", MinArgs: 2, MaxArgs: 254,
		Args: []ArgSpec{
			{Name: "logical_test1", Type: ArgBoolean, Repeating: true},
			{Name: "value_if_true1", Type: ArgValue},
		},
	},
	{
		Name: "VLOOKUP", MinArgs: 3, MaxArgs: 4,
		Args: []ArgSpec{
			{Name: "lookup_value", Type: ArgValue},
			{Name: "table_array", Type: ArgRange},
			{Name: "col_index_num", Type: ArgNumber},
			{Name: "range_lookup", Type: ArgBoolean, Optional: true},
		},
	},
	{
		Name: "HLOOKUP", MinArgs: 3, MaxArgs: 4,
		Args: []ArgSpec{
			{Name: "lookup_value", Type: ArgValue},
			{Name: "table_array", Type: ArgRange},
			{Name: "row_index_num", Type: ArgNumber},
			{Name: "range_lookup", Type: ArgBoolean, Optional: true},
		},
	},
	{
		Name: "XLOOKUP", MinArgs: 3, MaxArgs: 6,
		Args: []ArgSpec{
			{Name: "lookup_value", Type: ArgValue},
			{Name: "lookup_array", Type: ArgRange},
			{Name: "return_array", Type: ArgRange},
			{Name: "if_not_found", Type: ArgValue, Optional: true},
			{Name: "match_mode", Type: ArgNumber, Optional: true},
			{Name: "search_mode", Type: ArgNumber, Optional: true},
		},
	},
	{
		Name: "LOOKUP", MinArgs: 2, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "lookup_value", Type: ArgValue},
			{Name: "lookup_vector", Type: ArgRange},
			{Name: "result_vector", Type: ArgRange, Optional: true},
		},
	},
	{
		Name: "INDEX", MinArgs: 2, MaxArgs: 4,
		Args: []ArgSpec{
			{Name: "array", Type: ArgRange},
			{Name: "row_num", Type: ArgNumber},
			{Name: "column_num", Type: ArgNumber, Optional: true},
			{Name: "area_num", Type: ArgNumber, Optional: true},
		},
	},
	{
		Name: "MATCH", MinArgs: 2, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "lookup_value", Type: ArgValue},
			{Name: "lookup_array", Type: ArgRange},
			{Name: "match_type", Type: ArgNumber, Optional: true},
		},
	},
	{
		Name: "OFFSET", MinArgs: 3, MaxArgs: 5,
		Args: []ArgSpec{
			{Name: "reference", Type: ArgRange},
			{Name: "rows", Type: ArgNumber},
			{Name: "cols", Type: ArgNumber},
			{Name: "height", Type: ArgNumber, Optional: true},
			{Name: "width", Type: ArgNumber, Optional: true},
		},
	},
	{
		Name: "INDIRECT", MinArgs: 1, MaxArgs: 2,
		Args: []ArgSpec{
			{Name: "ref_text", Type: ArgString},
			{Name: "a1", Type: ArgBoolean, Optional: true},
		},
	},
	{
		Name: "SUMIF", MinArgs: 2, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "range", Type: ArgRange},
			{Name: "criteria", Type: ArgValue},
			{Name: "sum_range", Type: ArgRange, Optional: true},
		},
	},
	{
		Name: "SUMIFS", MinArgs: 3, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "sum_range", Type: ArgRange},
			{Name: "criteria_range1", Type: ArgRange, Repeating: true},
			{Name: "criteria1", Type: ArgValue},
		},
	},
	{
		Name: "COUNTIFS", MinArgs: 2, MaxArgs: 254,
		Args: []ArgSpec{
			{Name: "criteria_range1", Type: ArgRange, Repeating: true},
			{Name: "criteria1", Type: ArgValue},
		},
	},
	{
		Name: "AVERAGEIFS", MinArgs: 3, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "average_range", Type: ArgRange},
			{Name: "criteria_range1", Type: ArgRange, Repeating: true},
			{Name: "criteria1", Type: ArgValue},
		},
	},
	{
		Name: "MINIFS", MinArgs: 3, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "min_range", Type: ArgRange},
			{Name: "criteria_range1", Type: ArgRange, Repeating: true},
			{Name: "criteria1", Type: ArgValue},
		},
	},
	{
		Name: "MAXIFS", MinArgs: 3, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "max_range", Type: ArgRange},
			{Name: "criteria_range1", Type: ArgRange, Repeating: true},
			{Name: "criteria1", Type: ArgValue},
		},
	},
	{
		Name: "CHOOSE", MinArgs: 2, MaxArgs: 255,
		Args: []ArgSpec{
			{Name: "index_num", Type: ArgNumber},
			{Name: "value1", Type: ArgValue, Repeating: true},
		},
	},
	{
		Name: "SWITCH", MinArgs: 3, MaxArgs: 254,
		Args: []ArgSpec{
			{Name: "expression", Type: ArgValue},
			{Name: "value1", Type: ArgValue, Repeating: true},
			{Name: "result1", Type: ArgValue},
		},
	},
	{
		Name: "TEXTJOIN", MinArgs: 3, MaxArgs: 252,
		Args: []ArgSpec{
			{Name: "delimiter", Type: ArgString},
			{Name: "ignore_empty", Type: ArgBoolean},
			{Name: "text1", Type: ArgRange, Repeating: true},
		},
	},
	{
		Name: "DSUM", MinArgs: 3, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "database", Type: ArgRange},
			{Name: "field", Type: ArgValue},
			{Name: "criteria", Type: ArgRange},
		},
	},
	{
		Name: "DCOUNT", MinArgs: 3, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "database", Type: ArgRange},
			{Name: "field", Type: ArgValue},
			{Name: "criteria", Type: ArgRange},
		},
	},
	{
		Name: "DGET", MinArgs: 3, MaxArgs: 3,
		Args: []ArgSpec{
			{Name: "database", Type: ArgRange},
			{Name: "field", Type: ArgValue},
			{Name: "criteria", Type: ArgRange},
		},
	},
}

// loadCurated overlays the curated signatures onto the registry,
// replacing catalog entries of the same name.
func loadCurated(r *Registry) {
	for _, spec := range curatedSpecs {
		r.Register(spec)
	}
}

// ArgValueHint is a curated enumeration value for a specific argument of
// a specific function, e.g. VLOOKUP's exact/approximate flag.
type ArgValueHint struct {
	Value      string
	Display    string
	Confidence float64
}

// argValueHints maps canonical function name → 0-based argument index →
// the curated values offered for that argument, best first.
var argValueHints = map[string]map[int][]ArgValueHint{
	"VLOOKUP": {
		3: {
			{Value: "FALSE", Display: "FALSE (exact match)", Confidence: 0.85},
			{Value: "TRUE", Display: "TRUE (approximate match)", Confidence: 0.7},
		},
	},
	"HLOOKUP": {
		3: {
			{Value: "FALSE", Display: "FALSE (exact match)", Confidence: 0.85},
			{Value: "TRUE", Display: "TRUE (approximate match)", Confidence: 0.7},
		},
	},
	"XLOOKUP": {
		4: {
			{Value: "0", Display: "0 (exact match)", Confidence: 0.85},
			{Value: "-1", Display: "-1 (exact or next smaller)", Confidence: 0.7},
			{Value: "1", Display: "1 (exact or next larger)", Confidence: 0.65},
			{Value: "2", Display: "2 (wildcard match)", Confidence: 0.6},
		},
		5: {
			{Value: "1", Display: "1 (search first to last)", Confidence: 0.8},
			{Value: "-1", Display: "-1 (search last to first)", Confidence: 0.7},
			{Value: "2", Display: "2 (binary search ascending)", Confidence: 0.6},
			{Value: "-2", Display: "-2 (binary search descending)", Confidence: 0.55},
		},
	},
	"MATCH": {
		2: {
			{Value: "0", Display: "0 (exact match)", Confidence: 0.85},
			{Value: "1", Display: "1 (largest value <= lookup)", Confidence: 0.7},
			{Value: "-1", Display: "-1 (smallest value >= lookup)", Confidence: 0.65},
		},
	},
	"XMATCH": {
		2: {
			{Value: "0", Display: "0 (exact match)", Confidence: 0.85},
			{Value: "-1", Display: "-1 (exact or next smaller)", Confidence: 0.7},
			{Value: "1", Display: "1 (exact or next larger)", Confidence: 0.65},
		},
	},
	"SUBTOTAL": {
		0: {
			{Value: "9", Display: "9 (SUM)", Confidence: 0.8},
			{Value: "1", Display: "1 (AVERAGE)", Confidence: 0.7},
			{Value: "3", Display: "3 (COUNTA)", Confidence: 0.65},
			{Value: "4", Display: "4 (MAX)", Confidence: 0.6},
			{Value: "5", Display: "5 (MIN)", Confidence: 0.6},
		},
	},
	"WEEKDAY": {
		1: {
			{Value: "1", Display: "1 (Sunday = 1)", Confidence: 0.75},
			{Value: "2", Display: "2 (Monday = 1)", Confidence: 0.7},
		},
	},
	"INDIRECT": {
		1: {
			{Value: "TRUE", Display: "TRUE (A1-style)", Confidence: 0.75},
			{Value: "FALSE", Display: "FALSE (R1C1-style)", Confidence: 0.6},
		},
	},
}

// HintsForArg returns the curated value hints for the given function and
// argument index, or nil when none are curated.
func HintsForArg(name string, argIndex int) []ArgValueHint {
	spec, ok := defaultHintKey(name)
	if !ok {
		return nil
	}
	byArg, ok := argValueHints[spec]
	if !ok {
		return nil
	}
	return byArg[argIndex]
}

// defaultHintKey canonicalizes a function name for hint lookup, applying
// the same "_xlfn." handling as the registry.
func defaultHintKey(name string) (string, bool) {
	key := canonicalFunctionName(name)
	if key == "" {
		return "", false
	}
	return key, true
}

package xlcomplete

import "strings"

// catalogEntry is one row of the generated function catalog: a name, a
// coarse arity, and space-separated coarse argument types. The catalog is
// machine-generated and deliberately loose; curated.go overrides the
// functions that completion special-cases.
type catalogEntry struct {
	name    string
	minArgs int
	maxArgs int // -1 = unbounded
	args    string
}

// functionCatalog lists the generated coarse signatures.
var functionCatalog = []catalogEntry{
	{"ABS", 1, 1, "number"},
	{"ACOS", 1, 1, "number"},
	{"AND", 1, -1, "boolean"},
	{"ASIN", 1, 1, "number"},
	{"ATAN", 1, 1, "number"},
	{"ATAN2", 2, 2, "number number"},
	{"AVERAGE", 1, -1, "range"},
	{"AVERAGEA", 1, -1, "range"},
	{"AVERAGEIF", 2, 3, "range value range"},
	{"CEILING", 2, 2, "number number"},
	{"CHAR", 1, 1, "number"},
	{"CLEAN", 1, 1, "string"},
	{"CODE", 1, 1, "string"},
	{"COLUMN", 0, 1, "range"},
	{"COLUMNS", 1, 1, "range"},
	{"CONCAT", 1, -1, "value"},
	{"CONCATENATE", 1, -1, "value"},
	{"COS", 1, 1, "number"},
	{"COUNT", 1, -1, "range"},
	{"COUNTA", 1, -1, "range"},
	{"COUNTBLANK", 1, 1, "range"},
	{"COUNTIF", 2, 2, "range value"},
	{"DATE", 3, 3, "number number number"},
	{"DATEDIF", 3, 3, "value value string"},
	{"DATEVALUE", 1, 1, "string"},
	{"DAY", 1, 1, "value"},
	{"DAYS", 2, 2, "value value"},
	{"DEGREES", 1, 1, "number"},
	{"EDATE", 2, 2, "value number"},
	{"EOMONTH", 2, 2, "value number"},
	{"EXACT", 2, 2, "string string"},
	{"EXP", 1, 1, "number"},
	{"FACT", 1, 1, "number"},
	{"FIND", 2, 3, "string string number"},
	{"FLOOR", 2, 2, "number number"},
	{"HOUR", 1, 1, "value"},
	{"IFERROR", 2, 2, "value value"},
	{"IFNA", 2, 2, "value value"},
	{"INT", 1, 1, "number"},
	{"ISBLANK", 1, 1, "value"},
	{"ISERROR", 1, 1, "value"},
	{"ISLOGICAL", 1, 1, "value"},
	{"ISNA", 1, 1, "value"},
	{"ISNUMBER", 1, 1, "value"},
	{"ISTEXT", 1, 1, "value"},
	{"LARGE", 2, 2, "range number"},
	{"LEFT", 1, 2, "string number"},
	{"LEN", 1, 1, "string"},
	{"LN", 1, 1, "number"},
	{"LOG", 1, 2, "number number"},
	{"LOG10", 1, 1, "number"},
	{"LOWER", 1, 1, "string"},
	{"MAX", 1, -1, "range"},
	{"MAXA", 1, -1, "range"},
	{"MEDIAN", 1, -1, "range"},
	{"MID", 3, 3, "string number number"},
	{"MIN", 1, -1, "range"},
	{"MINA", 1, -1, "range"},
	{"MINUTE", 1, 1, "value"},
	{"MOD", 2, 2, "number number"},
	{"MONTH", 1, 1, "value"},
	{"MROUND", 2, 2, "number number"},
	{"NETWORKDAYS", 2, 3, "value value range"},
	{"NOT", 1, 1, "boolean"},
	{"NOW", 0, 0, ""},
	{"OR", 1, -1, "boolean"},
	{"PI", 0, 0, ""},
	{"PMT", 3, 5, "number number number number number"},
	{"POWER", 2, 2, "number number"},
	{"PRODUCT", 1, -1, "range"},
	{"PROPER", 1, 1, "string"},
	{"QUOTIENT", 2, 2, "number number"},
	{"RADIANS", 1, 1, "number"},
	{"RAND", 0, 0, ""},
	{"RANDBETWEEN", 2, 2, "number number"},
	{"RANK", 2, 3, "number range number"},
	{"REPLACE", 4, 4, "string number number string"},
	{"REPT", 2, 2, "string number"},
	{"RIGHT", 1, 2, "string number"},
	{"ROUND", 2, 2, "number number"},
	{"ROUNDDOWN", 2, 2, "number number"},
	{"ROUNDUP", 2, 2, "number number"},
	{"ROW", 0, 1, "range"},
	{"ROWS", 1, 1, "range"},
	{"SEARCH", 2, 3, "string string number"},
	{"SECOND", 1, 1, "value"},
	{"SIGN", 1, 1, "number"},
	{"SIN", 1, 1, "number"},
	{"SMALL", 2, 2, "range number"},
	{"SQRT", 1, 1, "number"},
	{"STDEV", 1, -1, "range"},
	{"STDEVP", 1, -1, "range"},
	{"SUBSTITUTE", 3, 4, "string string string number"},
	{"SUBTOTAL", 2, -1, "number range"},
	{"SUMPRODUCT", 1, -1, "range"},
	{"SUMSQ", 1, -1, "range"},
	{"TAN", 1, 1, "number"},
	{"TEXT", 2, 2, "value string"},
	{"TIME", 3, 3, "number number number"},
	{"TODAY", 0, 0, ""},
	{"TRANSPOSE", 1, 1, "range"},
	{"TRIM", 1, 1, "string"},
	{"TRUNC", 1, 2, "number number"},
	{"UPPER", 1, 1, "string"},
	{"VALUE", 1, 1, "string"},
	{"VAR", 1, -1, "range"},
	{"VARP", 1, -1, "range"},
	{"WEEKDAY", 1, 2, "value number"},
	{"WEEKNUM", 1, 2, "value number"},
	{"WORKDAY", 2, 3, "value number range"},
	{"YEAR", 1, 1, "value"},
	{"YEARFRAC", 2, 3, "value value number"},

	// Post-2007 functions; the registry resolves these for their
	// "_xlfn."-prefixed on-disk encoding too.
	{"ARRAYTOTEXT", 1, 2, "range number"},
	{"FILTER", 2, 3, "range range value"},
	{"RANDARRAY", 0, 5, "number number number number boolean"},
	{"SEQUENCE", 1, 4, "number number number number"},
	{"SORT", 1, 4, "range number number boolean"},
	{"SORTBY", 2, -1, "range range number"},
	{"TEXTAFTER", 2, 6, "string string number number number value"},
	{"TEXTBEFORE", 2, 6, "string string number number number value"},
	{"TEXTSPLIT", 2, 6, "string string string boolean number value"},
	{"TOCOL", 1, 3, "range number boolean"},
	{"TOROW", 1, 3, "range number boolean"},
	{"UNIQUE", 1, 3, "range boolean boolean"},
	{"VSTACK", 1, -1, "range"},
	{"HSTACK", 1, -1, "range"},
	{"XMATCH", 2, 4, "value range number number"},
}

// loadCatalog ingests the generated catalog into the registry. Entries
// with an empty name or an unrecognized argument-type token are skipped
// whole; a malformed row never produces a partial spec.
func loadCatalog(r *Registry) {
	for _, e := range functionCatalog {
		spec, ok := specFromCatalogEntry(e)
		if !ok {
			continue
		}
		r.Register(spec)
	}
}

// specFromCatalogEntry validates one catalog row into a FunctionSpec.
func specFromCatalogEntry(e catalogEntry) (*FunctionSpec, bool) {
	if strings.TrimSpace(e.name) == "" {
		return nil, false
	}
	spec := &FunctionSpec{
		Name:    strings.ToUpper(e.name),
		MinArgs: e.minArgs,
		MaxArgs: e.maxArgs,
	}
	for _, tok := range strings.Fields(e.args) {
		t, ok := parseArgType(tok)
		if !ok {
			return nil, false
		}
		spec.Args = append(spec.Args, ArgSpec{Type: t})
	}
	// Variadic catalog entries repeat their last declared argument.
	if e.maxArgs == -1 && len(spec.Args) > 0 {
		spec.Args[len(spec.Args)-1].Repeating = true
	}
	return spec, true
}

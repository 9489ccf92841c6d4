package xlcomplete

import (
	"sort"
	"strings"
)

// xlfnPrefix is Excel's on-disk encoding prefix for functions newer than
// the base file-format function set.
const xlfnPrefix = "_XLFN."

// canonicalFunctionName upper-cases a function name and strips the
// "_xlfn." encoding prefix.
func canonicalFunctionName(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimPrefix(key, xlfnPrefix)
}

// ArgType classifies what kind of value a function argument expects.
type ArgType int

const (
	ArgAny ArgType = iota
	ArgRange
	ArgValue
	ArgNumber
	ArgString
	ArgBoolean
)

// String returns a human-readable name for the ArgType.
func (a ArgType) String() string {
	switch a {
	case ArgRange:
		return "range"
	case ArgValue:
		return "value"
	case ArgNumber:
		return "number"
	case ArgString:
		return "string"
	case ArgBoolean:
		return "boolean"
	case ArgAny:
		return "any"
	default:
		return "unknown"
	}
}

// parseArgType parses a coarse catalog type token. The bool result is
// false for unrecognized tokens so malformed catalog entries can be
// skipped at ingestion instead of producing half-built specs.
func parseArgType(s string) (ArgType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "range":
		return ArgRange, true
	case "value":
		return ArgValue, true
	case "number":
		return ArgNumber, true
	case "string", "text":
		return ArgString, true
	case "boolean", "bool":
		return ArgBoolean, true
	case "any":
		return ArgAny, true
	default:
		return ArgAny, false
	}
}

// ArgSpec describes a single declared function argument.
type ArgSpec struct {
	Name      string
	Type      ArgType
	Optional  bool
	Repeating bool // marks the start of a cyclically-repeating group
}

// FunctionSpec describes a function's argument signature.
// MinArgs/MaxArgs of -1 mean "unspecified".
type FunctionSpec struct {
	Name    string
	MinArgs int
	MaxArgs int
	Args    []ArgSpec
}

// repeatingStart returns the index of the argument that starts the
// repeating group, or -1 if the signature has none.
func (s *FunctionSpec) repeatingStart() int {
	for i := range s.Args {
		if s.Args[i].Repeating {
			return i
		}
	}
	return -1
}

// ArgTypeAt resolves the expected type of the argument at index. Indexes
// beyond the declared list cycle through the repeating group when one is
// declared: args[start + (index-start) % groupLen].
func (s *FunctionSpec) ArgTypeAt(index int) (ArgType, bool) {
	if index < 0 || len(s.Args) == 0 {
		return ArgAny, false
	}
	if index < len(s.Args) {
		return s.Args[index].Type, true
	}
	start := s.repeatingStart()
	if start < 0 {
		return ArgAny, false
	}
	groupLen := len(s.Args) - start
	return s.Args[start+(index-start)%groupLen].Type, true
}

// Registry is a catalog of function signatures keyed by canonical
// upper-case name. Registration happens at construction time; the
// completion path only reads, so no locking is used.
type Registry struct {
	specs       map[string]*FunctionSpec
	sortedNames []string // lazily rebuilt canonical-name index for Search
	dirty       bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*FunctionSpec)}
}

// NewDefaultRegistry creates a Registry loaded with the generated catalog,
// then overlaid with the curated signatures.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	loadCatalog(r)
	loadCurated(r)
	return r
}

// Register adds or replaces a function spec under its canonical
// upper-case name. An "_xlfn."-prefixed alias is implied for every spec
// and resolved in Get; it is not stored separately.
func (r *Registry) Register(spec *FunctionSpec) {
	if spec == nil || strings.TrimSpace(spec.Name) == "" {
		return
	}
	key := strings.ToUpper(spec.Name)
	// A spec registered under its _xlfn.-encoded name is stored under the
	// bare canonical name.
	key = strings.TrimPrefix(key, xlfnPrefix)
	if key == "" {
		return
	}
	if _, exists := r.specs[key]; !exists {
		r.dirty = true
	}
	r.specs[key] = spec
}

// Get looks up a function spec case-insensitively. A name carrying the
// "_xlfn." prefix resolves to the same spec as the bare name.
func (r *Registry) Get(name string) (*FunctionSpec, bool) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if spec, ok := r.specs[key]; ok {
		return spec, true
	}
	if strings.HasPrefix(key, xlfnPrefix) {
		if spec, ok := r.specs[strings.TrimPrefix(key, xlfnPrefix)]; ok {
			return spec, true
		}
	}
	return nil, false
}

// Has reports whether a function with the given name exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Search returns up to limit specs whose canonical name starts with
// prefix (case-insensitive), in name order. It binary-searches a lazily
// rebuilt sorted name index, so a search costs O(log n + k).
func (r *Registry) Search(prefix string, limit int) []*FunctionSpec {
	if limit <= 0 {
		return nil
	}
	r.ensureIndex()

	p := strings.ToUpper(strings.TrimSpace(prefix))
	if strings.HasPrefix(p, xlfnPrefix) {
		p = strings.TrimPrefix(p, xlfnPrefix)
	}

	start := sort.SearchStrings(r.sortedNames, p)
	var out []*FunctionSpec
	for i := start; i < len(r.sortedNames) && len(out) < limit; i++ {
		if !strings.HasPrefix(r.sortedNames[i], p) {
			break
		}
		out = append(out, r.specs[r.sortedNames[i]])
	}
	return out
}

// ArgType resolves the expected type of argument argIndex of the named
// function, honoring the repeating-group arithmetic for indexes beyond
// the declared list.
func (r *Registry) ArgType(name string, argIndex int) (ArgType, bool) {
	spec, ok := r.Get(name)
	if !ok {
		return ArgAny, false
	}
	return spec.ArgTypeAt(argIndex)
}

// IsRangeArg reports whether argument argIndex of the named function
// expects a range.
func (r *Registry) IsRangeArg(name string, argIndex int) bool {
	t, ok := r.ArgType(name, argIndex)
	return ok && t == ArgRange
}

// ArgName returns the declared name of argument argIndex, cycling through
// the repeating group like ArgTypeAt. Returns "" when unknown.
func (r *Registry) ArgName(name string, argIndex int) string {
	spec, ok := r.Get(name)
	if !ok || argIndex < 0 || len(spec.Args) == 0 {
		return ""
	}
	if argIndex < len(spec.Args) {
		return spec.Args[argIndex].Name
	}
	start := spec.repeatingStart()
	if start < 0 {
		return ""
	}
	groupLen := len(spec.Args) - start
	return spec.Args[start+(argIndex-start)%groupLen].Name
}

func (r *Registry) ensureIndex() {
	if !r.dirty && r.sortedNames != nil {
		return
	}
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	r.sortedNames = names
	r.dirty = false
}

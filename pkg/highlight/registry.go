package highlight

import (
	"regexp"
	"sort"
	"strings"
)

var defPattern = regexp.MustCompile(`\bdef\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// FunctionRegistry is the set of user-defined function names discovered in a
// buffer. Names are only ever added: removing a definition from the buffer does
// not remove its name.
type FunctionRegistry struct {
	names map[string]struct{}
}

// NewFunctionRegistry creates an empty registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{names: make(map[string]struct{})}
}

// Scan records every function defined in text and returns the names that were new
func (r *FunctionRegistry) Scan(text string) []string {
	var added []string
	for _, m := range defPattern.FindAllStringSubmatch(text, -1) {
		if r.Add(m[1]) {
			added = append(added, m[1])
		}
	}
	return added
}

// Add records a name and reports whether it was new
func (r *FunctionRegistry) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, ok := r.names[name]; ok {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

// Has reports whether name is registered
func (r *FunctionRegistry) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Names returns the registered names in sorted order
func (r *FunctionRegistry) Names() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered names
func (r *FunctionRegistry) Len() int {
	return len(r.names)
}

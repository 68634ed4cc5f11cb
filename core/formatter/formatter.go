// Package formatter provides the pluggable output formats of the command
// line: aligned tables, JSON and YAML. Rows are ordered key/value pairs so
// that column order follows declaration order.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/artpar/typeforge/core/schema"
)

// Row is one record of output.
type Row = schema.Pairs[any]

// Formatter converts rows to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatList formats a titled list of rows.
	FormatList(w io.Writer, title string, rows []Row, opts FormatOptions) error

	// FormatRecord formats a single row.
	FormatRecord(w io.Writer, title string, row Row, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns specifies which keys to include (nil = all).
	Columns []string

	// NoHeader disables the header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (json).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a registry holding the built-in formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
	r.Register(NewTableFormatter())
	r.Register(NewJSONFormatter())
	r.Register(NewYAMLFormatter())
	return r
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Lookup returns the formatter named name, or the default when name is
// empty.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if name == "" {
		r.mu.RLock()
		name = r.defaultFmt
		r.mu.RUnlock()
	}
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.List())
	}
	return f, nil
}

// SetDefault sets the default formatter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; !exists {
		return fmt.Errorf("formatter %q not registered", name)
	}

	r.defaultFmt = name
	return nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Lookup returns a formatter from the default registry.
func Lookup(name string) (Formatter, error) {
	return DefaultRegistry.Lookup(name)
}

// columns returns the requested columns, or the keys of the first row.
func columns(rows []Row, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Keys()
}

// project keeps the keys of row listed in cols, in cols order.
func project(row Row, cols []string) Row {
	if len(cols) == 0 {
		return row
	}
	out := make(Row, 0, len(cols))
	for _, c := range cols {
		if v, ok := row.Get(c); ok {
			out = append(out, schema.Pair[any]{Key: c, Value: v})
		}
	}
	return out
}

func projectAll(rows []Row, cols []string) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = project(row, cols)
	}
	return out
}

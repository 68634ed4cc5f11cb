package formatter

import (
	"encoding/json"
	"io"

	"github.com/artpar/typeforge/core/schema"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatList formats rows as a JSON document with a count.
func (f *JSONFormatter) FormatList(w io.Writer, title string, rows []Row, opts FormatOptions) error {
	data := projectAll(rows, opts.Columns)
	return f.encode(w, schema.Pairs[any]{
		{Key: "kind", Value: title},
		{Key: "count", Value: len(data)},
		{Key: "data", Value: data},
	}, opts.Compact)
}

// FormatRecord formats a single row as JSON.
func (f *JSONFormatter) FormatRecord(w io.Writer, title string, row Row, opts FormatOptions) error {
	var data any
	if row != nil {
		data = project(row, opts.Columns)
	}
	return f.encode(w, schema.Pairs[any]{
		{Key: "kind", Value: title},
		{Key: "data", Value: data},
	}, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]string{"error": err.Error()}, false)
}

func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

package formatter

import (
	"io"

	"github.com/artpar/typeforge/core/schema"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatList formats rows as a YAML document with a count.
func (f *YAMLFormatter) FormatList(w io.Writer, title string, rows []Row, opts FormatOptions) error {
	data := projectAll(rows, opts.Columns)
	return f.encode(w, schema.Pairs[any]{
		{Key: "kind", Value: title},
		{Key: "count", Value: len(data)},
		{Key: "data", Value: data},
	})
}

// FormatRecord formats a single row as YAML.
func (f *YAMLFormatter) FormatRecord(w io.Writer, title string, row Row, opts FormatOptions) error {
	var data any
	if row != nil {
		data = project(row, opts.Columns)
	}
	return f.encode(w, schema.Pairs[any]{
		{Key: "kind", Value: title},
		{Key: "data", Value: data},
	})
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, map[string]string{"error": err.Error()})
}

func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

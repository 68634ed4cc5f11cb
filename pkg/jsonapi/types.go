// Package jsonapi renders the diagnostics surface as JSON:API documents
// (https://jsonapi.org). Only the parts the surface emits are modelled:
// primary data, errors, top-level meta and pagination links.
package jsonapi

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Resource types served by the diagnostics surface. Records of a live type
// use the type name itself.
const (
	KindType       = "types"
	KindElement    = "elements"
	KindProjection = "projections"
)

// Document is a top-level JSON:API document. Exactly one of Data and
// Errors is set; Meta alone is a valid status document.
type Document struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
	Meta   Meta    `json:"meta,omitempty"`
	Links  *Links  `json:"links,omitempty"`
}

// Resource is one resource object. Attributes is normally an ordered
// schema.Pairs so declaration order survives encoding.
type Resource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes any    `json:"attributes,omitempty"`
}

// Links are the navigation links of a paginated collection.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Meta is free-form metadata.
type Meta map[string]any

package jsonapi

import "net/http"

// One returns a document whose primary data is r.
func One(r Resource) Document {
	return Document{Data: r}
}

// Many returns a collection document. A nil slice still encodes as an
// empty array; p may be nil for unpaginated collections.
func Many(resources []Resource, p *Pagination) Document {
	if resources == nil {
		resources = []Resource{}
	}
	doc := Document{Data: resources}
	if p != nil {
		doc.Meta = p.Meta()
		doc.Links = p.Links()
	}
	return doc
}

// Status returns a data-less document carrying only meta.
func Status(meta Meta) Document {
	return Document{Meta: meta}
}

// Failure returns an error document. Without errors it reports an
// internal error.
func Failure(errs ...Error) Document {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}
	return Document{Errors: errs}
}

// status is the HTTP status a document is served with.
func (d Document) status() int {
	if len(d.Errors) == 0 {
		return http.StatusOK
	}
	if s := d.Errors[0].StatusCode(); s != 0 {
		return s
	}
	return http.StatusInternalServerError
}

package jsonapi

import (
	"net/http"
	"strconv"
)

// Error is a JSON:API error object.
type Error struct {
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource names the request part an error refers to.
type ErrorSource struct {
	Parameter string `json:"parameter,omitempty"`
}

// NewError returns an error object for status with a machine readable code.
// The title defaults to the HTTP status text.
func NewError(status int, code, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  http.StatusText(status),
		Detail: detail,
	}
}

// StatusCode returns the HTTP status of the error, 0 when unparsable.
func (e Error) StatusCode() int {
	n, err := strconv.Atoi(e.Status)
	if err != nil {
		return 0
	}
	return n
}

// WithParameter names the query parameter that caused the error.
func (e Error) WithParameter(param string) Error {
	e.Source = &ErrorSource{Parameter: param}
	return e
}

// ErrBadRequest returns a 400 error.
func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, "bad_request", detail)
}

// ErrNotFound returns a 404 error for a resource type.
func ErrNotFound(resourceType string) Error {
	return NewError(http.StatusNotFound, "not_found", resourceType+" not found")
}

// ErrUnprocessable returns a 422 error.
func ErrUnprocessable(detail string) Error {
	return NewError(http.StatusUnprocessableEntity, "unprocessable", detail)
}

// ErrUnavailable returns a 503 error.
func ErrUnavailable(detail string) Error {
	return NewError(http.StatusServiceUnavailable, "unavailable", detail)
}

// ErrInternal returns a 500 error.
func ErrInternal(detail string) Error {
	return NewError(http.StatusInternalServerError, "internal_error", detail)
}

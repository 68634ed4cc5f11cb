package jsonapi

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Write serves doc. Error documents take the status of their first error.
// The body is encoded before any header is sent, so a document that
// cannot be encoded becomes a 500 instead of a truncated 200.
func Write(w http.ResponseWriter, doc Document) {
	var buf bytes.Buffer
	status := doc.status()
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(Failure(ErrInternal("response encoding failed")))
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// WriteError serves an error document built from errs.
func WriteError(w http.ResponseWriter, errs ...Error) {
	Write(w, Failure(errs...))
}

// internal/platform/httpx/error.go
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Error is the JSON error body shared by every service.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"-"`
	Retryable bool   `json:"retryable,omitempty"`
	// Fallback is a link back to a valid listing for not-found responses.
	Fallback string `json:"fallback,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewError builds an Error.
func NewError(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// WithFallback returns a copy of e pointing at href.
func (e *Error) WithFallback(href string) *Error {
	cp := *e
	cp.Fallback = href
	return &cp
}

// AsRetryable returns a copy of e marked retryable.
func (e *Error) AsRetryable() *Error {
	cp := *e
	cp.Retryable = true
	return &cp
}

// WriteError renders err as {"error": {...}}.
func WriteError(w http.ResponseWriter, err *Error) {
	if err == nil {
		err = NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
	}
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, map[string]*Error{"error": err})
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) *Error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewError("invalid_request", "invalid request body: "+err.Error(), http.StatusBadRequest)
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose fields are all
// optional. An empty body leaves v at its zero value.
func DecodeOptionalJSON(r *http.Request, v any) *Error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return NewError("invalid_request", "invalid request body: "+err.Error(), http.StatusBadRequest)
	}
	return nil
}

// Package apierr carries HTTP-facing error values across the service
// boundary: services return them, the response layer turns them into
// error envelopes. Transport-level codes (invalid_body, invalid_id,
// unauthorized) are added by handlers at the edge instead.
package apierr

import (
	"fmt"
	"net/http"
)

// Codes the service layer emits.
const (
	CodeDocumentNotFound = "document_not_found"
	CodeEmptyMessage     = "empty_message"
	CodeDBError          = "db_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound is the single answer for absent and foreign-owned resources
// alike, so existence is not probeable across owners.
func NotFound(code string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code}
}

func BadRequest(code string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code}
}

// Database wraps a storage failure as an opaque 500; the cause stays
// attached for logs but never names tables to the client.
func Database(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeDBError, Err: err}
}

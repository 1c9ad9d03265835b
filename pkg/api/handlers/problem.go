// Package handlers provides HTTP handlers for the debuginfo ingest API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	problem := &Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// PreconditionFailed writes a 412 Precondition Failed problem response.
func PreconditionFailed(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusPreconditionFailed, "Precondition Failed", detail)
}

// Conflict writes a 409 Conflict problem response.
func Conflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, "Conflict", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCoordinatorError maps a coordinator error to the RFC 7807 response
// defined for it (see the error handling section of the design notes):
// InvalidArgument -> 400, FailedPrecondition -> 412, AlreadyExists -> 409,
// Internal -> 500. Any other error is treated as internal.
func WriteCoordinatorError(w http.ResponseWriter, err error) {
	ce, ok := err.(*debuginfo.CoordinatorError)
	if !ok {
		InternalServerError(w, err.Error())
		return
	}

	switch ce.Code {
	case debuginfo.ErrInvalidArgument:
		BadRequest(w, ce.Message)
	case debuginfo.ErrFailedPrecondition:
		PreconditionFailed(w, ce.Message)
	case debuginfo.ErrAlreadyExists:
		Conflict(w, ce.Message)
	default:
		InternalServerError(w, ce.Message)
	}
}

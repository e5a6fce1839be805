package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedArguments marks tool-call arguments that are not a
	// well-formed JSON object. Reported back to the model as a
	// tool-result error payload, never raised to the user.
	ErrMalformedArguments = errors.New("invalid arguments format")

	// ErrLoopBudgetExceeded marks an agent turn that exhausted its tool
	// rounds without producing an answer. The persisted history prefix
	// stays intact for retry.
	ErrLoopBudgetExceeded = errors.New("agent loop budget exceeded")

	// ErrOcrEmptyResult marks a page with no extractable text. Non-fatal:
	// an unreadable page degrades quality but must not abort ingestion.
	ErrOcrEmptyResult = errors.New("ocr produced no text")

	// ErrUnknownCapability marks a tool call naming a capability that is
	// not registered. Reported back to the model as an error payload.
	ErrUnknownCapability = errors.New("unknown capability")
)

// FetchError indicates a document download failed (network error or
// non-2xx response).
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnsupportedIntentError indicates the structured query translator was
// asked to express a predicate outside its fixed table.
type UnsupportedIntentError struct {
	Field string
}

func (e *UnsupportedIntentError) Error() string {
	return fmt.Sprintf("unsupported filter field: %s", e.Field)
}

// IngestionAbortError indicates a pipeline stage failed; the document is
// left unindexed with no partial chunk rows.
type IngestionAbortError struct {
	Stage string
	Err   error
}

func (e *IngestionAbortError) Error() string {
	return fmt.Sprintf("ingestion aborted at %s: %v", e.Stage, e.Err)
}

func (e *IngestionAbortError) Unwrap() error { return e.Err }

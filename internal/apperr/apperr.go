// Package apperr defines the error taxonomy shared by ingestion, storage,
// aggregation and extension sync.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding whether to retry and which
// status to report.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindStorage
	KindConnection
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindConnection:
		return "connection"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error codes carried in API error envelopes.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeInvalidQuery = "INVALID_QUERY"
	CodeStorage      = "STORAGE_FAILED"
	CodeConnection   = "EXTENSION_UNREACHABLE"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is an application error with a kind, a stable code and an optional cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail returns e with key set in its details map.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation reports malformed or missing input. Not retryable.
func Validation(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Cause: cause}
}

// InvalidQuery reports a malformed query parameter.
func InvalidQuery(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidQuery, Message: message, Cause: cause}
}

// Storage reports a persistence failure or timeout. The whole request may be retried.
func Storage(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Code: CodeStorage, Message: message, Cause: cause}
}

// Connection reports an unreachable extension after all retry attempts.
func Connection(message string, cause error) *Error {
	return &Error{Kind: KindConnection, Code: CodeConnection, Message: message, Cause: cause}
}

// NotFound reports a missing resource.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

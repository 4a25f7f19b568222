package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the service boundary. Each kind maps
// to a distinct reported status at the HTTP layer.
type ErrorKind string

const (
	// KindValidation marks bad or missing input the caller can fix.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindStorage marks a failed object-store operation.
	KindStorage ErrorKind = "storage"
	// KindTranscode marks failed image decoding or re-encoding.
	KindTranscode ErrorKind = "transcode"
	// KindPersistence marks a failed database operation.
	KindPersistence ErrorKind = "persistence"
	// KindConflict marks a unique-constraint collision that retry-as-fetch
	// could not resolve.
	KindConflict ErrorKind = "conflict"
	// KindUnauthorized marks missing or invalid credentials.
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is a kinded error carrying a human-readable message and an optional
// underlying cause. It participates in errors.Is/As chains via Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation error with the given message.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound returns a not-found error with the given message.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized returns an unauthorized error with the given message.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// StorageErr wraps an object-store failure.
func StorageErr(msg string, err error) error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// TranscodeErr wraps an image-processing failure.
func TranscodeErr(msg string, err error) error {
	return &Error{Kind: KindTranscode, Message: msg, Err: err}
}

// PersistenceErr wraps a database failure.
func PersistenceErr(msg string, err error) error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// ConflictErr wraps an unresolved unique-constraint collision.
func ConflictErr(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// KindOf extracts the ErrorKind from err, walking the wrap chain. Errors
// without a kind report KindPersistence only when they came from a store;
// callers that cannot tell get the empty kind.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Package apperrors classifies the failures a catalog operation can end in so
// that transports can map them without inspecting error strings.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure.
type Kind int

const (
	// KindStore is an unexpected persistence failure.
	KindStore Kind = iota
	// KindValidation is a client-fixable input problem.
	KindValidation
	// KindConflict is a duplicate product name.
	KindConflict
	// KindNotFound means the product does not exist.
	KindNotFound
	// KindTransport is a timeout or lost connection to a dependency.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "store"
	}
}

// Error is the failure half of every service result.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error to a response status. Store and transport
// failures share 500; the message and details tell them apart.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports rejected input together with every field-level message.
func Validation(details []string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Details: details}
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound reports a missing resource.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Transport wraps a timeout or connectivity failure.
func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// Store wraps an unexpected persistence failure.
func Store(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

// As extracts an *Error from err. Errors that are not classified are treated
// as store failures.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Store("Internal server error", err)
}

// KindOf returns the classification of err.
func KindOf(err error) Kind {
	return As(err).Kind
}

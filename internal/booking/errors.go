package booking

import (
	"errors"
	"fmt"
)

// Kind categorizes a booking failure. The set is closed: everything except
// KindValidation is a transient transport failure the scheduler may retry;
// KindValidation means the input can never succeed and the task is discarded.
type Kind string

const (
	KindConnection   Kind = "connection"
	KindTimeout      Kind = "timeout"
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindServerError  Kind = "server_error"
	KindGeneric      Kind = "generic"
	KindValidation   Kind = "validation"
)

// Error is the only error type the booking layers produce.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status that produced the error, 0 when the request
	// never completed (connection/timeout) or never happened (validation).
	Status int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the scheduler may re-attempt after this error.
func (e *Error) Retryable() bool { return e.Kind != KindValidation }

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func wrapError(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validationf builds a non-retryable validation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, or KindGeneric for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// IsValidation reports whether err is a non-retryable validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsRetryable reports whether the scheduler may re-attempt after err. Foreign
// errors (store hiccups, encoding issues) count as retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return true
}

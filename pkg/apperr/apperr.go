// Package apperr defines the typed business errors raised by services and
// translated into HTTP responses at the edge.
//
//	return apperr.NotFound("Order not found")
//	return apperr.Conflict(apperr.CodeInsufficientStock, "Insufficient stock for product %s", p.Name)
//
// Handlers never inspect messages; they call apperr.Status(err).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Stable machine-readable codes for the business rules callers branch on.
const (
	CodeInsufficientStock  = "insufficient_stock"
	CodeAmountMismatch     = "amount_mismatch"
	CodeDuplicateEmail     = "duplicate_email"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountInactive    = "account_inactive"
	CodeProductInUse       = "product_in_use"
)

// Error is a business error with a user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, "", format, args...)
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, "", format, args...)
}

// Auth reports bad credentials or an unusable account or token.
func Auth(code, format string, args ...any) *Error {
	return newf(KindAuth, code, format, args...)
}

// Conflict reports a violated business rule.
func Conflict(code, format string, args ...any) *Error {
	return newf(KindConflict, code, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HasCode reports whether err carries the given business code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Is reports whether err is a typed error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for err. Untyped errors collapse
// to a generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}

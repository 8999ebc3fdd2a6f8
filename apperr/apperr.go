// Package apperr defines the error taxonomy shared by services, middleware
// and handlers. Every condition a client can observe is a *Error with a Kind;
// handlers translate the Kind into an HTTP status and never expose the
// wrapped cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindForbidden
	KindPaymentRequired
	KindValidation
	KindConflict
	KindNotFound
	KindExternal
	KindIntegrity
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindPaymentRequired:
		return "payment_required"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external_service"
	case KindIntegrity:
		return "integrity"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a client-facing error. Message is safe to return in a response.
type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Wrap attaches a cause to a sentinel so errors.Is matches the sentinel while
// the cause stays available for logging.
func Wrap(sentinel *Error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Validation builds an ad hoc validation error with a client-facing message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Status maps err to the HTTP status a client sees.
func Status(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindValidation, KindConflict, KindIntegrity:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Errors outside the
// taxonomy collapse to a generic message.
func Message(err error) string {
	if e, ok := As(err); ok {
		return e.Message
	}
	return "internal server error"
}

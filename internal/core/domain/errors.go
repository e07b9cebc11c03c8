package domain

import (
	"errors"
	"strings"
)

// Kind classifies errors for the transport layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified domain error. Msg is safe to show to clients.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	ErrValidation  = newError(KindValidation, "validation failed")
	ErrInvalidRole = newError(KindValidation, "invalid role")

	ErrInvalidCredentials = newError(KindUnauthorized, "invalid credentials")
	ErrAccountDeactivated = newError(KindUnauthorized, "account is deactivated")
	ErrNoToken            = newError(KindUnauthorized, "no token provided")
	ErrInvalidToken       = newError(KindUnauthorized, "invalid or expired token")
	ErrUnauthenticated    = newError(KindUnauthorized, "authentication required")

	ErrForbidden      = newError(KindForbidden, "you do not have permission to access this resource")
	ErrSelfRoleChange = newError(KindForbidden, "you cannot change your own role")
	ErrSelfDelete     = newError(KindForbidden, "you cannot delete your own account")
	ErrSelfDeactivate = newError(KindForbidden, "you cannot change your own account status")

	ErrUserNotFound = newError(KindNotFound, "user not found")
	ErrUserExists   = newError(KindConflict, "user with this email already exists")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// PublicMessage returns the client-safe message of the first *Error in err's
// chain, or "" when err is not a domain error.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return ""
}

// FieldViolation describes one invalid input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field details. It classifies as
// KindValidation through its Unwrap.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Msg
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return ErrValidation.Msg + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

package apperrors

import (
	"errors"
)

// Kind groups errors by how a caller should react to them
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is an application error with a stable machine readable code
// Sentinels may have a parent, so errors.Is(ErrTokenExpired, ErrUnauthorized) is true
type Error struct {
	Kind Kind
	Code string

	// Per field messages, set for validation failures only
	Fields map[string]string

	msg    string
	parent *Error
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	for p := e; p != nil; p = p.parent {
		if p == t {
			return true
		}
	}
	return false
}

func newError(kind Kind, code string, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

func (e *Error) child(code string, msg string) *Error {
	return &Error{Kind: e.Kind, Code: code, msg: msg, parent: e}
}

var (
	ErrInternal = newError(KindInternal, "INTERNAL_SERVER_ERROR", "internal server error")

	ErrValidation = newError(KindValidation, "COMMON_VALIDATION_FAILED", "validation failed")
	ErrNoInput    = ErrValidation.child("COMMON_NO_INPUT", "no input provided")

	ErrNotFound     = newError(KindNotFound, "COMMON_NOT_FOUND", "not found")
	ErrUserNotFound = ErrNotFound.child("COMMON_NOT_FOUND", "user not found")

	ErrUnauthorized        = newError(KindUnauthorized, "AUTH_UNAUTHORIZED", "unauthorized")
	ErrTokenExpired        = ErrUnauthorized.child("AUTH_TOKEN_EXPIRED", "access token is expired")
	ErrRefreshTokenExpired = ErrUnauthorized.child("AUTH_REFRESH_TOKEN_EXPIRED", "refresh token is expired")
	ErrTokenInvalid        = ErrUnauthorized.child("AUTH_TOKEN_INVALID", "token is invalid")
	ErrCredentialsMismatch = ErrUnauthorized.child("AUTH_CREDENTIALS_MISMATCH", "invalid email or password")
	ErrSessionInvalidated  = ErrUnauthorized.child("AUTH_SESSION_INVALIDATED", "session is no longer valid")

	ErrForbidden = newError(KindForbidden, "AUTH_FORBIDDEN", "forbidden")

	ErrUserAlreadyExists = newError(KindConflict, "USER_ALREADY_EXISTS", "user already exists")

	ErrTooManyRequests = newError(KindTooManyRequests, "COMMON_TOO_MANY_REQUESTS", "too many requests")
)

// NewValidation returns validation error with messages keyed by field name
func NewValidation(msg string, fields map[string]string) error {
	e := ErrValidation.child(ErrValidation.Code, msg)
	e.Fields = fields
	return e
}

// KindOf returns kind of the first application error in chain or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns code of the first application error in chain or internal error code
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation  = errors.New("validation")
	ErrAuth        = errors.New("auth")
	ErrDomain      = errors.New("domain")
	ErrNotFound    = errors.New("not found")
	ErrUpstream    = errors.New("upstream")
	ErrPersistence = errors.New("persistence")
)

type AuthKind string

const (
	AuthMissing   AuthKind = "missing"
	AuthInvalid   AuthKind = "invalid"
	AuthExpired   AuthKind = "expired"
	AuthForbidden AuthKind = "forbidden"
)

// AuthError reports why a session token was rejected.
type AuthError struct {
	Kind AuthKind
	Msg  string
}

func (e *AuthError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "auth: " + string(e.Kind)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

func NewAuth(kind AuthKind, msg string) *AuthError {
	return &AuthError{Kind: kind, Msg: msg}
}

type DomainKind string

const (
	AdminCartForbidden DomainKind = "admin_cart_forbidden"
	CartNotFound       DomainKind = "cart_not_found"
	Conflict           DomainKind = "conflict"
)

// DomainError is a business-rule refusal.
type DomainError struct {
	Kind DomainKind
	Msg  string
}

func (e *DomainError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "domain: " + string(e.Kind)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

func NewDomain(kind DomainKind, msg string) *DomainError {
	return &DomainError{Kind: kind, Msg: msg}
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// IsDomainKind reports whether err is a DomainError of the given kind.
func IsDomainKind(err error, kind DomainKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

// Status maps an error to the HTTP status and the message safe to show a client.
// Unknown and persistence errors collapse to a generic 500.
func Status(err error) (int, string) {
	var ae *AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case AuthMissing, AuthForbidden:
			return http.StatusForbidden, ae.Error()
		default:
			return http.StatusUnauthorized, ae.Error()
		}
	}

	var de *DomainError
	if errors.As(err, &de) {
		switch de.Kind {
		case CartNotFound:
			return http.StatusNotFound, de.Error()
		case Conflict:
			return http.StatusBadRequest, de.Error()
		default:
			return http.StatusForbidden, de.Error()
		}
	}

	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, message(err, ErrValidation)
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, message(err, ErrNotFound)
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, "payment provider unavailable, please retry"
	}
	return http.StatusInternalServerError, "internal server error"
}

// message strips the sentinel prefix so "validation: items required" reads "items required".
func message(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

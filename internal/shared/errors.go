package shared

import "errors"

// Sentinel errors shared across modules. Handlers map these to HTTP statuses
// through platform/httpx.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidationFailed indicates a malformed request shape.
	ErrValidationFailed = errors.New("validation failed")
	// ErrForbidden indicates an authorization check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is the generic authentication failure. Every credential,
	// token and MFA failure wraps this so responses stay indistinguishable.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserSafeMessage returns a message safe to expose to API clients.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate entry"
	case errors.Is(err, ErrValidationFailed):
		return "validation failed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "authentication required"
	default:
		return "internal error"
	}
}

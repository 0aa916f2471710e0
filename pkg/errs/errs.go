package errs

import (
	"errors"
	"net/http"
)

// Sentinel errors for the request-facing failure categories. Callers wrap
// them with fmt.Errorf("...: %w", Err...) so errors.Is keeps working across
// package boundaries.
var (
	// ErrUnauthenticated means no verifiable identity accompanied the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the caller is authenticated but is not a
	// participant/author of the target resource. Responses built from this
	// error must not reveal whether the resource exists.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound means the referenced user, conversation or message does
	// not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means the input is malformed or out of bounds and
	// the caller can correct it.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransient means the store or network is temporarily unavailable.
	ErrTransient = errors.New("temporarily unavailable")
)

// HTTPStatus maps a taxonomy error to its response code. Unknown errors map
// to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

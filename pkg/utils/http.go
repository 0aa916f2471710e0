package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatsync/pkg/errs"
)

// JSONError writes a JSON error response with the given status code and
// message. It ensures the Content-Type is set to application/json.
func JSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONWrite writes the provided value as JSON with the given status code.
func JSONWrite(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}

// WriteTaxonomyError maps a taxonomy error to its status and a safe
// message. Unauthorized and NotFound deliberately share generic wording so
// non-participants cannot probe for conversation existence; InvalidArgument
// keeps the detailed message because it is user-correctable.
func WriteTaxonomyError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		JSONError(w, status, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		JSONError(w, status, "not authorized")
	case errors.Is(err, errs.ErrNotFound):
		JSONError(w, status, "not found")
	case errors.Is(err, errs.ErrUnauthenticated):
		JSONError(w, status, "unauthenticated")
	case errors.Is(err, errs.ErrTransient):
		JSONError(w, status, "temporarily unavailable")
	default:
		JSONError(w, status, "internal error")
	}
}

package handlers

import (
	"net/http"

	"chatsync/pkg/auth"
	"chatsync/pkg/utils"
)

// requireSubject pulls the verified subject from the request context. A
// missing subject means the signature middleware let a keyed caller
// through without a user identity; viewer-scoped endpoints still refuse.
func requireSubject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		utils.JSONError(w, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}
	return subject, true
}

// requireBackendRole gates the directory-sync surface to trusted callers.
func requireBackendRole(w http.ResponseWriter, r *http.Request) bool {
	role := r.Header.Get("X-Role-Name")
	if role != "backend" && role != "admin" {
		utils.JSONError(w, http.StatusForbidden, "backend role required")
		return false
	}
	return true
}

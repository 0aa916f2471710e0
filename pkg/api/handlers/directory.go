package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/directory"
	"chatsync/pkg/utils"
)

// RegisterDirectory registers the user-directory listing plus the
// backend-only sync webhook routes.
func RegisterDirectory(r *mux.Router) {
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/directory/sync", syncUser).Methods(http.MethodPost)
	r.HandleFunc("/directory/{subject}", deleteUser).Methods(http.MethodDelete)
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	out, err := directory.List(viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"users": out})
}

// syncUser handles POST /directory/sync, the webhook the identity provider
// calls on account creation and profile updates. Idempotent per subject.
func syncUser(w http.ResponseWriter, r *http.Request) {
	if !requireBackendRole(w, r) {
		return
	}
	var body struct {
		Subject   string `json:"subject"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := directory.SyncUpsert(body.Subject, body.Name, body.Email, body.AvatarURL)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}

func deleteUser(w http.ResponseWriter, r *http.Request) {
	if !requireBackendRole(w, r) {
		return
	}
	if err := directory.Delete(mux.Vars(r)["subject"]); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

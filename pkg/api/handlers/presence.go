package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/presence"
	"chatsync/pkg/utils"
)

// RegisterPresence registers heartbeat and explicit-offline routes.
func RegisterPresence(r *mux.Router) {
	r.HandleFunc("/presence/heartbeat", heartbeat).Methods(http.MethodPost)
	r.HandleFunc("/presence/offline", markOffline).Methods(http.MethodPost)
}

// heartbeat handles POST /presence/heartbeat. A subject the directory has
// not synced yet is reported as synced=false rather than an error, so
// clients keep beating through the signup window.
func heartbeat(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	synced, err := presence.Heartbeat(viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"synced": synced})
}

func markOffline(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := presence.MarkOffline(viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

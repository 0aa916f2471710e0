package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/typing"
	"chatsync/pkg/utils"
)

// RegisterTyping registers the typing-signal routes.
func RegisterTyping(r *mux.Router) {
	r.HandleFunc("/conversations/{id}/typing", setTyping).Methods(http.MethodPut)
	r.HandleFunc("/conversations/{id}/typing", clearTyping).Methods(http.MethodDelete)
	r.HandleFunc("/conversations/{id}/typing", getTyping).Methods(http.MethodGet)
}

func setTyping(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := typing.Set(mux.Vars(r)["id"], viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clearTyping(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := typing.Clear(mux.Vars(r)["id"], viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func getTyping(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	view, err := typing.ActiveTypists(mux.Vars(r)["id"], viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, view)
}

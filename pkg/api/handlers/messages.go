package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/messages"
	"chatsync/pkg/utils"
)

// RegisterMessages registers message routes, both conversation-scoped and
// message-id-scoped.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/conversations/{id}/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", listMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}/read", markRead).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}/reactions", toggleReaction).Methods(http.MethodPost)
	r.HandleFunc("/messages/{id}", deleteMessage).Methods(http.MethodDelete)
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := messages.Send(mux.Vars(r)["id"], viewer, body.Content)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, messages.ViewOf(m, viewer))
}

func listMessages(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	out, err := messages.List(mux.Vars(r)["id"], viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"messages": out})
}

func markRead(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := messages.MarkRead(mux.Vars(r)["id"], viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toggleReaction(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := messages.ToggleReaction(mux.Vars(r)["id"], viewer, body.Emoji)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, messages.ViewOf(m, viewer))
}

func deleteMessage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	if err := messages.Delete(mux.Vars(r)["id"], viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/conversations"
	"chatsync/pkg/messages"
	"chatsync/pkg/utils"
)

// RegisterConversations registers the conversation routes.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations", createDirect).Methods(http.MethodPost)
	r.HandleFunc("/conversations/group", createGroup).Methods(http.MethodPost)
	r.HandleFunc("/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}", getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/members", getGroupMembers).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/unread", getUnread).Methods(http.MethodGet)
}

// createDirect handles POST /conversations. Returns the existing
// conversation when one already links the pair, so retries and races are
// invisible to clients.
func createDirect(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var body struct {
		Participant string `json:"participant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := conversations.GetOrCreate(viewer, body.Participant)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	out, err := conversations.GetByID(c.ID, viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// createGroup handles POST /conversations/group. The caller is always a
// member; the body lists the other participants.
func createGroup(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	var body struct {
		Name         string   `json:"name"`
		Participants []string `json:"participants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := conversations.CreateGroup(viewer, body.Participants, body.Name)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	out, err := conversations.GetByID(c.ID, viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, out)
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	out, err := conversations.ListForViewer(viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"conversations": out})
}

func getConversation(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	out, err := conversations.GetByID(mux.Vars(r)["id"], viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

func getGroupMembers(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	members, err := conversations.GetGroupMembers(mux.Vars(r)["id"], viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"members": members})
}

func getUnread(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := conversations.RequireParticipant(id, viewer); err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	n, err := messages.UnreadCount(id, viewer)
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"unread": n})
}

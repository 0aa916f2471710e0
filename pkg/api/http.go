package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatsync/pkg/api/handlers"
	"chatsync/pkg/store"
	"chatsync/pkg/utils"
)

// Handler returns the full HTTP surface: versioned JSON endpoints under
// /v1, the health probe and the prometheus scrape endpoint. Perimeter and
// identity middleware are layered on top by the caller.
func Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/", rootHelp).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterConversations(v1)
	handlers.RegisterMessages(v1)
	handlers.RegisterTyping(v1)
	handlers.RegisterPresence(v1)
	handlers.RegisterDirectory(v1)
	handlers.RegisterSubscribe(v1)

	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	if !store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func rootHelp(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string][]string{
		"endpoints": {
			"POST /v1/conversations",
			"POST /v1/conversations/group",
			"GET  /v1/conversations",
			"GET  /v1/conversations/{id}",
			"POST /v1/conversations/{id}/messages",
			"GET  /v1/conversations/{id}/messages",
			"PUT  /v1/conversations/{id}/typing",
			"POST /v1/presence/heartbeat",
			"GET  /v1/users",
			"GET  /v1/subscribe",
		},
	})
}

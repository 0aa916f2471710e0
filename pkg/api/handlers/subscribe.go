package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatsync/pkg/conversations"
	"chatsync/pkg/directory"
	"chatsync/pkg/logger"
	"chatsync/pkg/messages"
	"chatsync/pkg/subscribe"
	"chatsync/pkg/typing"
	"chatsync/pkg/utils"
)

// RegisterSubscribe registers the websocket subscription gateway.
func RegisterSubscribe(r *mux.Router) {
	r.HandleFunc("/subscribe", subscribeWS).Methods(http.MethodGet)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS is enforced by the perimeter middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// frame is one push to the client: the fresh result of the subscribed
// query. Clients replace local state wholesale on every frame.
type frame struct {
	Query string      `json:"query"`
	Data  interface{} `json:"data"`
}

// subscribeWS handles GET /subscribe. The client names a declarative query
// (?query=conversations|messages|typing|users, plus ?conversation=<id>
// where relevant); the gateway sends the current result immediately and a
// fresh one after every change notification on the query's topics.
func subscribeWS(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireSubject(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		query = "conversations"
	}
	convID := r.URL.Query().Get("conversation")

	var run func() (interface{}, error)
	var topics []string
	switch query {
	case "conversations":
		run = func() (interface{}, error) { return conversations.ListForViewer(viewer) }
		topics = []string{subscribe.InboxTopic(viewer), subscribe.DirectoryTopic}
	case "messages":
		run = func() (interface{}, error) { return messages.List(convID, viewer) }
		topics = []string{subscribe.ConversationTopic(convID)}
	case "typing":
		run = func() (interface{}, error) { return typing.ActiveTypists(convID, viewer) }
		topics = []string{subscribe.ConversationTopic(convID)}
	case "users":
		run = func() (interface{}, error) { return directory.List(viewer) }
		topics = []string{subscribe.DirectoryTopic}
	default:
		utils.JSONError(w, http.StatusBadRequest, "unknown query")
		return
	}

	// Authorization runs inside the query itself, so probe it before
	// upgrading; a non-participant gets a plain HTTP error, not a socket.
	first, err := run()
	if err != nil {
		utils.WriteTaxonomyError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := subscribe.Subscribe(topics...)
	defer sub.Cancel()

	// Reader loop only detects client close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v interface{}) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame{Query: query, Data: v}); err != nil {
			return false
		}
		return true
	}
	if !send(first) {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case _, open := <-sub.C():
			if !open {
				return
			}
			v, err := run()
			if err != nil {
				logger.Log.Warn("subscription_query_failed", zap.String("query", query), zap.Error(err))
				continue
			}
			if !send(v) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the sync core. Registered on the default
// registry; cmd/chatsyncd exposes them on /metrics via promhttp.
var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_messages_sent_total",
		Help: "Messages accepted by the message store.",
	})
	ReadsMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_reads_marked_total",
		Help: "Read marks that changed state (idempotent repeats excluded).",
	})
	ReactionsToggled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_reactions_toggled_total",
		Help: "Reaction flips applied.",
	})
	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_presence_heartbeats_total",
		Help: "Presence heartbeats applied to user records.",
	})
	TypingSweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_typing_swept_rows_total",
		Help: "Stale typing rows removed by the janitor.",
	})
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatsync_active_subscriptions",
		Help: "Currently attached subscription streams.",
	})
)

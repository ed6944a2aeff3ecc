package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Room metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clique_rooms_active",
			Help: "Rooms currently held in memory",
		},
	)

	RoomsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clique_rooms_removed_total",
			Help: "Rooms removed after the grace period or evicted",
		},
	)

	MembersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clique_members_active",
			Help: "Members bound to a room",
		},
	)

	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clique_connections_active",
			Help: "Open websocket connections",
		},
	)

	// Event metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clique_events_total",
			Help: "Client events received",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clique_events_dropped_total",
			Help: "Client events dropped before reaching a room",
		},
		[]string{"reason"}, // "no_room", "rate_limit", "bad_payload", "anonymous"
	)

	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clique_frames_dropped_total",
			Help: "Outbound frames not queued because a client was too slow",
		},
	)

	ReconcileAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clique_reconcile_attempts",
			Help:    "Poll ticks needed before a joiner received the video time",
			Buckets: []float64{1, 2, 3, 5, 10, 30, 60},
		},
	)

	ReconcileStopped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clique_reconcile_stopped_total",
			Help: "Reconcilers that exited, by reason",
		},
		[]string{"reason"}, // "synced", "member_gone", "gave_up", "closed"
	)

	// Roster store metrics
	RosterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clique_roster_calls_total",
			Help: "Durable room store notifications",
		},
		[]string{"op", "result"}, // result: "ok", "error", "dropped"
	)

	RosterLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clique_roster_latency_seconds",
			Help:    "Durable room store call latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

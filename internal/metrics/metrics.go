package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MeetingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetings_created_total",
		Help: "Total number of meetings created",
	})

	MeetingsEndedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetings_ended_total",
		Help: "Total number of end-meeting calls accepted",
	})

	// Labels: result (joined/already_joined/full/not_found/conflict/error)
	JoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_joins_total",
			Help: "Join attempts by result",
		},
		[]string{"result"},
	)

	LeavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_leaves_total",
		Help: "Total number of active memberships closed",
	})

	JoinRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meeting_join_retries_total",
		Help: "Join attempts retried after a storage conflict",
	})

	// Labels: type (offer/answer/ice-candidate/...)
	SignalsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_sent_total",
			Help: "Signals stored by type",
		},
		[]string{"type"},
	)

	SignalsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signals_pruned_total",
		Help: "Signals deleted by retention pruning",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open websocket connections",
	})

	// Labels: route, method, status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

// knownSignalTypes bounds the label cardinality of SignalsSentTotal.
var knownSignalTypes = map[string]struct{}{
	"offer":         {},
	"answer":        {},
	"ice-candidate": {},
	"renegotiate":   {},
	"hangup":        {},
}

func RecordJoin(result string) {
	JoinsTotal.WithLabelValues(result).Inc()
}

func RecordSignal(signalType string) {
	if _, ok := knownSignalTypes[signalType]; !ok {
		signalType = "other"
	}
	SignalsSentTotal.WithLabelValues(signalType).Inc()
}

func RecordPruned(n int64) {
	if n > 0 {
		SignalsPrunedTotal.Add(float64(n))
	}
}

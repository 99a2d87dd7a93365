package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Vote, feed and comment Prometheus metrics.
var (
	VoteTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidex",
			Name:      "vote_transitions_total",
			Help:      "Committed vote transitions",
		},
		[]string{"kind"}, // ADDED / UPDATED / REMOVED
	)

	VoteConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidex",
			Name:      "vote_conflicts_total",
			Help:      "Vote compare-and-swap misses",
		},
		[]string{"outcome"}, // "retried" / "surfaced"
	)

	CounterReconcilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidex",
			Name:      "counter_reconciles_total",
			Help:      "Counter reconciliations by whether the stored counters had drifted",
		},
		[]string{"result"}, // "clean" / "repaired" / "conflict"
	)

	FeedQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "incidex",
			Name:      "feed_query_duration_seconds",
			Help:      "Feed query duration including author enrichment",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"sort"},
	)

	CommentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incidex",
			Name:      "comments_created_total",
			Help:      "Stored comments",
		},
		[]string{"kind"}, // "comment" / "reply"
	)

	FeedPageItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incidex",
			Name:      "feed_page_items",
			Help:      "Items returned per feed page",
			Buckets:   prometheus.LinearBuckets(0, 5, 5),
		},
	)
)

var registerEngineOnce sync.Once

// RegisterEngineMetrics registers vote, feed and comment metrics. Must be called once from main.
func RegisterEngineMetrics() {
	registerEngineOnce.Do(func() {
		prometheus.MustRegister(VoteTransitionsTotal)
		prometheus.MustRegister(VoteConflictsTotal)
		prometheus.MustRegister(CounterReconcilesTotal)
		prometheus.MustRegister(FeedQueryDuration)
		prometheus.MustRegister(FeedPageItems)
		prometheus.MustRegister(CommentsCreatedTotal)
	})
}

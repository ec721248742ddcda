// Package metrics exposes Prometheus metrics for the ladder engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Custom registry so /metrics stays free of default Go collector noise.
var registry = prometheus.NewRegistry()

var (
	rankApplications = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cueladder",
			Subsystem: "ladder",
			Name:      "rank_applications_total",
			Help:      "Results applied to the ladder, split by whether ranks shifted",
		},
		[]string{"shifted"},
	)

	challengesCreated = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "challenges_created_total",
		Help:      "Challenges accepted by the eligibility gate",
	})

	challengeTransitions = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cueladder",
			Subsystem: "ladder",
			Name:      "challenge_transitions_total",
			Help:      "Successful challenge state transitions by action",
		},
		[]string{"action"},
	)

	forfeitsSwept = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "forfeits_swept_total",
		Help:      "Challenges resolved by the housekeeping sweeper",
	})

	sweepDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one housekeeping sweep pass",
		Buckets:   prometheus.DefBuckets,
	})

	eventsEmitted = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cueladder",
			Subsystem: "ladder",
			Name:      "events_emitted_total",
			Help:      "Events handed to the outbound sinks by type",
		},
		[]string{"type"},
	)

	matchPointsScored = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "match_points_scored_total",
		Help:      "Points recorded on live matches",
	})

	activeLiveMatches = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "active_live_matches",
		Help:      "Live matches currently in play",
	})

	serializationRetries = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "cueladder",
		Subsystem: "ladder",
		Name:      "serialization_retries_total",
		Help:      "Transactions retried after a serialization conflict",
	})
)

// RecordRankApplication counts one applied result.
func RecordRankApplication(shifted bool) {
	label := "false"
	if shifted {
		label = "true"
	}
	rankApplications.WithLabelValues(label).Inc()
}

// RecordChallengeCreated counts one accepted challenge.
func RecordChallengeCreated() {
	challengesCreated.Inc()
}

// RecordChallengeTransition counts one successful transition.
func RecordChallengeTransition(action string) {
	challengeTransitions.WithLabelValues(action).Inc()
}

// RecordForfeitsSwept adds the challenges resolved in one sweep pass.
func RecordForfeitsSwept(n int) {
	forfeitsSwept.Add(float64(n))
}

// ObserveSweepDuration records how long a sweep pass took.
func ObserveSweepDuration(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}

// RecordEventEmitted counts one outbound event.
func RecordEventEmitted(eventType string) {
	eventsEmitted.WithLabelValues(eventType).Inc()
}

// RecordMatchPointScored counts one live-match point.
func RecordMatchPointScored() {
	matchPointsScored.Inc()
}

// IncActiveLiveMatches tracks a match going live.
func IncActiveLiveMatches() {
	activeLiveMatches.Inc()
}

// DecActiveLiveMatches tracks a match leaving play.
func DecActiveLiveMatches() {
	activeLiveMatches.Dec()
}

// RecordSerializationRetry counts one conflict-driven retry.
func RecordSerializationRetry() {
	serializationRetries.Inc()
}

// GetRegistry returns the registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return registry
}

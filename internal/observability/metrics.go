// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the simulation service.
type Metrics struct {
	// Round metrics
	RoundsStarted   prometheus.Counter
	RoundsCompleted *prometheus.CounterVec // status label
	RoundDuration   prometheus.Histogram
	RoundProgress   prometheus.Gauge

	// Agent metrics
	AgentsSimulated *prometheus.CounterVec // strategy, status labels
	AgentsKilled    *prometheus.CounterVec // reason label
	TradesRecorded  *prometheus.CounterVec // action label

	// Serving metrics
	JobsQueued          prometheus.Gauge
	ProgressSubscribers prometheus.Gauge

	// Health metrics
	LastCompletedRound prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "quant_arena"
	}

	return &Metrics{
		// Round metrics
		RoundsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "started_total",
			Help:      "Total number of simulation rounds started",
		}),
		RoundsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "completed_total",
			Help:      "Total number of simulation rounds finished, by status",
		}, []string{"status"}),
		RoundDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of one round",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		RoundProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "round",
			Name:      "progress_percent",
			Help:      "Tick progress of the round currently in flight, 0-100",
		}),

		// Agent metrics
		AgentsSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "simulated_total",
			Help:      "Total number of agent runs, by strategy and status",
		}, []string{"strategy", "status"}),
		AgentsKilled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "killed_total",
			Help:      "Total number of agents killed by risk checks, by reason",
		}, []string{"reason"}),
		TradesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "trades_total",
			Help:      "Total number of trade records produced, by action",
		}, []string{"action"}),

		// Serving metrics
		JobsQueued: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "jobs_queued",
			Help:      "Round jobs accepted and not yet finished",
		}),
		ProgressSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "progress_subscribers",
			Help:      "Connected progress WebSocket clients",
		}),

		// Health metrics
		LastCompletedRound: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_completed_round_timestamp",
			Help:      "Unix timestamp of the last round that reached a terminal state",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRoundStarted increments the started-rounds counter.
func RecordRoundStarted() {
	DefaultMetrics.RoundsStarted.Inc()
}

// RecordRoundFinished records one finished round.
func RecordRoundFinished(status string, durationSeconds float64, atUnix int64) {
	DefaultMetrics.RoundsCompleted.WithLabelValues(status).Inc()
	DefaultMetrics.RoundDuration.Observe(durationSeconds)
	DefaultMetrics.LastCompletedRound.Set(float64(atUnix))
}

// RecordAgentResult records one agent's terminal state.
func RecordAgentResult(strategy, status string) {
	DefaultMetrics.AgentsSimulated.WithLabelValues(strategy, status).Inc()
}

// RecordAgentKilled increments the kill counter for a reason.
func RecordAgentKilled(reason string) {
	DefaultMetrics.AgentsKilled.WithLabelValues(reason).Inc()
}

// RecordTrades adds n trade records for an action.
func RecordTrades(action string, n int) {
	DefaultMetrics.TradesRecorded.WithLabelValues(action).Add(float64(n))
}

// UpdateRoundProgress updates the in-flight progress gauge.
func UpdateRoundProgress(percent float64) {
	DefaultMetrics.RoundProgress.Set(percent)
}

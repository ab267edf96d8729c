// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Launch metrics
	LaunchesStarted  prometheus.Counter
	LaunchesTotal    *prometheus.CounterVec
	LaunchDuration   prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	OrphanedLaunches prometheus.Counter
	ActiveLaunches   prometheus.Gauge

	// Sequencer metrics
	TransactionsSubmitted prometheus.Counter
	TransactionsConfirmed prometheus.Counter
	TransactionFailures   *prometheus.CounterVec
	ConfirmationLatency   prometheus.Histogram

	// Upstream metrics
	RPCCallLatency    *prometheus.HistogramVec
	UploadsTotal      *prometheus.CounterVec
	PoolRequestsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulLaunch prometheus.Gauge
	RecoveryJournalSize  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the global default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_launchpad"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Launch metrics
		LaunchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "started_total",
			Help:      "Total number of launch attempts started",
		}),
		LaunchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "finished_total",
			Help:      "Total number of finished launch attempts by outcome and failing stage",
		}, []string{"outcome", "stage"}),
		LaunchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "duration_seconds",
			Help:      "End-to-end launch duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "stage_duration_seconds",
			Help:      "Launch stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		OrphanedLaunches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "orphaned_total",
			Help:      "Launches confirmed on-chain whose record could not be persisted",
		}),
		ActiveLaunches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "in_flight",
			Help:      "Number of launch attempts currently running",
		}),

		// Sequencer metrics
		TransactionsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequencer",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions signed and submitted",
		}),
		TransactionsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequencer",
			Name:      "transactions_confirmed_total",
			Help:      "Total number of transactions confirmed on-chain",
		}),
		TransactionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequencer",
			Name:      "transaction_failures_total",
			Help:      "Total number of transaction failures by reason",
		}, []string{"reason"}),
		ConfirmationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sequencer",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to confirmation in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}),

		// Upstream metrics
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "uploads_total",
			Help:      "Total number of asset and metadata uploads by kind and status",
		}, []string{"kind", "status"}),
		PoolRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "requests_total",
			Help:      "Total number of pool-creation requests by status",
		}, []string{"status"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulLaunch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_launch_timestamp",
			Help:      "Unix timestamp of last successful launch",
		}),
		RecoveryJournalSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "recovery_journal_entries",
			Help:      "Number of pending records waiting for manual recovery",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordLaunchStarted increments the started counter and in-flight gauge.
func RecordLaunchStarted() {
	DefaultMetrics.LaunchesStarted.Inc()
	DefaultMetrics.ActiveLaunches.Inc()
}

// RecordLaunchFinished records a terminal launch outcome.
// stage is empty for successful launches.
func RecordLaunchFinished(outcome, stage string, durationSeconds float64, unixNow int64) {
	DefaultMetrics.ActiveLaunches.Dec()
	DefaultMetrics.LaunchesTotal.WithLabelValues(outcome, stage).Inc()
	DefaultMetrics.LaunchDuration.Observe(durationSeconds)
	if outcome == "succeeded" {
		DefaultMetrics.LastSuccessfulLaunch.Set(float64(unixNow))
	}
	if outcome == "orphaned" {
		DefaultMetrics.OrphanedLaunches.Inc()
	}
}

// RecordStage records a launch stage duration.
func RecordStage(stage string, seconds float64) {
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordSubmitted increments the submitted transactions counter.
func RecordSubmitted() {
	DefaultMetrics.TransactionsSubmitted.Inc()
}

// RecordConfirmed records a confirmed transaction and its latency.
func RecordConfirmed(seconds float64) {
	DefaultMetrics.TransactionsConfirmed.Inc()
	DefaultMetrics.ConfirmationLatency.Observe(seconds)
}

// RecordTransactionFailure records a transaction failure.
func RecordTransactionFailure(reason string) {
	DefaultMetrics.TransactionFailures.WithLabelValues(reason).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordUpload records an asset or metadata upload.
func RecordUpload(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.UploadsTotal.WithLabelValues(kind, status).Inc()
}

// RecordPoolRequest records a pool-creation request.
func RecordPoolRequest(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.PoolRequestsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetRecoveryJournalSize updates the recovery journal gauge.
func SetRecoveryJournalSize(n int) {
	DefaultMetrics.RecoveryJournalSize.Set(float64(n))
}

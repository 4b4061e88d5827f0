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
	// Invocation metrics
	InvocationsTotal  *prometheus.CounterVec
	InvocationErrors  *prometheus.CounterVec
	InvocationLatency *prometheus.HistogramVec

	// Issuance metrics
	TokensCreated      prometheus.Counter
	MetadataSet        prometheus.Counter
	MintOperations     prometheus.Counter
	TokensMintedAmount prometheus.Counter
	FeesCollected      prometheus.Counter

	// State metrics
	StateVersion    prometheus.Gauge
	RegistrySize    prometheus.Gauge
	TreasuryBalance prometheus.Gauge

	// Feed metrics
	FeedClients         prometheus.Gauge
	FeedEventsBroadcast prometheus.Counter
	FeedEventsDropped   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_factory"
	}

	return &Metrics{
		// Invocation metrics
		InvocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "invocations_total",
			Help:      "Total number of submitted invocations by procedure and outcome",
		}, []string{"procedure", "outcome"}),
		InvocationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "invocation_errors_total",
			Help:      "Total number of rejected invocations by procedure and error kind",
		}, []string{"procedure", "kind"}),
		InvocationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "invocation_latency_seconds",
			Help:      "Invocation execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),

		// Issuance metrics
		TokensCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "tokens_created_total",
			Help:      "Total number of tokens issued",
		}),
		MetadataSet: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "metadata_set_total",
			Help:      "Total number of metadata transitions committed",
		}),
		MintOperations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "mint_operations_total",
			Help:      "Total number of committed mint_tokens invocations",
		}),
		TokensMintedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "tokens_minted_amount_total",
			Help:      "Total token amount minted post-issuance, smallest units",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "fees_collected_total",
			Help:      "Total fees credited to the treasury, smallest units",
		}),

		// State metrics
		StateVersion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "state_version",
			Help:      "Current factory state version",
		}),
		RegistrySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "registry_size",
			Help:      "Number of tokens in the registry",
		}),
		TreasuryBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "factory",
			Name:      "treasury_balance",
			Help:      "Collected fees held by the treasury, smallest units",
		}),

		// Feed metrics
		FeedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "clients",
			Help:      "Number of connected websocket subscribers",
		}),
		FeedEventsBroadcast: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_broadcast_total",
			Help:      "Total number of events broadcast to subscribers",
		}),
		FeedEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped on slow subscribers",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordInvocation records one submitted invocation. Outcome is "none" for
// success or the error kind label.
func RecordInvocation(procedure, outcome string, seconds float64) {
	DefaultMetrics.InvocationsTotal.WithLabelValues(procedure, outcome).Inc()
	DefaultMetrics.InvocationLatency.WithLabelValues(procedure).Observe(seconds)
	if outcome != "none" {
		DefaultMetrics.InvocationErrors.WithLabelValues(procedure, outcome).Inc()
	}
}

// RecordTokenCreated records a committed issuance.
func RecordTokenCreated(fee uint64) {
	DefaultMetrics.TokensCreated.Inc()
	DefaultMetrics.FeesCollected.Add(float64(fee))
}

// RecordMetadataSet records a committed metadata transition.
func RecordMetadataSet(fee uint64) {
	DefaultMetrics.MetadataSet.Inc()
	DefaultMetrics.FeesCollected.Add(float64(fee))
}

// RecordMint records a committed mint.
func RecordMint(amount, fee uint64) {
	DefaultMetrics.MintOperations.Inc()
	DefaultMetrics.TokensMintedAmount.Add(float64(amount))
	DefaultMetrics.FeesCollected.Add(float64(fee))
}

// UpdateFactoryState updates the factory state gauges.
func UpdateFactoryState(version uint64, registrySize int, treasuryBalance uint64) {
	DefaultMetrics.StateVersion.Set(float64(version))
	DefaultMetrics.RegistrySize.Set(float64(registrySize))
	DefaultMetrics.TreasuryBalance.Set(float64(treasuryBalance))
}

// UpdateFeedClients updates the connected subscriber gauge.
func UpdateFeedClients(n int) {
	DefaultMetrics.FeedClients.Set(float64(n))
}

// RecordFeedBroadcast records events delivered and dropped by the feed.
func RecordFeedBroadcast(delivered, dropped int) {
	DefaultMetrics.FeedEventsBroadcast.Add(float64(delivered))
	DefaultMetrics.FeedEventsDropped.Add(float64(dropped))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

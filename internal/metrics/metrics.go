// Package metrics provides the centralized Prometheus metrics registry for the reconciler.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "race_reconciler"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BetsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_settled_total",
		Help:      "Total number of bets settled, by resulting status",
	}, []string{"status"})
	BetsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bets_skipped_total",
		Help:      "Total number of bets left unsettled, by reason",
	}, []string{"reason"})
	LegsMatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "legs_matched_total",
		Help:      "Total number of bet legs matched to a runner, by matching tier",
	}, []string{"tier"})
	LegsUnresolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "legs_unresolved_total",
		Help:      "Total number of bet legs with no matching runner",
	})
	TracksUnresolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracks_unresolved_total",
		Help:      "Total number of track names that resolved to no course",
	})
	ProviderFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetches_total",
		Help:      "Total number of results fetches, by source and outcome",
	}, []string{"source", "outcome"})
	PayloadCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payload_cache_lookups_total",
		Help:      "Total number of payload cache lookups, by result",
	}, []string{"result"})
	EventPublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_errors_total",
		Help:      "Total number of settlement events that failed to publish",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of reconciliation runs, by outcome",
	}, []string{"outcome"})
)

// Gauge metrics
var (
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last reconciliation run finished",
	})
	LastRunBets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_bets",
		Help:      "Bet counts of the last reconciliation run, by summary field",
	}, []string{"field"})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of reconciliation runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	ProviderFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_fetch_latency_seconds",
		Help:      "Latency of results provider fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(BetsSettledTotal)
		registry.MustRegister(BetsSkippedTotal)
		registry.MustRegister(LegsMatchedTotal)
		registry.MustRegister(LegsUnresolvedTotal)
		registry.MustRegister(TracksUnresolvedTotal)
		registry.MustRegister(ProviderFetchesTotal)
		registry.MustRegister(PayloadCacheLookupsTotal)
		registry.MustRegister(EventPublishErrorsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(RunsTotal)

		// Register gauge metrics
		registry.MustRegister(LastRunTimestamp)
		registry.MustRegister(LastRunBets)

		// Register histogram metrics
		registry.MustRegister(RunDuration)
		registry.MustRegister(ProviderFetchLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBetSettled records a settled bet by status.
func RecordBetSettled(status string) {
	BetsSettledTotal.WithLabelValues(status).Inc()
}

// RecordBetSkipped records a bet left unsettled.
func RecordBetSkipped(reason string) {
	BetsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordLegMatched records a leg matched by tier.
func RecordLegMatched(tier string) {
	LegsMatchedTotal.WithLabelValues(tier).Inc()
}

// RecordLegUnresolved records a leg with no matching runner.
func RecordLegUnresolved() {
	LegsUnresolvedTotal.Inc()
}

// RecordTrackUnresolved records a track name with no course.
func RecordTrackUnresolved() {
	TracksUnresolvedTotal.Inc()
}

// RecordProviderFetch records a provider fetch and its latency.
func RecordProviderFetch(source, outcome string, latency time.Duration) {
	ProviderFetchesTotal.WithLabelValues(source, outcome).Inc()
	ProviderFetchLatency.Observe(latency.Seconds())
}

// RecordCacheLookup records a payload cache hit, miss or error.
func RecordCacheLookup(result string) {
	PayloadCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordEventPublishError records a failed settlement event.
func RecordEventPublishError() {
	EventPublishErrorsTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordRun records a finished run with its summary counts.
func RecordRun(outcome string, duration time.Duration, counts map[string]int) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(duration.Seconds())
	LastRunTimestamp.SetToCurrentTime()
	for field, n := range counts {
		LastRunBets.WithLabelValues(field).Set(float64(n))
	}
}

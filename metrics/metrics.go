package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LogoResolutions counts resolved logos by the source that produced them
	LogoResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvchannels_logo_resolutions_total",
		Help: "Total number of channel logo resolutions by source",
	}, []string{"source"})

	// LogoResolveDuration tracks how long a full logo resolution takes
	LogoResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tvchannels_logo_resolve_duration_seconds",
		Help:    "Time spent resolving a channel logo",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3, 6},
	})

	// LogoBackendErrors tracks remote backend failures by backend and reason
	LogoBackendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvchannels_logo_backend_errors_total",
		Help: "Total number of failed remote logo lookups",
	}, []string{"backend", "reason"})

	// CircuitBreakerState tracks the current state of circuit breakers
	// 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tvchannels_circuit_breaker_state",
		Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
	}, []string{"backend"})

	// CircuitBreakerTrips tracks how many times a circuit breaker transitioned to OPEN
	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvchannels_circuit_breaker_trips_total",
		Help: "Total number of times circuit breaker transitioned to OPEN state",
	}, []string{"backend"})

	// CatalogChannels tracks the number of channels in the catalog
	CatalogChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvchannels_catalog_channels",
		Help: "Number of channels in the catalog",
	})

	// CatalogSyncFailures tracks failed catalog syncs
	CatalogSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvchannels_catalog_sync_failures_total",
		Help: "Total number of failed catalog syncs",
	})

	// HealthCheckFailures tracks health check failures
	HealthCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvchannels_health_check_failures_total",
		Help: "Total number of health check failures",
	})
)

// RecordLogoResolution counts a resolution served from source and observes its duration
func RecordLogoResolution(source string, elapsed time.Duration) {
	LogoResolutions.WithLabelValues(source).Inc()
	LogoResolveDuration.Observe(elapsed.Seconds())
}

// RecordLogoBackendError increments the error counter for a backend and reason
func RecordLogoBackendError(backend, reason string) {
	LogoBackendErrors.WithLabelValues(backend, reason).Inc()
}

// SetCircuitBreakerState updates the circuit breaker state metric
// state should be one of: "CLOSED" (0), "OPEN" (1), "HALF-OPEN" (2)
func SetCircuitBreakerState(backend, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 0
	case "OPEN":
		value = 1
	case "HALF-OPEN":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(backend).Set(value)
}

// RecordCircuitBreakerTrip increments the circuit breaker trip counter
func RecordCircuitBreakerTrip(backend string) {
	CircuitBreakerTrips.WithLabelValues(backend).Inc()
}

// SetCatalogChannels sets the number of channels in the catalog
func SetCatalogChannels(count int) {
	CatalogChannels.Set(float64(count))
}

// RecordCatalogSyncFailure increments the catalog sync failure counter
func RecordCatalogSyncFailure() {
	CatalogSyncFailures.Inc()
}

// RecordHealthCheckFailure increments the health check failure counter
func RecordHealthCheckFailure() {
	HealthCheckFailures.Inc()
}

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcarbon_calculations_total",
			Help: "Total number of emission calculations",
		},
		[]string{"vehicle", "fuel"},
	)

	EmissionKg = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripcarbon_emission_kg",
			Help:    "Calculated trip emissions in kg CO2",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	MinimumChargesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripcarbon_minimum_charges_total",
			Help: "Calculations priced at the minimum compensation",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcarbon_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripcarbon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"route"},
	)

	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcarbon_grpc_requests_total",
			Help: "Total number of gRPC requests processed",
		},
		[]string{"method", "code"},
	)

	WizardTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripcarbon_wizard_transitions_total",
			Help: "Wizard steps reached",
		},
		[]string{"step"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripcarbon_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// RecordCalculation counts one calculation and observes its emission.
func RecordCalculation(vehicle, fuel string, emissionKg float64, minimumApplied bool) {
	CalculationsTotal.WithLabelValues(vehicle, fuel).Inc()
	EmissionKg.Observe(emissionKg)
	if minimumApplied {
		MinimumChargesTotal.Inc()
	}
}

// RecordHTTPRequest counts a finished request by route pattern and status.
func RecordHTTPRequest(route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordGRPCRequest counts a finished RPC.
func RecordGRPCRequest(method, code string) {
	GRPCRequestsTotal.WithLabelValues(method, code).Inc()
}

// RecordTransition counts a session arriving at step.
func RecordTransition(step string) {
	WizardTransitionsTotal.WithLabelValues(step).Inc()
}

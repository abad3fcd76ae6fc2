// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package metrics defines the Prometheus collectors exported by Forkcast.
//
// Collectors are package-level and registered via promauto, so importing
// any instrumented package is enough to expose its metrics on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session orchestrator metrics

	ScreenTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_screen_transitions_total",
			Help: "Total screen transitions by source and destination screen",
		},
		[]string{"from", "to"},
	)

	SearchesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_searches_total",
			Help: "Total restaurant searches issued, by origin (form or voice)",
		},
		[]string{"origin"},
	)

	StaleResultsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkcast_stale_results_discarded_total",
			Help: "Search resolutions discarded because a newer search superseded them",
		},
	)

	GuidedToursShown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkcast_guided_tours_shown_total",
			Help: "Guided tour activations (at most one per device)",
		},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkcast_bookings_created_total",
			Help: "Bookings created from result cards",
		},
	)

	DeliveryFilterToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_delivery_filter_toggles_total",
			Help: "Delivery-only filter toggles by resulting state",
		},
		[]string{"enabled"},
	)

	// Collaborator metrics

	CollabCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkcast_collab_call_duration_seconds",
			Help:    "Duration of external collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collaborator"},
	)

	CollabCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_collab_call_errors_total",
			Help: "External collaborator call failures",
		},
		[]string{"collaborator"},
	)

	// Circuit breaker metrics (search collaborator)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forkcast_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_circuit_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkcast_api_requests_total",
			Help: "Total API requests by endpoint, method, and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkcast_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)
)

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package collab

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/forkcast/internal/config"
	"github.com/tomtom215/forkcast/internal/logging"
	"github.com/tomtom215/forkcast/internal/metrics"
)

// BreakerSearcher wraps a RestaurantSearcher with a circuit breaker.
// Restaurant search is the only required collaborator call, and it fronts
// a slow generative backend; the breaker keeps a degraded backend from
// stacking up doomed in-flight searches.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should exercise the wrapped searcher directly rather than waiting
// out breaker state changes.
type BreakerSearcher struct {
	inner RestaurantSearcher
	cb    *gobreaker.CircuitBreaker[*SearchResponse]
	name  string
}

// NewBreakerSearcher wraps searcher with breaker settings from cfg.
// The circuit opens when the failure ratio meets cfg.BreakerFailureRatio
// over at least cfg.BreakerMinRequests requests, and retries after
// cfg.BreakerTimeout.
func NewBreakerSearcher(searcher RestaurantSearcher, cfg *config.CollabConfig) *BreakerSearcher {
	const cbName = "restaurant-search"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	minRequests := cfg.BreakerMinRequests
	if minRequests < 1 {
		minRequests = 1
	}

	cb := gobreaker.NewCircuitBreaker[*SearchResponse](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3, // concurrent probes allowed in half-open state
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(minRequests) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateString(from)).
				Str("to", stateString(to)).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerSearcher{inner: searcher, cb: cb, name: cbName}
}

// FindRestaurants executes the search through the breaker.
func (b *BreakerSearcher) FindRestaurants(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	resp, err := b.cb.Execute(func() (*SearchResponse, error) {
		return b.inner.FindRestaurants(ctx, req)
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}

	return resp, err
}

func stateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package supervisor

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// valueLogGC is the slice of the store needed for garbage collection.
type valueLogGC interface {
	RunValueLogGC() error
}

// GCService periodically runs badger value-log garbage collection.
// Badger never reclaims value-log space on its own; without this loop a
// long-lived session store grows unboundedly.
type GCService struct {
	store    valueLogGC
	interval time.Duration
	logger   zerolog.Logger
}

// NewGCService creates the GC loop. Interval defaults to 10 minutes.
func NewGCService(store valueLogGC, interval time.Duration, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: store, interval: interval, logger: logger}
}

// Serve implements suture.Service. badger.ErrNoRewrite means there was
// nothing worth collecting; that is the common case and not an error.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// One GC pass can free at most one value-log file, so loop
			// until badger reports nothing left to rewrite.
			for {
				err := g.store.RunValueLogGC()
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					g.logger.Warn().Err(err).Msg("value log gc failed")
					break
				}
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (g *GCService) String() string {
	return "badger-gc"
}

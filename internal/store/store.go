// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package store provides the durable per-device session store.
//
// Exactly three independent keys are persisted: the user identity, the
// palate profile, and the guided-tour flag. Each key is a standalone JSON
// value; there is no cross-key transactionality, and it is an expected
// state for one key to exist while another is absent (a logged-in user
// with no palate profile yet).
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/forkcast/internal/models"
)

// ErrNotFound is returned when a persisted key is absent.
var ErrNotFound = errors.New("store: key not found")

// Store is the durable session store consumed by the orchestrator.
// Implementations must make each single-key write atomic; no multi-key
// guarantees are required.
type Store interface {
	// User returns the persisted user identity, or ErrNotFound.
	User(ctx context.Context) (*models.User, error)

	// SetUser persists the user identity.
	SetUser(ctx context.Context, u *models.User) error

	// RemoveUser clears the persisted identity. Removing an absent key
	// is not an error.
	RemoveUser(ctx context.Context) error

	// Palate returns the persisted palate profile, or ErrNotFound.
	Palate(ctx context.Context) (*models.PalateProfile, error)

	// SetPalate persists the palate profile, replacing any prior one.
	SetPalate(ctx context.Context, p *models.PalateProfile) error

	// RemovePalate clears the persisted palate profile.
	RemovePalate(ctx context.Context) error

	// TourSeen reports whether the guided tour has been shown on this
	// device. Absent means false.
	TourSeen(ctx context.Context) (bool, error)

	// SetTourSeen persists the guided-tour flag.
	SetTourSeen(ctx context.Context, seen bool) error

	// Close releases underlying resources.
	Close() error
}

// Persisted key names. These are the only keys Forkcast writes.
const (
	keyUser     = "session:user"
	keyPalate   = "session:palate"
	keyTourSeen = "session:tour_seen"
)

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package models defines the core domain types shared across Forkcast:
// users, palate profiles, taste profiles (search requests), restaurants,
// bookings, and locations.
//
// The package has no dependencies on other internal packages so that the
// session orchestrator, the matching pipeline, the storage layer, and the
// API layer can all share these types without import cycles.
package models

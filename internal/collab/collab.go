// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package collab defines the external collaborator contracts the core
// depends on, and HTTP implementations against the generative-AI backend.
//
// The collaborators are deliberately opaque: Forkcast does not specify or
// re-rank what the search backend returns, and treats analysis, speech,
// and geocoding as remote functions with fixed input/output shapes.
package collab

import (
	"context"

	"github.com/tomtom215/forkcast/internal/models"
)

// SearchRequest carries the five inputs of a restaurant search. Palate,
// Location, and Photo may be absent; they are passed through as-is.
type SearchRequest struct {
	Profile  models.TasteProfile   `json:"profile"`
	Palate   *models.PalateProfile `json:"palate,omitempty"`
	Location *models.Location      `json:"location,omitempty"`
	Photo    []byte                `json:"photo,omitempty"`
	User     models.User           `json:"user"`
}

// SearchResponse is the search backend's reply. Restaurant order is the
// authoritative ranking and must not be re-sorted locally.
type SearchResponse struct {
	Restaurants []models.Restaurant `json:"restaurants"`
}

// Authenticator performs the trusted login handshake.
type Authenticator interface {
	Login(ctx context.Context, credential string) (*models.User, error)
}

// TasteAnalyzer converts swipe-game outcomes into a palate profile.
type TasteAnalyzer interface {
	AnalyzeTastePersonality(ctx context.Context, likes, dislikes []string) (*models.PalateProfile, error)
}

// RestaurantSearcher finds restaurants matching a search request.
type RestaurantSearcher interface {
	FindRestaurants(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SpeechSynthesizer speaks a message to the user. Fire-and-forget;
// callers ignore failures.
type SpeechSynthesizer interface {
	GenerateSpeech(ctx context.Context, text string) error
}

// Geocoder resolves coordinates to a city name. Failures are swallowed by
// callers; the city simply stays unset.
type Geocoder interface {
	CityName(ctx context.Context, lat, lng float64) (string, error)
}

// PositionSensor acquires the device position once. One-shot,
// asynchronous from the orchestrator's point of view, and allowed to fail
// silently. On a server deployment the real sensor lives on the device
// and reports through the position callback endpoint; see NoopSensor.
type PositionSensor interface {
	CurrentPosition(ctx context.Context) (*models.Location, error)
}

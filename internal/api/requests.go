// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/forkcast/internal/models"
)

// maxRequestBytes bounds request bodies. Profiles and bookings are tiny;
// anything larger is hostile or broken.
const maxRequestBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Credential string `json:"credential" validate:"required,min=1,max=4096"`
}

// GameOutcomeRequest is the body for POST /api/v1/session/game/complete.
// Likes and dislikes come straight from the swipe game; raw items are
// sanitized downstream, so only gross size bounds are enforced here.
type GameOutcomeRequest struct {
	Likes    []string `json:"likes" validate:"max=500,dive,max=200"`
	Dislikes []string `json:"dislikes" validate:"max=500,dive,max=200"`
}

// SearchSubmitRequest is the body for POST /api/v1/session/search. An
// all-empty profile is a valid "surprise me" search; nested field bounds
// still apply.
type SearchSubmitRequest struct {
	Profile models.TasteProfile `json:"profile"`
}

// VoiceSearchRequest is the body for POST /api/v1/session/search/voice.
type VoiceSearchRequest struct {
	Utterance string `json:"utterance" validate:"required,min=1,max=2000"`
}

// BookingRequest is the body for POST /api/v1/session/bookings.
type BookingRequest struct {
	RestaurantName string `json:"restaurant_name" validate:"required,min=1,max=300"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string `json:"time" validate:"required,datetime=15:04"`
	PartySize      int    `json:"party_size" validate:"required,min=1,max=50"`
}

// ViewSelectRequest is the body for PUT /api/v1/session/view.
type ViewSelectRequest struct {
	View string `json:"view" validate:"required,oneof=list map bookings"`
}

// DeliveryFilterRequest is the body for PUT /api/v1/session/filter/delivery.
type DeliveryFilterRequest struct {
	Enabled bool `json:"enabled"`
}

// PositionRequest is the body for POST /api/v1/session/position, the
// device's one-shot location report.
type PositionRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Returns a client-presentable error message on failure.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

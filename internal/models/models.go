// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package models

import (
	"strings"
	"time"
)

// User is the identity produced by the external login handshake.
// The fields are opaque to Forkcast beyond display and pass-through to
// the search collaborator.
type User struct {
	// ID is the opaque identifier assigned by the login provider.
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is optional and only used for display.
	Email string `json:"email,omitempty"`
}

// PalateProfile is the derived preference summary produced once per user
// from the swipe game outcomes. It is persisted across sessions and is
// only replaced by re-running the game.
type PalateProfile struct {
	// FlavorAffinities maps flavor names (spicy, umami, sweet, ...) to
	// affinity scores in [0,1].
	FlavorAffinities map[string]float64 `json:"flavor_affinities"`

	// TextureAffinities maps texture names (crispy, creamy, ...) to
	// affinity scores in [0,1].
	TextureAffinities map[string]float64 `json:"texture_affinities"`

	// CuisineAffinities maps cuisine names to affinity scores in [0,1].
	CuisineAffinities map[string]float64 `json:"cuisine_affinities"`

	// Summary is a short free-text description produced by the analysis
	// collaborator.
	Summary string `json:"summary,omitempty"`

	// AdventurousnessScore estimates willingness to try unfamiliar food.
	AdventurousnessScore float64 `json:"adventurousness_score,omitempty"`

	// CreatedAt records when the profile was derived.
	CreatedAt time.Time `json:"created_at"`
}

// TasteProfile is one search request's full set of dining preference
// parameters. It is authored per search (form or voice), never persisted,
// and discarded when the result set it produced is discarded.
type TasteProfile struct {
	DietaryPreferences []string `json:"dietary_preferences,omitempty"`
	Flavors            []string `json:"flavors,omitempty"`
	Textures           []string `json:"textures,omitempty"`
	Cuisines           []string `json:"cuisines,omitempty"`
	DesiredFeatures    []string `json:"desired_features,omitempty"`

	Atmosphere  string `json:"atmosphere,omitempty"`
	DiningTheme string `json:"dining_theme,omitempty"`

	// BudgetTier is a price band from 1 (cheapest) to 4.
	BudgetTier int `json:"budget_tier,omitempty" validate:"omitempty,min=1,max=4"`

	CustomNotes string `json:"custom_notes,omitempty" validate:"max=2000"`
	Occasion    string `json:"occasion,omitempty"`

	// MaxDistanceKM bounds how far results may be from the user.
	MaxDistanceKM float64 `json:"max_distance_km,omitempty" validate:"omitempty,gt=0,lte=500"`

	AgeGroup          string `json:"age_group,omitempty"`
	ComfortPreference string `json:"comfort_preference,omitempty"`
	HealthGoal        string `json:"health_goal,omitempty"`

	// SpiceTolerance ranges 0 (none) to 5 (extreme).
	SpiceTolerance int `json:"spice_tolerance,omitempty" validate:"min=0,max=5"`

	// IsHealthyScout switches the search collaborator into its
	// health-focused scouting mode.
	IsHealthyScout bool `json:"is_healthy_scout"`

	// OnlineOrderingOnly seeds the delivery-only result filter.
	OnlineOrderingOnly bool `json:"online_ordering_only"`
}

// Restaurant is a single result returned by the search collaborator.
// Results are immutable and replaced wholesale on every new search; the
// collaborator's ordering is the authoritative ranking.
type Restaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine,omitempty"`
	Description string  `json:"description,omitempty"`
	Address     string  `json:"address,omitempty"`
	PriceRange  string  `json:"price_range,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	MapsURL     string  `json:"maps_url,omitempty"`

	// MatchReason is the collaborator's explanation of why this result
	// fits the submitted taste profile.
	MatchReason string `json:"match_reason,omitempty"`

	// Delivery-platform links. Presence of any non-empty link marks the
	// restaurant delivery-capable; see DeliveryCapable.
	UberEatsURL  string `json:"uber_eats_url,omitempty"`
	DoorDashURL  string `json:"door_dash_url,omitempty"`
	GrubhubURL   string `json:"grubhub_url,omitempty"`
	PostmatesURL string `json:"postmates_url,omitempty"`

	// OrderURL is the restaurant's own online-ordering page.
	OrderURL string `json:"order_url,omitempty"`
}

// DeliveryCapable reports whether the restaurant exposes at least one
// non-empty delivery-platform link. Every known platform field is
// checked; a single populated field is sufficient.
func (r Restaurant) DeliveryCapable() bool {
	for _, link := range []string{
		r.UberEatsURL,
		r.DoorDashURL,
		r.GrubhubURL,
		r.PostmatesURL,
		r.OrderURL,
	} {
		if strings.TrimSpace(link) != "" {
			return true
		}
	}
	return false
}

// Booking is a user-created reservation record. Bookings are
// session-scoped, never mutated after creation, and accumulated most
// recent first.
type Booking struct {
	ID             string    `json:"id"`
	RestaurantName string    `json:"restaurant_name" validate:"required"`
	Date           string    `json:"date" validate:"required"`
	Time           string    `json:"time" validate:"required"`
	PartySize      int       `json:"party_size" validate:"required,min=1,max=50"`
	CreatedAt      time.Time `json:"created_at"`
}

// Location is a geographic coordinate pair obtained once per session from
// the position sensor. Read-only once obtained.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

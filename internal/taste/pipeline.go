// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package taste implements the taste-matching pipeline: palate derivation
// from swipe-game outcomes, restaurant matching through the search
// collaborator, and the client-side delivery-availability filter.
//
// The pipeline holds no state of its own. Ordering of search results is
// owned by the search collaborator and never altered here.
package taste

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/forkcast/internal/collab"
	"github.com/tomtom215/forkcast/internal/models"
)

// Pipeline coordinates the external analysis and search collaborators.
type Pipeline struct {
	analyzer collab.TasteAnalyzer
	searcher collab.RestaurantSearcher
	logger   zerolog.Logger
}

// New creates a pipeline over the given collaborators.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(analyzer collab.TasteAnalyzer, searcher collab.RestaurantSearcher, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		searcher: searcher,
		logger:   logger.With().Str("component", "taste").Logger(),
	}
}

// DerivePalate converts raw game outcomes into a palate profile via the
// analysis collaborator. Inputs are sanitized first: empty entries are
// dropped and duplicates removed. The game constructs likes and dislikes
// as non-overlapping sets, but overlap is tolerated here and passed
// through untouched; resolving the contradiction is the analyzer's job.
func (p *Pipeline) DerivePalate(ctx context.Context, likes, dislikes []string) (*models.PalateProfile, error) {
	likes = sanitizeItems(likes)
	dislikes = sanitizeItems(dislikes)

	palate, err := p.analyzer.AnalyzeTastePersonality(ctx, likes, dislikes)
	if err != nil {
		return nil, fmt.Errorf("analyze taste personality: %w", err)
	}

	p.logger.Debug().
		Int("likes", len(likes)).
		Int("dislikes", len(dislikes)).
		Msg("palate derived")

	return palate, nil
}

// MatchRestaurants submits one search to the search collaborator, passing
// through all five inputs. Palate, location, and photo may be absent and
// travel downstream as null without special-casing. The returned order is
// the authoritative ranking.
func (p *Pipeline) MatchRestaurants(
	ctx context.Context,
	profile models.TasteProfile,
	palate *models.PalateProfile,
	location *models.Location,
	photo []byte,
	user models.User,
) ([]models.Restaurant, error) {
	resp, err := p.searcher.FindRestaurants(ctx, collab.SearchRequest{
		Profile:  profile,
		Palate:   palate,
		Location: location,
		Photo:    photo,
		User:     user,
	})
	if err != nil {
		return nil, fmt.Errorf("find restaurants: %w", err)
	}

	p.logger.Debug().
		Int("results", len(resp.Restaurants)).
		Bool("healthy_scout", profile.IsHealthyScout).
		Msg("search resolved")

	return resp.Restaurants, nil
}

// FilterDeliveryOnly retains only delivery-capable restaurants when
// enabled, preserving relative order. When disabled it is the identity
// function. The filter is pure: it never mutates its input and can be
// re-evaluated on every toggle without re-querying the collaborator.
func FilterDeliveryOnly(restaurants []models.Restaurant, enabled bool) []models.Restaurant {
	if !enabled {
		return restaurants
	}

	filtered := make([]models.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		if r.DeliveryCapable() {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// orderingTokens mark a voice utterance as a delivery intent.
var orderingTokens = []string{"order", "delivery", "online"}

// AdaptVoiceQuery converts a free-text voice utterance into a search
// profile. All structured fields keep their defaults; only two fields are
// derived from the utterance: CustomNotes carries the raw text, and
// OnlineOrderingOnly is set when the utterance mentions ordering,
// delivery, or online (case-insensitive). The adapted profile is
// submitted through the normal search transition; there is no separate
// downstream path for voice searches.
func AdaptVoiceQuery(utterance string) models.TasteProfile {
	lowered := strings.ToLower(utterance)

	ordering := false
	for _, token := range orderingTokens {
		if strings.Contains(lowered, token) {
			ordering = true
			break
		}
	}

	return models.TasteProfile{
		CustomNotes:        utterance,
		OnlineOrderingOnly: ordering,
	}
}

// sanitizeItems trims whitespace, drops empties, and deduplicates while
// preserving first-seen order.
func sanitizeItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}

	return out
}

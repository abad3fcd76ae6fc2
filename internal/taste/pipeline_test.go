// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package taste

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/forkcast/internal/collab"
	"github.com/tomtom215/forkcast/internal/models"
)

// mockAnalyzer records inputs and returns a canned palate.
type mockAnalyzer struct {
	likes    []string
	dislikes []string
	palate   *models.PalateProfile
	err      error
}

func (m *mockAnalyzer) AnalyzeTastePersonality(ctx context.Context, likes, dislikes []string) (*models.PalateProfile, error) {
	m.likes = likes
	m.dislikes = dislikes
	if m.err != nil {
		return nil, m.err
	}
	return m.palate, nil
}

// mockSearcher records the request and returns a canned response.
type mockSearcher struct {
	req  collab.SearchRequest
	resp *collab.SearchResponse
	err  error
}

func (m *mockSearcher) FindRestaurants(ctx context.Context, req collab.SearchRequest) (*collab.SearchResponse, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func newTestPipeline(a *mockAnalyzer, s *mockSearcher) *Pipeline {
	return New(a, s, zerolog.Nop())
}

func TestDerivePalateSanitizesInputs(t *testing.T) {
	analyzer := &mockAnalyzer{palate: &models.PalateProfile{Summary: "ok"}}
	p := newTestPipeline(analyzer, &mockSearcher{})

	// Duplicates, whitespace, empties, and like/dislike overlap must not
	// crash the pipeline; duplicates and empties are dropped, overlap is
	// passed through.
	likes := []string{"spicy", " spicy ", "", "grilled", "bland"}
	dislikes := []string{"bland", "bland", "  "}

	got, err := p.DerivePalate(context.Background(), likes, dislikes)
	if err != nil {
		t.Fatalf("DerivePalate: %v", err)
	}
	if got.Summary != "ok" {
		t.Errorf("palate = %+v", got)
	}

	if want := []string{"spicy", "grilled", "bland"}; !reflect.DeepEqual(analyzer.likes, want) {
		t.Errorf("analyzer saw likes %v, want %v", analyzer.likes, want)
	}
	if want := []string{"bland"}; !reflect.DeepEqual(analyzer.dislikes, want) {
		t.Errorf("analyzer saw dislikes %v, want %v", analyzer.dislikes, want)
	}
}

func TestDerivePalateAnalyzerError(t *testing.T) {
	analyzer := &mockAnalyzer{err: errors.New("model offline")}
	p := newTestPipeline(analyzer, &mockSearcher{})

	if _, err := p.DerivePalate(context.Background(), []string{"spicy"}, nil); err == nil {
		t.Error("DerivePalate should propagate analyzer errors")
	}
}

func TestMatchRestaurantsPassesAbsentInputs(t *testing.T) {
	searcher := &mockSearcher{resp: &collab.SearchResponse{Restaurants: []models.Restaurant{
		{ID: "b"}, {ID: "a"}, {ID: "c"},
	}}}
	p := newTestPipeline(&mockAnalyzer{}, searcher)

	user := models.User{ID: "u-1"}
	got, err := p.MatchRestaurants(context.Background(), models.TasteProfile{}, nil, nil, nil, user)
	if err != nil {
		t.Fatalf("MatchRestaurants: %v", err)
	}

	// Order is the collaborator's ranking; it must not be re-sorted.
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("result[%d] = %q, want %q", i, got[i].ID, id)
		}
	}

	if searcher.req.Palate != nil || searcher.req.Location != nil || searcher.req.Photo != nil {
		t.Errorf("absent inputs must pass through as nil: %+v", searcher.req)
	}
	if searcher.req.User.ID != "u-1" {
		t.Errorf("user = %+v", searcher.req.User)
	}
}

func TestFilterDeliveryOnly(t *testing.T) {
	restaurants := []models.Restaurant{
		{ID: "r1", GrubhubURL: "https://grubhub.example/r1"},
		{ID: "r2"},
		{ID: "r3", OrderURL: "https://r3.example/order"},
	}

	t.Run("disabled is identity", func(t *testing.T) {
		got := FilterDeliveryOnly(restaurants, false)
		if len(got) != 3 {
			t.Fatalf("got %d restaurants, want 3", len(got))
		}
	})

	t.Run("enabled keeps delivery-capable in order", func(t *testing.T) {
		got := FilterDeliveryOnly(restaurants, true)
		if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r3" {
			t.Fatalf("got %+v, want [r1 r3]", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once := FilterDeliveryOnly(restaurants, true)
		twice := FilterDeliveryOnly(once, true)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filter not idempotent: %+v vs %+v", once, twice)
		}
	})

	t.Run("toggle off then on restores equivalence", func(t *testing.T) {
		off := FilterDeliveryOnly(restaurants, false)
		on := FilterDeliveryOnly(off, true)
		want := FilterDeliveryOnly(restaurants, true)
		if !reflect.DeepEqual(on, want) {
			t.Errorf("toggle round trip mismatch: %+v vs %+v", on, want)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := make([]models.Restaurant, len(restaurants))
		copy(before, restaurants)
		_ = FilterDeliveryOnly(restaurants, true)
		if !reflect.DeepEqual(before, restaurants) {
			t.Error("input slice was mutated")
		}
	})
}

func TestAdaptVoiceQuery(t *testing.T) {
	tests := []struct {
		utterance    string
		wantOrdering bool
	}{
		{"order me something spicy nearby", true},
		{"find me a quiet place", false},
		{"I want DELIVERY tonight", true},
		{"can I order online", true},
		{"somewhere romantic on the border", true}, // "order" inside "border" still counts: containment, not word match
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := AdaptVoiceQuery(tt.utterance)
			if got.CustomNotes != tt.utterance {
				t.Errorf("CustomNotes = %q, want the literal utterance", got.CustomNotes)
			}
			if got.OnlineOrderingOnly != tt.wantOrdering {
				t.Errorf("OnlineOrderingOnly = %v, want %v", got.OnlineOrderingOnly, tt.wantOrdering)
			}
			// Structured fields stay at defaults.
			if len(got.Cuisines) != 0 || got.BudgetTier != 0 || got.IsHealthyScout {
				t.Errorf("structured fields not defaulted: %+v", got)
			}
		})
	}
}

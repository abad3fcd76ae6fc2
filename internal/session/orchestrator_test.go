// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/forkcast/internal/collab"
	"github.com/tomtom215/forkcast/internal/config"
	"github.com/tomtom215/forkcast/internal/models"
	"github.com/tomtom215/forkcast/internal/store"
	"github.com/tomtom215/forkcast/internal/taste"
)

// stubAuth returns a fixed user for any credential.
type stubAuth struct{ user models.User }

func (a *stubAuth) Login(ctx context.Context, credential string) (*models.User, error) {
	u := a.user
	return &u, nil
}

// stubAnalyzer echoes its inputs into a canned palate.
type stubAnalyzer struct {
	mu       sync.Mutex
	likes    []string
	dislikes []string
}

func (a *stubAnalyzer) AnalyzeTastePersonality(ctx context.Context, likes, dislikes []string) (*models.PalateProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.likes = likes
	a.dislikes = dislikes

	affinities := make(map[string]float64, len(likes))
	for _, l := range likes {
		affinities[l] = 1
	}
	return &models.PalateProfile{FlavorAffinities: affinities, Summary: "stub"}, nil
}

// searchCall is one pending search on a gateSearcher.
type searchCall struct {
	req   collab.SearchRequest
	reply chan searchReply
}

type searchReply struct {
	resp *collab.SearchResponse
	err  error
}

// gateSearcher blocks each search until the test releases it, enabling
// deterministic out-of-order resolution.
type gateSearcher struct {
	calls chan searchCall
}

func newGateSearcher() *gateSearcher {
	return &gateSearcher{calls: make(chan searchCall, 8)}
}

func (g *gateSearcher) FindRestaurants(ctx context.Context, req collab.SearchRequest) (*collab.SearchResponse, error) {
	call := searchCall{req: req, reply: make(chan searchReply)}
	g.calls <- call
	r := <-call.reply
	return r.resp, r.err
}

// instantSearcher resolves immediately with fixed restaurants.
type instantSearcher struct {
	mu        sync.Mutex
	resp      []models.Restaurant
	err       error
	callCount int
	lastReq   collab.SearchRequest
}

func (s *instantSearcher) FindRestaurants(ctx context.Context, req collab.SearchRequest) (*collab.SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &collab.SearchResponse{Restaurants: s.resp}, nil
}

func (s *instantSearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

// recordingSpeech captures spoken messages.
type recordingSpeech struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingSpeech) GenerateSpeech(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingSpeech) spoken() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

// stubGeocoder resolves every coordinate to a fixed city.
type stubGeocoder struct{ city string }

func (g *stubGeocoder) CityName(ctx context.Context, lat, lng float64) (string, error) {
	if g.city == "" {
		return "", errors.New("geocoder offline")
	}
	return g.city, nil
}

// testEnv bundles an orchestrator with its injectable collaborators.
type testEnv struct {
	orch     *Orchestrator
	store    store.Store
	searcher collab.RestaurantSearcher
	speech   *recordingSpeech
}

func newTestEnv(t *testing.T, searcher collab.RestaurantSearcher, st store.Store) *testEnv {
	t.Helper()

	if st == nil {
		st = store.NewMemoryStore()
	}
	speech := &recordingSpeech{}
	pipeline := taste.New(&stubAnalyzer{}, searcher, zerolog.Nop())

	orch, err := New(context.Background(), Options{
		Store:    st,
		Pipeline: pipeline,
		Auth:     &stubAuth{user: models.User{ID: "u-1", Name: "Dana"}},
		Speech:   speech,
		Geocoder: &stubGeocoder{city: "Lisbon"},
		Config:   config.SessionConfig{MaxBookings: 10, CongratsMessage: "found some!"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &testEnv{orch: orch, store: st, searcher: searcher, speech: speech}
}

// driveToReady walks login -> rules -> tutorial -> game -> ready.
func (e *testEnv) driveToReady(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if _, err := e.orch.Login(ctx, "token"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := e.orch.AcceptRules(ctx); err != nil {
		t.Fatalf("AcceptRules: %v", err)
	}
	if err := e.orch.StartGame(ctx); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := e.orch.CompleteGame(ctx, []string{"spicy", "grilled"}, []string{"bland"}); err != nil {
		t.Fatalf("CompleteGame: %v", err)
	}
	if got := e.orch.Snapshot().Screen; got != ScreenReady {
		t.Fatalf("screen = %s, want ready", got)
	}
}

// waitFor polls the snapshot until cond holds or the deadline expires.
func waitFor(t *testing.T, o *Orchestrator, cond func(Snapshot) bool) Snapshot {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.Snapshot()
		if cond(snap) {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached; last snapshot: %+v", o.Snapshot())
	return Snapshot{}
}

func TestJourneyHappyPath(t *testing.T) {
	searcher := &instantSearcher{resp: []models.Restaurant{{ID: "r1", Name: "Ember & Oak"}}}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{Cuisines: []string{"thai"}}); err != nil {
		t.Fatalf("SubmitSearch: %v", err)
	}

	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
	if len(snap.Results) != 1 || snap.Results[0].ID != "r1" {
		t.Errorf("results = %+v", snap.Results)
	}
}

func TestBackNavigationPriority(t *testing.T) {
	ctx := context.Background()

	// Each case drives the orchestrator to a state, fires one back
	// action, and asserts the resolved target per the priority rules.
	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv)
		want  Screen
	}{
		{
			name: "results goes to ready and discards results",
			setup: func(t *testing.T, env *testEnv) {
				env.driveToReady(t)
				if err := env.orch.SubmitSearch(ctx, models.TasteProfile{}); err != nil {
					t.Fatal(err)
				}
				waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
			},
			want: ScreenReady,
		},
		{
			name: "game goes to tutorial even with a palate profile",
			setup: func(t *testing.T, env *testEnv) {
				env.driveToReady(t)
				// Re-enter the game via back from ready; the user now has
				// a palate profile but must still exit via tutorial.
				if _, err := env.orch.Back(ctx); err != nil {
					t.Fatal(err)
				}
			},
			want: ScreenTutorial,
		},
		{
			name: "tutorial goes to rules",
			setup: func(t *testing.T, env *testEnv) {
				if _, err := env.orch.Login(ctx, "token"); err != nil {
					t.Fatal(err)
				}
				if err := env.orch.AcceptRules(ctx); err != nil {
					t.Fatal(err)
				}
			},
			want: ScreenRules,
		},
		{
			name: "rules logs out and clears identity",
			setup: func(t *testing.T, env *testEnv) {
				if _, err := env.orch.Login(ctx, "token"); err != nil {
					t.Fatal(err)
				}
			},
			want: ScreenLoggedOut,
		},
		{
			name: "ready re-enters the game",
			setup: func(t *testing.T, env *testEnv) {
				env.driveToReady(t)
			},
			want: ScreenGame,
		},
		{
			name: "searching falls through to the game rule",
			setup: func(t *testing.T, env *testEnv) {
				env.driveToReady(t)
				// The gated searcher never resolves; the search stays in flight.
				if err := env.orch.SubmitSearch(ctx, models.TasteProfile{}); err != nil {
					t.Fatal(err)
				}
			},
			want: ScreenGame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var searcher collab.RestaurantSearcher = &instantSearcher{resp: []models.Restaurant{{ID: "r1"}}}
			if tt.name == "searching falls through to the game rule" {
				searcher = newGateSearcher()
			}
			env := newTestEnv(t, searcher, nil)
			tt.setup(t, env)

			got, err := env.orch.Back(ctx)
			if err != nil {
				t.Fatalf("Back: %v", err)
			}
			if got != tt.want {
				t.Errorf("Back() resolved to %s, want %s", got, tt.want)
			}

			snap := env.orch.Snapshot()
			if tt.want == ScreenReady && (len(snap.Results) != 0 || snap.TotalResults != 0) {
				t.Errorf("results not discarded: %+v", snap.Results)
			}
			if tt.want == ScreenLoggedOut {
				if snap.User != nil {
					t.Error("user not cleared on logout")
				}
				if _, err := env.store.User(ctx); !errors.Is(err, store.ErrNotFound) {
					t.Errorf("persisted identity not cleared: %v", err)
				}
			}
		})
	}
}

func TestStaleSearchResolutionDiscarded(t *testing.T) {
	ctx := context.Background()
	gate := newGateSearcher()
	env := newTestEnv(t, gate, nil)
	env.driveToReady(t)

	// Issue search A; it blocks inside the collaborator.
	if err := env.orch.SubmitSearch(ctx, models.TasteProfile{CustomNotes: "first"}); err != nil {
		t.Fatalf("SubmitSearch A: %v", err)
	}
	callA := <-gate.calls

	if got := env.orch.Snapshot().Screen; got != ScreenSearching {
		t.Fatalf("screen = %s, want searching before resolution", got)
	}

	// Issue search B while A is in flight; B supersedes A.
	if err := env.orch.SubmitSearch(ctx, models.TasteProfile{CustomNotes: "second"}); err != nil {
		t.Fatalf("SubmitSearch B: %v", err)
	}
	callB := <-gate.calls

	// Resolve B first: its results commit.
	callB.reply <- searchReply{resp: &collab.SearchResponse{Restaurants: []models.Restaurant{{ID: "from-b"}}}}
	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
	if len(snap.Results) != 1 || snap.Results[0].ID != "from-b" {
		t.Fatalf("results = %+v, want from-b", snap.Results)
	}

	// Now resolve A late: it must be discarded, not applied.
	callA.reply <- searchReply{resp: &collab.SearchResponse{Restaurants: []models.Restaurant{{ID: "from-a"}}}}
	time.Sleep(20 * time.Millisecond)

	snap = env.orch.Snapshot()
	if snap.Results[0].ID != "from-b" {
		t.Errorf("stale search overwrote results: %+v", snap.Results)
	}
}

func TestSearchFailureClearsLoading(t *testing.T) {
	searcher := &instantSearcher{err: errors.New("backend down")}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{}); err != nil {
		t.Fatalf("SubmitSearch: %v", err)
	}

	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
	if len(snap.Results) != 0 {
		t.Errorf("failed search left results: %+v", snap.Results)
	}
	if env.speech.spoken() != 0 {
		t.Error("speech emitted for a failed search")
	}
}

func TestSearchSpeaksOnNonEmptyResults(t *testing.T) {
	searcher := &instantSearcher{resp: []models.Restaurant{{ID: "r1"}}}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })

	deadline := time.Now().Add(time.Second)
	for env.speech.spoken() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if env.speech.spoken() != 1 {
		t.Errorf("spoken = %d, want 1", env.speech.spoken())
	}
}

func TestSearchRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t, &instantSearcher{}, nil)

	err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestGuidedTourShownOncePerDevice(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// First session: complete the game for the first time; tour shows.
	env := newTestEnv(t, &instantSearcher{}, st)
	env.driveToReady(t)
	if !env.orch.Snapshot().ShowTour {
		t.Fatal("tour not shown after first game completion")
	}
	env.orch.CompleteTour()

	// Second session on the same device: palate exists, flag set, no tour.
	env2 := newTestEnv(t, &instantSearcher{}, st)
	if _, err := env2.orch.Login(ctx, "token"); err != nil {
		t.Fatal(err)
	}
	if env2.orch.Snapshot().ShowTour {
		t.Error("tour shown again despite persisted flag")
	}
}

func TestGuidedTourOnLoginWithExistingPalate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// Seed a palate but no tour flag, as if the flag predates the tour
	// feature on this device.
	if err := st.SetPalate(ctx, &models.PalateProfile{Summary: "seeded"}); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, &instantSearcher{}, st)
	if _, err := env.orch.Login(ctx, "token"); err != nil {
		t.Fatal(err)
	}
	if !env.orch.Snapshot().ShowTour {
		t.Error("tour not shown on login with pre-existing palate and unset flag")
	}

	// A later game completion must not show it again.
	if err := env.orch.AcceptRules(ctx); err != nil {
		t.Fatal(err)
	}
	if err := env.orch.StartGame(ctx); err != nil {
		t.Fatal(err)
	}
	env.orch.CompleteTour()
	if err := env.orch.CompleteGame(ctx, []string{"sour"}, nil); err != nil {
		t.Fatal(err)
	}
	if env.orch.Snapshot().ShowTour {
		t.Error("tour shown a second time after game completion")
	}
}

func TestVoiceSearchUsesNormalPath(t *testing.T) {
	searcher := &instantSearcher{resp: []models.Restaurant{{ID: "r1", UberEatsURL: "u"}}}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitVoiceSearch(context.Background(), "order me something spicy nearby"); err != nil {
		t.Fatalf("SubmitVoiceSearch: %v", err)
	}

	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
	if !snap.DeliveryOnly {
		t.Error("voice delivery intent did not seed the delivery-only filter")
	}

	searcher.mu.Lock()
	profile := searcher.lastReq.Profile
	searcher.mu.Unlock()
	if profile.CustomNotes != "order me something spicy nearby" {
		t.Errorf("CustomNotes = %q", profile.CustomNotes)
	}
	if !profile.OnlineOrderingOnly {
		t.Error("OnlineOrderingOnly = false")
	}
}

func TestDeliveryFilterToggle(t *testing.T) {
	searcher := &instantSearcher{resp: []models.Restaurant{
		{ID: "item1", DoorDashURL: "d"},
		{ID: "item2"},
		{ID: "item3", OrderURL: "o"},
	}}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{IsHealthyScout: false}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })

	env.orch.SetDeliveryOnly(true)
	snap := env.orch.Snapshot()
	if len(snap.Results) != 2 || snap.Results[0].ID != "item1" || snap.Results[1].ID != "item3" {
		t.Fatalf("filtered results = %+v, want [item1 item3] in original order", snap.Results)
	}
	if snap.TotalResults != 3 {
		t.Errorf("TotalResults = %d, want 3 (filter must not mutate the set)", snap.TotalResults)
	}

	// Toggling off restores the full set without a re-query.
	calls := searcher.count()
	env.orch.SetDeliveryOnly(false)
	snap = env.orch.Snapshot()
	if len(snap.Results) != 3 {
		t.Errorf("unfiltered results = %d, want 3", len(snap.Results))
	}
	if searcher.count() != calls {
		t.Error("filter toggle re-queried the search collaborator")
	}
}

func TestBookingsPrependMostRecentFirst(t *testing.T) {
	searcher := &instantSearcher{resp: []models.Restaurant{{ID: "r1", Name: "Ember & Oak"}}}
	env := newTestEnv(t, searcher, nil)
	env.driveToReady(t)

	if err := env.orch.SubmitSearch(context.Background(), models.TasteProfile{}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })

	first, err := env.orch.Book(models.Booking{RestaurantName: "Ember & Oak", Date: "2026-09-01", Time: "19:00", PartySize: 2})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	second, err := env.orch.Book(models.Booking{RestaurantName: "Pho Real", Date: "2026-09-02", Time: "20:00", PartySize: 4})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	snap := env.orch.Snapshot()
	if len(snap.Bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(snap.Bookings))
	}
	if snap.Bookings[0].ID != second.ID || snap.Bookings[1].ID != first.ID {
		t.Error("bookings not ordered most recent first")
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("booking IDs not unique: %q %q", first.ID, second.ID)
	}
}

func TestSelectViewOnlyInReadyAndResults(t *testing.T) {
	env := newTestEnv(t, &instantSearcher{}, nil)

	if err := env.orch.SelectView(ViewMap); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SelectView while logged out: err = %v", err)
	}

	env.driveToReady(t)
	if err := env.orch.SelectView(ViewBookings); err != nil {
		t.Fatalf("SelectView: %v", err)
	}
	snap := env.orch.Snapshot()
	if snap.Screen != ScreenReady || snap.View != ViewBookings {
		t.Errorf("screen/view = %s/%s, want ready/bookings", snap.Screen, snap.View)
	}
}

func TestPositionObtainedOnce(t *testing.T) {
	env := newTestEnv(t, &instantSearcher{}, nil)
	env.driveToReady(t)

	env.orch.SetPosition(38.72, -9.14)
	env.orch.SetPosition(51.5, -0.12) // ignored; location is read-only once obtained

	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.City != "" })
	if snap.Location == nil || snap.Location.Lat != 38.72 {
		t.Errorf("location = %+v, want first report retained", snap.Location)
	}
	if snap.City != "Lisbon" {
		t.Errorf("city = %q", snap.City)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	env := newTestEnv(t, &instantSearcher{}, nil)

	ch, cancel := env.orch.Subscribe()
	defer cancel()

	if _, err := env.orch.Login(context.Background(), "token"); err != nil {
		t.Fatal(err)
	}

	select {
	case snap := <-ch:
		if snap.Screen != ScreenRules {
			t.Errorf("first snapshot screen = %s, want rules", snap.Screen)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered after login")
	}
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	searcher := &instantSearcher{resp: []models.Restaurant{
		{ID: "item1", GrubhubURL: "g"},
		{ID: "item2"},
		{ID: "item3", PostmatesURL: "p"},
	}}

	env := newTestEnv(t, searcher, st)
	env.driveToReady(t)

	// Palate persisted and returned unchanged after a process restart.
	persisted, err := st.Palate(ctx)
	if err != nil {
		t.Fatalf("persisted palate: %v", err)
	}
	restarted := newTestEnv(t, searcher, st)
	if !restarted.orch.Snapshot().HasPalate {
		t.Fatal("palate not hydrated after restart")
	}
	if persisted.Summary != "stub" || persisted.FlavorAffinities["spicy"] != 1 {
		t.Errorf("persisted palate = %+v", persisted)
	}

	// Search replaces the empty state.
	if err := env.orch.SubmitSearch(ctx, models.TasteProfile{IsHealthyScout: false}); err != nil {
		t.Fatal(err)
	}
	snap := waitFor(t, env.orch, func(s Snapshot) bool { return s.Screen == ScreenResults })
	if snap.TotalResults != 3 {
		t.Fatalf("results = %d, want 3", snap.TotalResults)
	}

	// Delivery filter keeps item1 and item3 in original relative order.
	env.orch.SetDeliveryOnly(true)
	snap = env.orch.Snapshot()
	if len(snap.Results) != 2 || snap.Results[0].ID != "item1" || snap.Results[1].ID != "item3" {
		t.Errorf("filtered = %+v, want [item1 item3]", snap.Results)
	}
}

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package session implements the session orchestrator: a finite-state
// controller over the user journey from login through onboarding, the
// swipe game, searching, results, and bookings.
//
// All events run to completion under one mutex. Suspending collaborator
// calls (palate derivation, restaurant search, geolocation, city lookup,
// speech) never hold the mutex; their resolutions re-enter as events and
// are committed only if still current. Searches carry a monotonically
// increasing token so a slow-resolving older search can never overwrite
// the result set of a newer one.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/forkcast/internal/collab"
	"github.com/tomtom215/forkcast/internal/config"
	"github.com/tomtom215/forkcast/internal/logging"
	"github.com/tomtom215/forkcast/internal/metrics"
	"github.com/tomtom215/forkcast/internal/models"
	"github.com/tomtom215/forkcast/internal/store"
	"github.com/tomtom215/forkcast/internal/taste"
)

var (
	// ErrNotAuthenticated is returned when an event requires a logged-in
	// user and none is present.
	ErrNotAuthenticated = errors.New("session: not authenticated")

	// ErrInvalidTransition is returned when an event is not valid from
	// the current screen.
	ErrInvalidTransition = errors.New("session: invalid transition")
)

// Snapshot is an immutable view of the session state, safe to hand to the
// API layer and to stream to subscribers. Results are already passed
// through the delivery-only filter when it is enabled.
type Snapshot struct {
	Screen       Screen              `json:"screen"`
	View         ViewMode            `json:"view"`
	User         *models.User        `json:"user,omitempty"`
	HasPalate    bool                `json:"has_palate"`
	Location     *models.Location    `json:"location,omitempty"`
	City         string              `json:"city,omitempty"`
	ShowTour     bool                `json:"show_tour"`
	DeliveryOnly bool                `json:"delivery_only"`
	Results      []models.Restaurant `json:"results"`
	TotalResults int                 `json:"total_results"`
	Bookings     []models.Booking    `json:"bookings"`
}

// Orchestrator owns the session state machine. Safe for concurrent use;
// events are serialized internally.
type Orchestrator struct {
	mu sync.Mutex

	store    store.Store
	pipeline *taste.Pipeline
	auth     collab.Authenticator
	speech   collab.SpeechSynthesizer
	geocoder collab.Geocoder
	sensor   collab.PositionSensor
	cfg      config.SessionConfig
	logger   zerolog.Logger

	screen Screen
	view   ViewMode

	user     *models.User
	palate   *models.PalateProfile
	location *models.Location
	city     string
	showTour bool

	activeProfile *models.TasteProfile
	results       []models.Restaurant
	deliveryOnly  bool
	searchToken   uint64

	bookings []models.Booking

	subscribers map[uint64]chan Snapshot
	nextSubID   uint64
}

// Options bundles the orchestrator's dependencies.
type Options struct {
	Store    store.Store
	Pipeline *taste.Pipeline
	Auth     collab.Authenticator
	Speech   collab.SpeechSynthesizer
	Geocoder collab.Geocoder
	Sensor   collab.PositionSensor
	Config   config.SessionConfig
}

// New creates an orchestrator and hydrates persisted state (palate
// profile and tour flag) from the store. The session always starts logged
// out; a persisted identity only becomes active after the next login
// handshake.
func New(ctx context.Context, opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("session: pipeline is required")
	}
	if opts.Config.MaxBookings < 1 {
		opts.Config.MaxBookings = 200
	}

	o := &Orchestrator{
		store:       opts.Store,
		pipeline:    opts.Pipeline,
		auth:        opts.Auth,
		speech:      opts.Speech,
		geocoder:    opts.Geocoder,
		sensor:      opts.Sensor,
		cfg:         opts.Config,
		logger:      logging.With().Str("component", "session").Logger(),
		screen:      ScreenLoggedOut,
		subscribers: make(map[uint64]chan Snapshot),
	}

	palate, err := opts.Store.Palate(ctx)
	switch {
	case err == nil:
		o.palate = palate
	case errors.Is(err, store.ErrNotFound):
		// First run on this device; expected.
	default:
		return nil, fmt.Errorf("hydrate palate: %w", err)
	}

	return o, nil
}

// Login runs the trusted login handshake, persists the identity, and
// moves to the rules screen. If a palate profile already exists on this
// device and the guided tour has not been shown, the tour is activated.
func (o *Orchestrator) Login(ctx context.Context, credential string) (*models.User, error) {
	if o.auth == nil {
		return nil, errors.New("session: no authenticator configured")
	}

	// Handshake suspends outside the lock.
	user, err := o.auth.Login(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("login handshake: %w", err)
	}

	o.mu.Lock()
	if o.screen != ScreenLoggedOut {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: login from %s", ErrInvalidTransition, o.screen)
	}

	o.user = user
	if err := o.store.SetUser(ctx, user); err != nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("persist identity: %w", err)
	}

	if o.palate != nil {
		o.maybeShowTourLocked(ctx)
	}

	o.transitionLocked(ScreenRules)
	o.mu.Unlock()

	// One-shot position acquisition; failure degrades silently.
	if o.sensor != nil {
		go o.acquirePosition()
	}

	return user, nil
}

// AcceptRules moves from rules to the tutorial.
func (o *Orchestrator) AcceptRules(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.screen != ScreenRules {
		return fmt.Errorf("%w: accept rules from %s", ErrInvalidTransition, o.screen)
	}
	o.transitionLocked(ScreenTutorial)
	return nil
}

// StartGame moves from the tutorial into the swipe game.
func (o *Orchestrator) StartGame(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.screen != ScreenTutorial {
		return fmt.Errorf("%w: start game from %s", ErrInvalidTransition, o.screen)
	}
	o.transitionLocked(ScreenGame)
	return nil
}

// CompleteGame derives the palate profile from the game outcomes,
// persists it, and moves to the ready screen. The derivation call
// suspends without holding the lock; if the user backs out of the game
// while it is in flight, the result resolves harmlessly and is dropped.
func (o *Orchestrator) CompleteGame(ctx context.Context, likes, dislikes []string) error {
	o.mu.Lock()
	if o.screen != ScreenGame {
		o.mu.Unlock()
		return fmt.Errorf("%w: complete game from %s", ErrInvalidTransition, o.screen)
	}
	o.mu.Unlock()

	palate, err := o.pipeline.DerivePalate(ctx, likes, dislikes)
	if err != nil {
		o.logger.Error().Err(err).Msg("palate derivation failed")
		return fmt.Errorf("derive palate: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.screen != ScreenGame {
		// The user navigated away while derivation was in flight.
		o.logger.Debug().Str("screen", o.screen.String()).Msg("palate derivation resolved off-screen, dropped")
		return nil
	}

	o.palate = palate
	if err := o.store.SetPalate(ctx, palate); err != nil {
		return fmt.Errorf("persist palate: %w", err)
	}

	o.maybeShowTourLocked(ctx)
	o.transitionLocked(ScreenReady)
	return nil
}

// SubmitSearch captures the taste profile as the active search, clears
// prior results, enters the searching state, and only then issues the
// asynchronous search call. A newer submission always supersedes an older
// in-flight one: the older resolution is discarded by token comparison.
func (o *Orchestrator) SubmitSearch(ctx context.Context, profile models.TasteProfile) error {
	return o.submitSearch(ctx, profile, "form")
}

// SubmitVoiceSearch adapts a voice utterance into a taste profile and
// submits it through the normal search transition.
func (o *Orchestrator) SubmitVoiceSearch(ctx context.Context, utterance string) error {
	return o.submitSearch(ctx, taste.AdaptVoiceQuery(utterance), "voice")
}

func (o *Orchestrator) submitSearch(ctx context.Context, profile models.TasteProfile, origin string) error {
	o.mu.Lock()

	if o.user == nil {
		o.mu.Unlock()
		return ErrNotAuthenticated
	}
	// A repeat submission while searching supersedes the in-flight one.
	if o.screen != ScreenReady && o.screen != ScreenSearching {
		o.mu.Unlock()
		return fmt.Errorf("%w: search from %s", ErrInvalidTransition, o.screen)
	}

	o.searchToken++
	token := o.searchToken
	o.activeProfile = &profile
	o.results = nil
	o.deliveryOnly = profile.OnlineOrderingOnly
	if o.screen != ScreenSearching {
		o.transitionLocked(ScreenSearching)
	}

	palate := o.palate
	location := o.location
	user := *o.user
	o.mu.Unlock()

	metrics.SearchesIssued.WithLabelValues(origin).Inc()

	// The searching state is fully established before the call is
	// issued; the resolution re-enters as an event keyed by token.
	go o.runSearch(token, profile, palate, location, user)
	return nil
}

// runSearch performs the suspended search call and commits its result if
// it is still the most recently issued search.
func (o *Orchestrator) runSearch(token uint64, profile models.TasteProfile, palate *models.PalateProfile, location *models.Location, user models.User) {
	restaurants, err := o.pipeline.MatchRestaurants(context.Background(), profile, palate, location, nil, user)

	o.mu.Lock()
	defer o.mu.Unlock()

	if token != o.searchToken {
		metrics.StaleResultsDiscarded.Inc()
		o.logger.Debug().
			Uint64("token", token).
			Uint64("latest", o.searchToken).
			Msg("stale search resolution discarded")
		return
	}
	if o.screen != ScreenSearching {
		// The user abandoned the search screen; resolve harmlessly into
		// a state that is never displayed.
		return
	}

	if err != nil {
		// Logged, loading cleared, result set left safely empty. No
		// automatic retry.
		o.logger.Error().Err(err).Msg("restaurant search failed")
		o.results = nil
		o.view = ViewList
		o.transitionLocked(ScreenResults)
		return
	}

	o.results = restaurants
	o.view = ViewList
	o.transitionLocked(ScreenResults)

	if len(restaurants) > 0 && o.speech != nil {
		msg := o.cfg.CongratsMessage
		// Fire and forget; speech failures never surface.
		go func() {
			if err := o.speech.GenerateSpeech(context.Background(), msg); err != nil {
				o.logger.Debug().Err(err).Msg("speech call failed")
			}
		}()
	}
}

// Back resolves the single overloaded back action to exactly one target,
// by the first matching rule in priority order:
//
//  1. results showing        -> ready (discard results and active profile)
//  2. game showing           -> tutorial
//  3. tutorial showing       -> rules
//  4. rules showing          -> logged out (clear persisted identity)
//  5. otherwise              -> game
//
// The ordering is a stack-less simulation of a navigation history and
// must be preserved exactly.
func (o *Orchestrator) Back(ctx context.Context) (Screen, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.screen == ScreenResults:
		o.results = nil
		o.activeProfile = nil
		o.deliveryOnly = false
		o.transitionLocked(ScreenReady)

	case o.screen == ScreenGame:
		o.transitionLocked(ScreenTutorial)

	case o.screen == ScreenTutorial:
		o.transitionLocked(ScreenRules)

	case o.screen == ScreenRules:
		if err := o.store.RemoveUser(ctx); err != nil {
			return o.screen, fmt.Errorf("clear identity: %w", err)
		}
		o.user = nil
		o.transitionLocked(ScreenLoggedOut)

	case o.screen == ScreenLoggedOut:
		// Nothing above the journey's entry point.

	default:
		// Ready or Searching with no higher-priority match re-enters the
		// game. A search left in flight resolves off-screen and is
		// dropped.
		o.activeProfile = nil
		o.results = nil
		o.transitionLocked(ScreenGame)
	}

	return o.screen, nil
}

// SelectView switches the bottom-nav sub-mode. Valid in the ready and
// results states only; the top-level state does not change.
func (o *Orchestrator) SelectView(view ViewMode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.screen != ScreenReady && o.screen != ScreenResults {
		return fmt.Errorf("%w: select view from %s", ErrInvalidTransition, o.screen)
	}

	o.view = view
	o.notifyLocked()
	return nil
}

// SetDeliveryOnly toggles the delivery-only filter. The filter is a pure
// re-evaluable function of the current result set; toggling never
// re-queries the search collaborator.
func (o *Orchestrator) SetDeliveryOnly(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.deliveryOnly = enabled
	metrics.DeliveryFilterToggles.WithLabelValues(strconv.FormatBool(enabled)).Inc()
	o.notifyLocked()
}

// Book creates a booking from a result card and prepends it to the
// session's booking list (most recent first). Bookings are session
// scoped and never persisted.
func (o *Orchestrator) Book(b models.Booking) (*models.Booking, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.user == nil {
		return nil, ErrNotAuthenticated
	}
	if o.screen != ScreenResults {
		return nil, fmt.Errorf("%w: book from %s", ErrInvalidTransition, o.screen)
	}

	b.ID = uuid.New().String()
	b.CreatedAt = time.Now().UTC()

	o.bookings = append([]models.Booking{b}, o.bookings...)
	if len(o.bookings) > o.cfg.MaxBookings {
		o.bookings = o.bookings[:o.cfg.MaxBookings]
	}

	metrics.BookingsCreated.Inc()
	o.logger.Info().Str("restaurant", b.RestaurantName).Msg("booking created")
	o.notifyLocked()
	return &b, nil
}

// CompleteTour dismisses the guided tour overlay.
func (o *Orchestrator) CompleteTour() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.showTour = false
	o.notifyLocked()
}

// SetPosition records the device position reported by the sensor
// callback. The location is obtained once per session and read-only
// afterward; later reports are ignored. A successful report kicks off
// the asynchronous city-name lookup.
func (o *Orchestrator) SetPosition(lat, lng float64) {
	o.mu.Lock()
	if o.location != nil {
		o.mu.Unlock()
		return
	}
	o.location = &models.Location{Lat: lat, Lng: lng}
	o.notifyLocked()
	o.mu.Unlock()

	if o.geocoder != nil {
		go o.resolveCity(lat, lng)
	}
}

// Snapshot returns the current session state. The result slice is a copy
// with the delivery-only filter applied when enabled, so the caller can
// never observe a result set mismatched with the active profile.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers a state-change subscriber. Every transition and
// sub-mode change delivers a fresh snapshot. Slow subscribers miss
// intermediate snapshots rather than blocking event processing.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	ch := make(chan Snapshot, 8)
	o.subscribers[id] = ch

	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subscribers[id]; ok {
			delete(o.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// acquirePosition runs the one-shot sensor read. Failures are swallowed;
// the session simply has no location.
func (o *Orchestrator) acquirePosition() {
	loc, err := o.sensor.CurrentPosition(context.Background())
	if err != nil || loc == nil {
		o.logger.Debug().Err(err).Msg("position unavailable")
		return
	}
	o.SetPosition(loc.Lat, loc.Lng)
}

// resolveCity runs the suspended city lookup. Failures are swallowed.
func (o *Orchestrator) resolveCity(lat, lng float64) {
	city, err := o.geocoder.CityName(context.Background(), lat, lng)
	if err != nil {
		o.logger.Debug().Err(err).Msg("city lookup failed")
		return
	}

	o.mu.Lock()
	o.city = city
	o.notifyLocked()
	o.mu.Unlock()
}

// maybeShowTourLocked activates the guided tour if it has never been
// shown on this device, and marks it seen so it can never activate
// again. Must be called with mu held.
func (o *Orchestrator) maybeShowTourLocked(ctx context.Context) {
	seen, err := o.store.TourSeen(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("tour flag read failed")
		return
	}
	if seen {
		return
	}

	o.showTour = true
	metrics.GuidedToursShown.Inc()
	if err := o.store.SetTourSeen(ctx, true); err != nil {
		o.logger.Warn().Err(err).Msg("tour flag write failed")
	}
}

// transitionLocked moves to a new screen, resetting the sub-mode, and
// notifies subscribers. Must be called with mu held.
func (o *Orchestrator) transitionLocked(to Screen) {
	from := o.screen
	o.screen = to
	if to != ScreenReady && to != ScreenResults {
		o.view = ViewList
	}

	metrics.ScreenTransitions.WithLabelValues(from.String(), to.String()).Inc()
	o.logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("screen transition")

	o.notifyLocked()
}

// notifyLocked delivers a snapshot to all subscribers without blocking.
// Must be called with mu held.
func (o *Orchestrator) notifyLocked() {
	if len(o.subscribers) == 0 {
		return
	}

	snap := o.snapshotLocked()
	for _, ch := range o.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// snapshotLocked builds a state snapshot. Must be called with mu held.
func (o *Orchestrator) snapshotLocked() Snapshot {
	results := taste.FilterDeliveryOnly(o.results, o.deliveryOnly)
	resultsCopy := make([]models.Restaurant, len(results))
	copy(resultsCopy, results)

	bookings := make([]models.Booking, len(o.bookings))
	copy(bookings, o.bookings)

	return Snapshot{
		Screen:       o.screen,
		View:         o.view,
		User:         o.user,
		HasPalate:    o.palate != nil,
		Location:     o.location,
		City:         o.city,
		ShowTour:     o.showTour,
		DeliveryOnly: o.deliveryOnly,
		Results:      resultsCopy,
		TotalResults: len(o.results),
		Bookings:     bookings,
	}
}

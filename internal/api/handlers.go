// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/forkcast/internal/logging"
	"github.com/tomtom215/forkcast/internal/models"
	"github.com/tomtom215/forkcast/internal/session"
)

// Handler implements the Forkcast HTTP endpoints over the session
// orchestrator.
type Handler struct {
	orch   *session.Orchestrator
	tokens *JWTManager
	ready  func() error
}

// NewHandler creates the endpoint handler. The ready func reports backend
// readiness for the /health/ready probe; nil means always ready.
func NewHandler(orch *session.Orchestrator, tokens *JWTManager, ready func() error) *Handler {
	return &Handler{orch: orch, tokens: tokens, ready: ready}
}

// LoginResponse is the payload returned by a successful login.
type LoginResponse struct {
	Token string           `json:"token"`
	User  *models.User     `json:"user"`
	State session.Snapshot `json:"state"`
}

// Login runs the trusted login handshake and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	user, err := h.orch.Login(r.Context(), req.Credential)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "already logged in")
			return
		}
		logging.Ctx(r.Context()).Warn().Err(err).Msg("login failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeExternalService, "login handshake failed")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Name)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "token generation failed")
		return
	}

	respondSuccess(w, r, LoginResponse{Token: token, User: user, State: h.orch.Snapshot()})
}

// State returns the current session snapshot.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.orch.Snapshot())
}

// AcceptRules advances from the rules screen to the tutorial.
func (h *Handler) AcceptRules(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.AcceptRules(r.Context()); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, h.orch.Snapshot())
}

// StartGame advances from the tutorial into the swipe game.
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StartGame(r.Context()); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, h.orch.Snapshot())
}

// CompleteGame submits the swipe outcomes, deriving and persisting the
// palate profile.
func (h *Handler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	var req GameOutcomeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	if err := h.orch.CompleteGame(r.Context(), req.Likes, req.Dislikes); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			h.respondSessionError(w, r, err)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("game completion failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeExternalService, "taste analysis failed")
		return
	}
	respondSuccess(w, r, h.orch.Snapshot())
}

// Search submits a taste profile search. The response reflects the
// searching state; results arrive via polling or the WebSocket stream.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchSubmitRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	if err := h.orch.SubmitSearch(r.Context(), req.Profile); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, APIResponse{Success: true, Data: h.orch.Snapshot()})
}

// VoiceSearch submits a raw voice utterance as a search.
func (h *Handler) VoiceSearch(w http.ResponseWriter, r *http.Request) {
	var req VoiceSearchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	if err := h.orch.SubmitVoiceSearch(r.Context(), req.Utterance); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusAccepted, APIResponse{Success: true, Data: h.orch.Snapshot()})
}

// Back fires the single overloaded back action.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orch.Back(r.Context()); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, h.orch.Snapshot())
}

// SelectView switches the bottom-nav sub-mode.
func (h *Handler) SelectView(w http.ResponseWriter, r *http.Request) {
	var req ViewSelectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	view, err := session.ParseViewMode(req.View)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}
	if err := h.orch.SelectView(view); err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondSuccess(w, r, h.orch.Snapshot())
}

// SetDeliveryFilter toggles the delivery-only results filter.
func (h *Handler) SetDeliveryFilter(w http.ResponseWriter, r *http.Request) {
	var req DeliveryFilterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	h.orch.SetDeliveryOnly(req.Enabled)
	respondSuccess(w, r, h.orch.Snapshot())
}

// CreateBooking books a restaurant from the current result set.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	booking, err := h.orch.Book(models.Booking{
		RestaurantName: req.RestaurantName,
		Date:           req.Date,
		Time:           req.Time,
		PartySize:      req.PartySize,
	})
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}
	respondCreated(w, r, booking)
}

// Bookings returns the session's bookings, most recent first.
func (h *Handler) Bookings(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.orch.Snapshot().Bookings)
}

// CompleteTour dismisses the guided tour overlay.
func (h *Handler) CompleteTour(w http.ResponseWriter, r *http.Request) {
	h.orch.CompleteTour()
	respondSuccess(w, r, h.orch.Snapshot())
}

// ReportPosition accepts the device's one-shot location report.
func (h *Handler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	h.orch.SetPosition(req.Lat, req.Lng)
	respondSuccess(w, r, h.orch.Snapshot())
}

// ResultsResponse is the payload for the results endpoint.
type ResultsResponse struct {
	Screen       session.Screen      `json:"screen"`
	DeliveryOnly bool                `json:"delivery_only"`
	Results      []models.Restaurant `json:"results"`
	TotalResults int                 `json:"total_results"`
}

// Results returns the current (filtered) result set without the rest of
// the session state.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	snap := h.orch.Snapshot()
	respondSuccess(w, r, ResultsResponse{
		Screen:       snap.Screen,
		DeliveryOnly: snap.DeliveryOnly,
		Results:      snap.Results,
		TotalResults: snap.TotalResults,
	})
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.ready != nil {
		if err := h.ready(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, r, code, APIResponse{Success: code == http.StatusOK, Data: map[string]string{"status": status}})
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]string{"status": "ok"})
}

// HealthReady reports readiness of the storage backend.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "not ready")
			return
		}
	}
	respondSuccess(w, r, map[string]string{"status": "ready"})
}

// respondSessionError maps orchestrator errors to HTTP status codes.
func (h *Handler) respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "not authenticated")
	case errors.Is(err, session.ErrInvalidTransition):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("session event failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface from the handler and middleware.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	tokens        *JWTManager
}

// NewRouter creates a router over the given handler.
func NewRouter(handler *Handler, mw *ChiMiddleware, tokens *JWTManager) *Router {
	return &Router{handler: handler, chiMiddleware: mw, tokens: tokens}
}

// Setup configures all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Use(router.chiMiddleware.Authenticate(router.tokens))

		r.Get("/", router.handler.State)
		r.Get("/results", router.handler.Results)
		r.Get("/ws", router.handler.StateStream)

		r.Post("/rules/accept", router.handler.AcceptRules)
		r.Post("/game/start", router.handler.StartGame)
		r.Post("/game/complete", router.handler.CompleteGame)

		r.Post("/search", router.handler.Search)
		r.Post("/search/voice", router.handler.VoiceSearch)

		r.Post("/back", router.handler.Back)
		r.Put("/view", router.handler.SelectView)
		r.Put("/filter/delivery", router.handler.SetDeliveryFilter)

		r.Post("/bookings", router.handler.CreateBooking)
		r.Get("/bookings", router.handler.Bookings)

		r.Post("/tour/complete", router.handler.CompleteTour)
		r.Post("/position", router.handler.ReportPosition)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

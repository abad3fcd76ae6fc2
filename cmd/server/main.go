// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package main is the entry point for the Forkcast server.
//
// Forkcast is a restaurant discovery backend built around a taste-matching
// pipeline: users play a swipe game to derive a palate profile, then search
// for restaurants matched against that profile by a generative-AI backend.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     FORKCAST_* environment variables)
//  2. Logging: zerolog, global logger
//  3. Storage: BadgerDB session store (in-memory when no path configured)
//  4. Collaborators: HTTP client for the backend, search wrapped in a
//     circuit breaker
//  5. Session orchestrator: hydrates the persisted palate profile
//  6. HTTP server and badger GC under a suture supervision tree
//
// # Configuration
//
// Key environment variables:
//   - FORKCAST_SERVER_PORT: listen port (default 8274)
//   - FORKCAST_SERVER_JWT_SECRET: 32+ character token signing secret;
//     generated at startup when empty (sessions do not survive restarts)
//   - FORKCAST_STORAGE_PATH: BadgerDB directory; empty = in-memory
//   - FORKCAST_COLLAB_BASE_URL: generative-AI backend URL
//   - FORKCAST_COLLAB_API_KEY: backend API key
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests drain, and the store closes.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/forkcast/internal/api"
	"github.com/tomtom215/forkcast/internal/collab"
	"github.com/tomtom215/forkcast/internal/config"
	"github.com/tomtom215/forkcast/internal/logging"
	"github.com/tomtom215/forkcast/internal/session"
	"github.com/tomtom215/forkcast/internal/store"
	"github.com/tomtom215/forkcast/internal/supervisor"
	"github.com/tomtom215/forkcast/internal/taste"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Str("storage_path", cfg.Storage.Path).
		Str("collab_base_url", cfg.Collab.BaseURL).
		Msg("Starting Forkcast")

	if cfg.Server.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to generate JWT secret")
		}
		cfg.Server.JWTSecret = secret
		logging.Warn().Msg("FORKCAST_SERVER_JWT_SECRET not set; generated an ephemeral secret, tokens will not survive restarts")
	}

	// Storage. Empty path selects the in-memory backend.
	var (
		sessionStore store.Store
		badgerStore  *store.BadgerStore
	)
	if cfg.Storage.Path == "" {
		logging.Warn().Msg("No storage path configured; using in-memory store")
		sessionStore = store.NewMemoryStore()
	} else {
		badgerStore, err = store.OpenBadger(cfg.Storage.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open session store")
		}
		sessionStore = badgerStore
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	// Collaborators: one HTTP client for the backend; the search call is
	// wrapped in a circuit breaker.
	client := collab.NewHTTPClient(&cfg.Collab)
	searcher := collab.NewBreakerSearcher(client, &cfg.Collab)
	pipeline := taste.New(client, searcher, logging.With().Str("component", "taste").Logger())

	orch, err := session.New(context.Background(), session.Options{
		Store:    sessionStore,
		Pipeline: pipeline,
		Auth:     client,
		Speech:   client,
		Geocoder: client,
		Sensor:   collab.NoopSensor{},
		Config:   cfg.Session,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session orchestrator")
	}

	tokens, err := api.NewJWTManager(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})

	ready := func() error { return nil }
	if badgerStore != nil {
		// Readiness is a cheap store round trip.
		ready = func() error {
			_, err := badgerStore.TourSeen(context.Background())
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return nil
		}
	}

	handler := api.NewHandler(orch, tokens, ready)
	router := api.NewRouter(handler, mw, tokens)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultConfig())
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.Timeout))
	if badgerStore != nil {
		tree.Add(supervisor.NewGCService(badgerStore, cfg.Storage.GCInterval,
			logging.With().Str("component", "badger-gc").Logger()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Forkcast listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree exited")
	}
	logging.Info().Msg("Forkcast stopped")
}

// randomSecret generates a 64-hex-character secret for signing tokens.
func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package collab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/forkcast/internal/config"
	"github.com/tomtom215/forkcast/internal/metrics"
	"github.com/tomtom215/forkcast/internal/models"
)

// ErrNoBackend is returned when no collaborator backend is configured.
var ErrNoBackend = errors.New("collab: no backend configured")

// maxResponseBytes bounds collaborator response bodies to keep a
// misbehaving backend from exhausting memory.
const maxResponseBytes = 8 << 20

// HTTPClient talks to the generative-AI backend over HTTP with JSON
// bodies. It implements Authenticator, TasteAnalyzer, RestaurantSearcher,
// SpeechSynthesizer, and Geocoder.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	search  *http.Client
}

// NewHTTPClient creates a collaborator client from configuration.
func NewHTTPClient(cfg *config.CollabConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		search:  &http.Client{Timeout: cfg.SearchTimeout},
	}
}

// Login performs the trusted login handshake, exchanging the client's
// provider credential for a user identity.
func (c *HTTPClient) Login(ctx context.Context, credential string) (*models.User, error) {
	var user models.User
	payload := map[string]string{"credential": credential}
	if err := c.postJSON(ctx, c.client, "/v1/login", payload, &user, "login"); err != nil {
		return nil, err
	}
	return &user, nil
}

// AnalyzeTastePersonality derives a palate profile from game outcomes.
func (c *HTTPClient) AnalyzeTastePersonality(ctx context.Context, likes, dislikes []string) (*models.PalateProfile, error) {
	payload := map[string][]string{"likes": likes, "dislikes": dislikes}
	var palate models.PalateProfile
	if err := c.postJSON(ctx, c.client, "/v1/analyze-taste", payload, &palate, "analyze"); err != nil {
		return nil, err
	}
	if palate.CreatedAt.IsZero() {
		palate.CreatedAt = time.Now().UTC()
	}
	return &palate, nil
}

// FindRestaurants submits a search request. The backend's ordering is
// returned untouched.
func (c *HTTPClient) FindRestaurants(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.postJSON(ctx, c.search, "/v1/find-restaurants", req, &resp, "search"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateSpeech asks the backend to speak text on the client.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, text string) error {
	payload := map[string]string{"text": text}
	return c.postJSON(ctx, c.client, "/v1/speech", payload, nil, "speech")
}

// CityName resolves coordinates to a city name.
func (c *HTTPClient) CityName(ctx context.Context, lat, lng float64) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoBackend
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	endpoint := c.baseURL + "/v1/city-name?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build city-name request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.CollabCallDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollabCallErrors.WithLabelValues("geocode").Inc()
		return "", fmt.Errorf("city-name call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CollabCallErrors.WithLabelValues("geocode").Inc()
		return "", fmt.Errorf("city-name call: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode city-name response: %w", err)
	}
	return body.City, nil
}

// postJSON posts a JSON payload and decodes the JSON response into out
// when out is non-nil.
func (c *HTTPClient) postJSON(ctx context.Context, client *http.Client, path string, payload, out any, name string) error {
	if c.baseURL == "" {
		return ErrNoBackend
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", name, err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := client.Do(req)
	metrics.CollabCallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollabCallErrors.WithLabelValues(name).Inc()
		return fmt.Errorf("%s call: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.CollabCallErrors.WithLabelValues(name).Inc()
		return fmt.Errorf("%s call: unexpected status %d", name, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// NoopSensor is a PositionSensor for deployments where the device sensor
// reports through the position callback endpoint instead of being polled.
// It always reports no position, which the orchestrator treats as a
// silent degradation.
type NoopSensor struct{}

// CurrentPosition always fails; the position arrives via callback.
func (NoopSensor) CurrentPosition(ctx context.Context) (*models.Location, error) {
	return nil, errors.New("collab: no device sensor attached")
}

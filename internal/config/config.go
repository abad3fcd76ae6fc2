// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

// Package config loads and validates Forkcast configuration.
//
// Configuration is layered: struct defaults, then an optional YAML file,
// then FORKCAST_-prefixed environment variables (highest priority).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/forkcast/config.yaml",
	"/etc/forkcast/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "FORKCAST_CONFIG_PATH"

// envPrefix is the prefix for environment variable overrides,
// e.g. FORKCAST_SERVER_PORT -> server.port.
const envPrefix = "FORKCAST_"

// Config is the root configuration for the Forkcast server.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Collab  CollabConfig  `koanf:"collab"`
	Session SessionConfig `koanf:"session"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// JWTSecret signs API tokens issued after the login handshake.
	// Required in production; a random secret is generated when empty.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL bounds the lifetime of issued API tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSAllowedOrigins for browser clients.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// StorageConfig configures the durable session store.
type StorageConfig struct {
	// Path is the BadgerDB directory. Empty selects in-memory storage
	// (tests and ephemeral deployments).
	Path string `koanf:"path"`

	// GCInterval is how often the badger value-log GC runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CollabConfig configures the external collaborator backends.
type CollabConfig struct {
	// BaseURL of the generative-AI backend serving analysis, search,
	// speech, and geocoding.
	BaseURL string `koanf:"base_url"`

	// APIKey sent as a bearer token to the backend.
	APIKey string `koanf:"api_key"`

	// Timeout for a single collaborator call.
	Timeout time.Duration `koanf:"timeout"`

	// SearchTimeout for the restaurant search call, which is slower
	// than the rest.
	SearchTimeout time.Duration `koanf:"search_timeout"`

	// Breaker settings for the search circuit breaker.
	BreakerMinRequests  int           `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// SessionConfig configures orchestrator behavior.
type SessionConfig struct {
	// MaxBookings caps the session-scoped booking list.
	MaxBookings int `koanf:"max_bookings"`

	// CongratsMessage is spoken when a search returns results.
	CongratsMessage string `koanf:"congrats_message"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8274,
			Timeout:         30 * time.Second,
			TokenTTL:        24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Storage: StorageConfig{
			Path:       "/data/forkcast",
			GCInterval: 10 * time.Minute,
		},
		Collab: CollabConfig{
			BaseURL:             "",
			Timeout:             10 * time.Second,
			SearchTimeout:       45 * time.Second,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      2 * time.Minute,
		},
		Session: SessionConfig{
			MaxBookings:     200,
			CongratsMessage: "Great news, I found some restaurants you are going to love!",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// FORKCAST_SERVER_PORT -> server.port
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, honoring
// the FORKCAST_CONFIG_PATH override.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransform maps FORKCAST_SECTION_SOME_KEY to section.some_key.
// Only the first underscore separates the section from the key; the key
// itself keeps its underscores.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	return parts[0] + "." + parts[1]
}

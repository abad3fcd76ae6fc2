// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/forkcast/internal/models"
)

// MemoryStore implements Store with an in-process map. State is lost on
// restart; intended for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// User returns the stored user identity.
func (s *MemoryStore) User(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.getJSON(keyUser, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUser stores the user identity.
func (s *MemoryStore) SetUser(ctx context.Context, u *models.User) error {
	return s.setJSON(keyUser, u)
}

// RemoveUser clears the stored identity.
func (s *MemoryStore) RemoveUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, keyUser)
	return nil
}

// Palate returns the stored palate profile.
func (s *MemoryStore) Palate(ctx context.Context) (*models.PalateProfile, error) {
	var p models.PalateProfile
	if err := s.getJSON(keyPalate, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPalate stores the palate profile.
func (s *MemoryStore) SetPalate(ctx context.Context, p *models.PalateProfile) error {
	return s.setJSON(keyPalate, p)
}

// RemovePalate clears the stored palate profile.
func (s *MemoryStore) RemovePalate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, keyPalate)
	return nil
}

// TourSeen reports whether the guided tour has been shown.
func (s *MemoryStore) TourSeen(ctx context.Context) (bool, error) {
	var seen bool
	err := s.getJSON(keyTourSeen, &seen)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return seen, nil
}

// SetTourSeen stores the guided-tour flag.
func (s *MemoryStore) SetTourSeen(ctx context.Context, seen bool) error {
	return s.setJSON(keyTourSeen, seen)
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) getJSON(key string, out any) error {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, out)
}

func (s *MemoryStore) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

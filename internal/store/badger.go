// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/forkcast/internal/models"
)

// BadgerStore implements Store using BadgerDB for durable storage.
// Suitable for production use with persistence across restarts.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB-backed store at path.
// An empty path opens an in-memory database, used by tests and
// ephemeral deployments.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts = opts.WithLogger(nil) // badger's own logger is too chatty; we log around it
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// User returns the persisted user identity.
func (s *BadgerStore) User(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.getJSON(keyUser, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUser persists the user identity.
func (s *BadgerStore) SetUser(ctx context.Context, u *models.User) error {
	return s.setJSON(keyUser, u)
}

// RemoveUser clears the persisted identity.
func (s *BadgerStore) RemoveUser(ctx context.Context) error {
	return s.remove(keyUser)
}

// Palate returns the persisted palate profile.
func (s *BadgerStore) Palate(ctx context.Context) (*models.PalateProfile, error) {
	var p models.PalateProfile
	if err := s.getJSON(keyPalate, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPalate persists the palate profile.
func (s *BadgerStore) SetPalate(ctx context.Context, p *models.PalateProfile) error {
	return s.setJSON(keyPalate, p)
}

// RemovePalate clears the persisted palate profile.
func (s *BadgerStore) RemovePalate(ctx context.Context) error {
	return s.remove(keyPalate)
}

// TourSeen reports whether the guided tour has been shown.
func (s *BadgerStore) TourSeen(ctx context.Context) (bool, error) {
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

// SetTourSeen persists the guided-tour flag.
func (s *BadgerStore) SetTourSeen(ctx context.Context, seen bool) error {
	return s.setJSON(keyTourSeen, seen)
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunValueLogGC runs one round of badger value-log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to collect; callers
// treat that as a clean no-op.
func (s *BadgerStore) RunValueLogGC() error {
	return s.db.RunValueLogGC(0.5)
}

// getJSON reads one key and unmarshals its JSON value into out.
func (s *BadgerStore) getJSON(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// setJSON marshals v and writes it under key in a single transaction.
func (s *BadgerStore) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// remove deletes a key. Deleting an absent key is not an error.
func (s *BadgerStore) remove(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// Swan-Z Style Engine - Personalization and Recommendation
// Copyright 2026 Swan-Z Style
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/swanz/styleengine

package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/swanz/styleengine/internal/metrics"
	"github.com/swanz/styleengine/internal/recommend"
)

// Key prefix for BadgerDB storage.
const profileKeyPrefix = "profile:"

// BadgerStore implements Store using BadgerDB for durable profile storage.
// The version check and write happen inside a single Update transaction, so
// the compare-and-swap is atomic even across processes sharing the DB.
type BadgerStore struct {
	db *badger.DB
}

var (
	_ Store                     = (*BadgerStore)(nil)
	_ recommend.ProfileProvider = (*BadgerStore)(nil)
)

// NewBadgerStore creates a BadgerDB-backed profile store. The caller owns
// the DB lifecycle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, userID string) (*recommend.StyleProfile, error) {
	var p recommend.StyleProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Put implements Store. The stored version is re-read inside the write
// transaction before committing.
func (s *BadgerStore) Put(_ context.Context, p *recommend.StyleProfile, expectedVersion int64) error {
	if p == nil || p.UserID == "" {
		return &recommend.InputError{Field: "profile", Reason: "must have a user id"}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	key := []byte(profileKeyPrefix + p.UserID)
	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if expectedVersion != 0 {
				return fmt.Errorf("user %s: expected version %d, profile absent: %w", p.UserID, expectedVersion, ErrVersionConflict)
			}
			created = true
		case err != nil:
			return fmt.Errorf("get profile: %w", err)
		default:
			var current recommend.StyleProfile
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &current)
			}); err != nil {
				return fmt.Errorf("unmarshal profile: %w", err)
			}
			if current.Version != expectedVersion {
				return fmt.Errorf("user %s: expected version %d, have %d: %w", p.UserID, expectedVersion, current.Version, ErrVersionConflict)
			}
		}

		return txn.Set(key, data)
	})
	if err == nil && created {
		metrics.ProfilesStored.Inc()
	}
	return err
}

// Delete implements Store. Deleting an absent profile is not an error.
func (s *BadgerStore) Delete(_ context.Context, userID string) error {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(profileKeyPrefix + userID)
		if _, err := txn.Get(key); err == nil {
			existed = true
		}
		err := txn.Delete(key)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete profile: %w", err)
		}
		return nil
	})
	if err == nil && existed {
		metrics.ProfilesStored.Dec()
	}
	return err
}

// All implements Store. Results are ordered by user ID for determinism.
func (s *BadgerStore) All(_ context.Context) ([]recommend.StyleProfile, error) {
	var out []recommend.StyleProfile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p recommend.StyleProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return fmt.Errorf("unmarshal profile: %w", err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Profile implements recommend.ProfileProvider. Absent profiles return
// (nil, nil); other storage errors propagate.
func (s *BadgerStore) Profile(ctx context.Context, userID string) (*recommend.StyleProfile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Profiles implements recommend.ProfileProvider.
func (s *BadgerStore) Profiles(ctx context.Context) ([]recommend.StyleProfile, error) {
	return s.All(ctx)
}

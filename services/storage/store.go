// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage persists finished trajectories to the local
// embedded store so games survive process restarts and batch runs can
// be scored after the fact.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/storage/badger"
)

// ErrNotFound is returned when no trajectory exists for a game id.
var ErrNotFound = errors.New("trajectory not found")

const trajectoryPrefix = "traj:"

// TrajectoryStore saves and loads trajectories by game id.
type TrajectoryStore struct {
	db *badger.DB
}

// NewTrajectoryStore wraps an opened database.
func NewTrajectoryStore(db *badger.DB) (*TrajectoryStore, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	return &TrajectoryStore{db: db}, nil
}

// Save writes a trajectory, overwriting any previous version for the
// same game id. The stored bytes are the canonical Marshal output, so
// Load returns exactly what Save was given.
func (s *TrajectoryStore) Save(ctx context.Context, t trajectory.Trajectory) error {
	if t.GameID == "" {
		return errors.New("trajectory has no game id")
	}
	data, err := trajectory.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trajectory %s: %w", t.GameID, err)
	}
	key := []byte(trajectoryPrefix + t.GameID)
	return s.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		return txn.Set(key, data)
	})
}

// Load reads the trajectory for a game id.
func (s *TrajectoryStore) Load(ctx context.Context, gameID string) (trajectory.Trajectory, error) {
	var data []byte
	key := []byte(trajectoryPrefix + gameID)
	err := s.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
			}
			return fmt.Errorf("get trajectory %s: %w", gameID, err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return trajectory.Trajectory{}, err
	}
	return trajectory.Unmarshal(data)
}

// List returns the game ids of all stored trajectories, sorted by key
// order (lexicographic on game id).
func (s *TrajectoryStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(trajectoryPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, trajectoryPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a stored trajectory. Deleting a missing id is not an
// error.
func (s *TrajectoryStore) Delete(ctx context.Context, gameID string) error {
	key := []byte(trajectoryPrefix + gameID)
	return s.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
}

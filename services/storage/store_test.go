// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/storage/badger"
)

func testStore(t *testing.T) *TrajectoryStore {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewTrajectoryStore(db)
	require.NoError(t, err)
	return store
}

func testTrajectory(t *testing.T, gameID string) trajectory.Trajectory {
	t.Helper()
	initial, err := hypothesis.New(hypothesis.Seed{
		Statement: "caffeine improves recall",
		Entities: []hypothesis.Entity{
			{ID: "caffeine", Kind: "compound"},
			{ID: "recall", Kind: "phenotype"},
		},
	})
	require.NoError(t, err)

	rec, err := trajectory.NewRecorder(gameID, initial)
	require.NoError(t, err)
	_, err = rec.Append(trajectory.MoveRecord{
		AgentRole:  "proposer",
		Operation:  "revise_statement",
		Accepted:   true,
		SnapshotID: "s1",
	})
	require.NoError(t, err)
	rec.Freeze("s1", "max_turns")
	return rec.Export()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	traj := testTrajectory(t, "g1")

	require.NoError(t, store.Save(ctx, traj))

	loaded, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, traj.GameID, loaded.GameID)
	assert.Equal(t, traj.Initial.ID, loaded.Initial.ID)
	assert.Equal(t, traj.TerminalSnapshotID, loaded.TerminalSnapshotID)
	require.Len(t, loaded.Moves, 1)
	assert.Equal(t, traj.Moves[0], loaded.Moves[0])
	assert.True(t, traj.StartedAt.Equal(loaded.StartedAt))
}

func TestSaveOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	traj := testTrajectory(t, "g1")
	require.NoError(t, store.Save(ctx, traj))

	traj.TerminationReason = "stop_decision"
	require.NoError(t, store.Save(ctx, traj))

	loaded, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "stop_decision", loaded.TerminationReason)
}

func TestLoadMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRequiresGameID(t *testing.T) {
	store := testStore(t)
	err := store.Save(context.Background(), trajectory.Trajectory{})
	assert.Error(t, err)
}

func TestListSorted(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"g3", "g1", "g2"} {
		require.NoError(t, store.Save(ctx, testTrajectory(t, id)))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2", "g3"}, ids)
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testTrajectory(t, "g1")))
	require.NoError(t, store.Delete(ctx, "g1"))

	_, err := store.Load(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing id is fine.
	assert.NoError(t, store.Delete(ctx, "g1"))
}

func TestContextCancellation(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := store.Save(ctx, testTrajectory(t, "g1"))
	assert.Error(t, err)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trajectory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TinyMoves/pkg/moves"
)

// playedTrajectory runs a short game by hand: two accepted moves and
// one rejected one, recorded the way the engine records them.
func playedTrajectory(t *testing.T) (Trajectory, *moves.Registry) {
	t.Helper()
	registry := moves.DefaultRegistry()
	initial := sealedSnapshot(t)

	rec, err := NewRecorder("g1", initial)
	require.NoError(t, err)

	s1, err := registry.Apply(initial, moves.Intent{
		Operation: moves.OpAddEntity,
		Params:    json.RawMessage(`{"id":"mdm2","kind":"gene"}`),
	})
	require.NoError(t, err)
	_, err = rec.Append(MoveRecord{
		AgentRole:  "proposer",
		Operation:  moves.OpAddEntity,
		Params:     json.RawMessage(`{"id":"mdm2","kind":"gene"}`),
		Accepted:   true,
		SnapshotID: s1.ID,
	})
	require.NoError(t, err)

	_, err = rec.Append(MoveRecord{
		AgentRole:       "proposer",
		Operation:       moves.OpAddRelation,
		Params:          json.RawMessage(`{"source_id":"mdm2","target_id":"ghost","kind":"inhibits"}`),
		Accepted:        false,
		RejectionReason: "referential integrity: target ghost does not exist",
	})
	require.NoError(t, err)

	s2, err := registry.Apply(s1, moves.Intent{
		Operation: moves.OpAddRelation,
		Params:    json.RawMessage(`{"source_id":"mdm2","target_id":"tp53","kind":"inhibits"}`),
	})
	require.NoError(t, err)
	_, err = rec.Append(MoveRecord{
		AgentRole:  "proposer",
		Operation:  moves.OpAddRelation,
		Params:     json.RawMessage(`{"source_id":"mdm2","target_id":"tp53","kind":"inhibits"}`),
		Accepted:   true,
		SnapshotID: s2.ID,
	})
	require.NoError(t, err)

	rec.Freeze(s2.ID, "max_turns")
	return rec.Export(), registry
}

func TestReplayReproducesSnapshots(t *testing.T) {
	traj, registry := playedTrajectory(t)

	snapshots, err := Replay(traj, registry)
	require.NoError(t, err)

	// Initial plus one snapshot per accepted move.
	require.Len(t, snapshots, 3)
	assert.Equal(t, traj.Initial.ID, snapshots[0].ID)
	assert.Equal(t, traj.TerminalSnapshotID, snapshots[2].ID)
	assert.True(t, snapshots[2].HasRelation("mdm2", "tp53", "inhibits"))
}

func TestReplaySurvivesSerialization(t *testing.T) {
	traj, registry := playedTrajectory(t)

	data, err := Marshal(traj)
	require.NoError(t, err)
	parsed, err := Unmarshal(data)
	require.NoError(t, err)

	assert.NoError(t, Verify(parsed, registry))
}

func TestReplayDetectsTamperedSnapshotID(t *testing.T) {
	traj, registry := playedTrajectory(t)
	accepted := traj.AcceptedMoves()
	for i := range traj.Moves {
		if traj.Moves[i].TurnIndex == accepted[1].TurnIndex {
			traj.Moves[i].SnapshotID = "deadbeef"
		}
	}

	err := Verify(traj, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diverged")
}

func TestReplayDetectsTamperedParams(t *testing.T) {
	traj, registry := playedTrajectory(t)
	for i := range traj.Moves {
		if traj.Moves[i].Accepted && traj.Moves[i].Operation == moves.OpAddEntity {
			traj.Moves[i].Params = json.RawMessage(`{"id":"mdm4","kind":"gene"}`)
		}
	}

	assert.Error(t, Verify(traj, registry))
}

func TestReplayDetectsTamperedInitial(t *testing.T) {
	traj, registry := playedTrajectory(t)
	traj.Initial.Statement = "something else entirely"

	err := Verify(traj, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial snapshot id mismatch")
}

func TestReplayDetectsTerminalMismatch(t *testing.T) {
	traj, registry := playedTrajectory(t)
	traj.TerminalSnapshotID = "deadbeef"

	err := Verify(traj, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal snapshot mismatch")
}

func TestReplayRequiresInitial(t *testing.T) {
	_, err := Replay(Trajectory{GameID: "g1"}, moves.DefaultRegistry())
	assert.Error(t, err)
}

func TestReplayFailsWithNarrowerRegistry(t *testing.T) {
	traj, _ := playedTrajectory(t)

	all := moves.Builtins()
	var narrowed []moves.Definition
	for _, d := range all {
		if d.Name != moves.OpAddRelation {
			narrowed = append(narrowed, d)
		}
	}
	registry, err := moves.NewRegistry(narrowed)
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(traj, registry), moves.ErrUnknownOperation)
}

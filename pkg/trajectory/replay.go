// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trajectory

import (
	"fmt"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
)

// Replay reconstructs every intermediate snapshot of a trajectory by
// re-applying its accepted moves from the initial snapshot, verifying
// at each step that the reconstructed snapshot id matches the recorded
// one. Operations are deterministic, so any mismatch means the
// trajectory was tampered with or the registry differs from the one
// the game ran with.
//
// Outputs:
//
//	[]*hypothesis.Snapshot - The initial snapshot followed by one
//	        snapshot per accepted move, in order.
//	error - Non-nil on the first divergence or apply failure.
func Replay(t Trajectory, registry *moves.Registry) ([]*hypothesis.Snapshot, error) {
	if t.Initial == nil {
		return nil, fmt.Errorf("trajectory %s has no initial snapshot", t.GameID)
	}

	// Re-seal from content to verify the recorded initial id.
	initial, err := hypothesis.New(hypothesis.Seed{
		Statement: t.Initial.Statement,
		Entities:  t.Initial.Entities,
		Relations: t.Initial.Relations,
	})
	if err != nil {
		return nil, fmt.Errorf("trajectory %s: initial snapshot invalid: %w", t.GameID, err)
	}
	if initial.ID != t.Initial.ID {
		return nil, fmt.Errorf("trajectory %s: initial snapshot id mismatch: recorded %s, recomputed %s",
			t.GameID, t.Initial.ID, initial.ID)
	}

	snapshots := []*hypothesis.Snapshot{initial}
	current := initial
	for _, record := range t.AcceptedMoves() {
		next, err := registry.Apply(current, moves.Intent{
			Operation: record.Operation,
			Params:    record.Params,
		})
		if err != nil {
			return nil, fmt.Errorf("trajectory %s: replay of turn %d (%s) failed: %w",
				t.GameID, record.TurnIndex, record.Operation, err)
		}
		if next.ID != record.SnapshotID {
			return nil, fmt.Errorf("trajectory %s: turn %d diverged: recorded %s, replayed %s",
				t.GameID, record.TurnIndex, record.SnapshotID, next.ID)
		}
		snapshots = append(snapshots, next)
		current = next
	}

	if t.TerminalSnapshotID != "" && current.ID != t.TerminalSnapshotID {
		return nil, fmt.Errorf("trajectory %s: terminal snapshot mismatch: recorded %s, replayed %s",
			t.GameID, t.TerminalSnapshotID, current.ID)
	}
	return snapshots, nil
}

// Verify replays the trajectory and discards the snapshots, returning
// only the determinism verdict.
func Verify(t Trajectory, registry *moves.Registry) error {
	_, err := Replay(t, registry)
	return err
}

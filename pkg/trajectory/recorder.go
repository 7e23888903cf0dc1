// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trajectory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

// Recorder owns the trajectory of a single game. It is the only
// writer: the engine appends through it and nothing else mutates the
// history. A game is a sequential state machine, so the recorder
// needs no locking; Freeze makes the trajectory read-only.
type Recorder struct {
	trajectory Trajectory
	frozen     bool
}

// NewRecorder starts a trajectory for a game from its sealed initial
// snapshot.
func NewRecorder(gameID string, initial *hypothesis.Snapshot) (*Recorder, error) {
	if initial == nil || initial.ID == "" {
		return nil, fmt.Errorf("recorder requires a sealed initial snapshot")
	}
	return &Recorder{
		trajectory: Trajectory{
			GameID:    gameID,
			Initial:   initial,
			StartedAt: time.Now().UTC(),
		},
	}, nil
}

// Append adds a move record, assigning the next turn index. The
// record's TurnIndex field is ignored on input.
//
// Outputs:
//
//	int - The assigned turn index.
//	error - Non-nil if the trajectory is frozen or the record is
//	        internally inconsistent (accepted without a snapshot id,
//	        rejected without a reason).
func (r *Recorder) Append(record MoveRecord) (int, error) {
	if r.frozen {
		return 0, fmt.Errorf("trajectory for game %s is frozen", r.trajectory.GameID)
	}
	if record.Accepted && record.SnapshotID == "" {
		return 0, fmt.Errorf("accepted move record requires a snapshot id")
	}
	if !record.Accepted && record.RejectionReason == "" {
		return 0, fmt.Errorf("rejected move record requires a rejection reason")
	}
	record.TurnIndex = len(r.trajectory.Moves)
	r.trajectory.Moves = append(r.trajectory.Moves, record)
	return record.TurnIndex, nil
}

// Freeze marks the trajectory terminated. Further appends fail.
func (r *Recorder) Freeze(terminalSnapshotID, reason string) {
	if r.frozen {
		return
	}
	now := time.Now().UTC()
	r.trajectory.TerminalSnapshotID = terminalSnapshotID
	r.trajectory.TerminationReason = reason
	r.trajectory.EndedAt = &now
	r.frozen = true
}

// Frozen reports whether the trajectory has been frozen.
func (r *Recorder) Frozen() bool {
	return r.frozen
}

// Len returns the number of recorded moves.
func (r *Recorder) Len() int {
	return len(r.trajectory.Moves)
}

// Export returns a deep copy of the trajectory, safe to hand to
// scorers, stores, and HTTP handlers regardless of freeze state.
func (r *Recorder) Export() Trajectory {
	out := r.trajectory
	out.Moves = make([]MoveRecord, len(r.trajectory.Moves))
	copy(out.Moves, r.trajectory.Moves)
	for i := range out.Moves {
		out.Moves[i].Params = append(json.RawMessage(nil), r.trajectory.Moves[i].Params...)
	}
	if r.trajectory.EndedAt != nil {
		ended := *r.trajectory.EndedAt
		out.EndedAt = &ended
	}
	return out
}

// Marshal serializes a trajectory to JSON. Unmarshal of the result
// yields a byte-identical re-serialization (round-trip fidelity).
func Marshal(t Trajectory) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Unmarshal parses a serialized trajectory.
func Unmarshal(data []byte) (Trajectory, error) {
	var t Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return Trajectory{}, fmt.Errorf("parse trajectory: %w", err)
	}
	return t, nil
}

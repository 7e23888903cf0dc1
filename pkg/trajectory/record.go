// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trajectory records the full ordered history of one game:
// every applied and rejected move with its rationale, the initial
// snapshot, and the termination outcome. Trajectories are append-only
// while a game runs, frozen afterwards, and replayable: re-applying
// the recorded accepted moves from the initial snapshot reproduces
// the recorded snapshot ids exactly.
package trajectory

import (
	"encoding/json"
	"time"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

// MoveRecord is one entry in a trajectory. Immutable once appended.
type MoveRecord struct {
	// TurnIndex is assigned by the recorder: strictly increasing,
	// gap-free, starting at 0. Rejected retries get their own index.
	TurnIndex int `json:"turn_index"`

	// AgentRole names the role that produced the move: "proposer",
	// "critic", "corruptor", "stop_decider".
	AgentRole string `json:"agent_role"`

	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params,omitempty"`

	// Rationale is the agent's stated reason for the move, recorded
	// verbatim for auditing.
	Rationale string `json:"rationale,omitempty"`

	Accepted bool `json:"accepted"`

	// SnapshotID is set when Accepted; RejectionReason when not.
	SnapshotID      string `json:"snapshot_id,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Trajectory is the exported history of one game. It embeds the full
// initial snapshot so an export is self-contained for replay.
type Trajectory struct {
	GameID string `json:"game_id"`

	Initial *hypothesis.Snapshot `json:"initial"`

	// TerminalSnapshotID is the head snapshot id at termination;
	// empty while the game is still active.
	TerminalSnapshotID string `json:"terminal_snapshot_id,omitempty"`

	// TerminationReason is one of the engine's termination reasons
	// ("max_turns", "stop_decision", "no_applicable_moves",
	// "error"); empty while active.
	TerminationReason string `json:"termination_reason,omitempty"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Moves []MoveRecord `json:"moves"`
}

// AcceptedMoves returns the accepted records in order.
func (t *Trajectory) AcceptedMoves() []MoveRecord {
	var out []MoveRecord
	for _, m := range t.Moves {
		if m.Accepted {
			out = append(out, m)
		}
	}
	return out
}

// RejectedMoves returns the rejected records in order.
func (t *Trajectory) RejectedMoves() []MoveRecord {
	var out []MoveRecord
	for _, m := range t.Moves {
		if !m.Accepted {
			out = append(out, m)
		}
	}
	return out
}

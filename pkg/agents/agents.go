// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agents defines the agent roles that drive a refinement
// game and their LLM-backed implementations. Roles are interfaces
// with one capability contract each; concrete agents compose the
// shared completion helper rather than inheriting from each other.
package agents

import (
	"context"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

// Role names as they appear in move records.
const (
	RoleProposer    = "proposer"
	RoleCritic      = "critic"
	RoleCorruptor   = "corruptor"
	RoleStopDecider = "stop_decider"
)

// Proposal is one agent's suggested move with its stated reason.
type Proposal struct {
	Intent    moves.Intent
	Rationale string
}

// Proposer suggests the next move for the current snapshot. The
// snippets carry retrieval context; history is the trajectory so far.
// Proposers should choose from the registry's applicable operations;
// the engine revalidates regardless.
type Proposer interface {
	Propose(ctx context.Context, snap *hypothesis.Snapshot, snippets []retrieval.Snippet, history []trajectory.MoveRecord) (Proposal, error)
}

// Critic reviews the current snapshot against the recent history and
// proposes a corrective move.
type Critic interface {
	Critique(ctx context.Context, snap *hypothesis.Snapshot, snippets []retrieval.Snippet, history []trajectory.MoveRecord) (Proposal, error)
}

// Corruptor degrades a reference hypothesis by a controlled severity,
// emitting the legal moves it applied so corruption runs are
// themselves replayable trajectories.
type Corruptor interface {
	Corrupt(reference *hypothesis.Snapshot, severity float64) (*hypothesis.Snapshot, []trajectory.MoveRecord, error)
}

// StopDecider is consulted each turn before the next proposal. A
// game without one stops on its turn budget alone.
type StopDecider interface {
	ShouldStop(ctx context.Context, snap *hypothesis.Snapshot, history []trajectory.MoveRecord) (bool, error)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package game runs one hypothesis refinement session as a
// sequential state machine: agents propose moves, the engine
// validates and applies them against the current snapshot, the
// recorder logs every outcome, and termination is checked each turn.
//
// One engine owns one game. Games share nothing but the read-only
// operation registry, so any number run in parallel; see Batch.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

// State of a game's lifecycle.
type State int

const (
	StateInitializing State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Termination reasons, recorded on the trajectory.
const (
	ReasonMaxTurns          = "max_turns"
	ReasonStopDecision      = "stop_decision"
	ReasonNoApplicableMoves = "no_applicable_moves"
	ReasonError             = "error"
)

// ErrRetryBudgetExhausted terminates a game whose agent could not
// produce an acceptable move within the configured attempts.
var ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

// Config fixes a game's behavior at start; it never changes during
// the game's lifetime.
type Config struct {
	// MaxTurns bounds proposal cycles. Must be positive: every
	// game needs a finite budget even when a stop decider runs.
	MaxTurns int

	// RetryBudget is the number of proposal attempts per turn,
	// including the first. A rejection consumes one attempt.
	RetryBudget int

	// AdvanceOnReject moves to the next turn after a rejection
	// instead of retrying within the turn. The rejection is still
	// recorded; the retry budget is not consumed further.
	AdvanceOnReject bool

	// RetrievalK is how many context snippets each proposal gets.
	// Ignored when the game has no retriever.
	RetrievalK int
}

// DefaultConfig mirrors the experiment defaults: twenty turns, three
// attempts per turn, retry within the turn.
func DefaultConfig() Config {
	return Config{
		MaxTurns:    20,
		RetryBudget: 3,
		RetrievalK:  5,
	}
}

func (c Config) validate() error {
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.RetryBudget <= 0 {
		return fmt.Errorf("retry budget must be positive, got %d", c.RetryBudget)
	}
	return nil
}

// ProposeFunc is one turn-taking agent's proposal capability.
type ProposeFunc func(ctx context.Context, snap *hypothesis.Snapshot, snippets []retrieval.Snippet, history []trajectory.MoveRecord) (agents.Proposal, error)

// Participant is one slot in the turn order: a role name plus its
// proposal function. Turn order is round-robin over the configured
// participants, or single-agent when only one is given; fixed for the
// game's lifetime.
type Participant struct {
	Role    string
	Propose ProposeFunc
}

// ProposerParticipant adapts a Proposer into a turn slot.
func ProposerParticipant(p agents.Proposer) Participant {
	return Participant{Role: agents.RoleProposer, Propose: p.Propose}
}

// CriticParticipant adapts a Critic into a turn slot.
func CriticParticipant(c agents.Critic) Participant {
	return Participant{Role: agents.RoleCritic, Propose: c.Critique}
}

// Result is a finished game: its terminal state, the final snapshot,
// and the frozen trajectory. A game that terminated with ReasonError
// still carries its partial trajectory for scoring.
type Result struct {
	GameID string
	State  State
	Reason string

	// Err holds the terminal error for ReasonError results.
	Err error

	Final      *hypothesis.Snapshot
	Trajectory trajectory.Trajectory
}

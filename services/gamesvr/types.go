// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamesvr

import (
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

// ServiceVersion is the game service version.
const ServiceVersion = "0.1.0"

// ErrorResponse is the error envelope for all endpoints.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

// CreateGameRequest starts a new game. Exactly one of Seed or
// FromGameID must be set: Seed plays from a fresh hypothesis,
// FromGameID continues from the final snapshot of a stored
// trajectory (typically a corruption trajectory).
type CreateGameRequest struct {
	Seed       *hypothesis.Seed `json:"seed,omitempty"`
	FromGameID string           `json:"from_game_id,omitempty"`

	// GameID pins the game id; a random one is generated when empty.
	GameID string `json:"game_id,omitempty"`

	// MaxTurns, RetryBudget, and RetrievalK override the server
	// defaults when positive.
	MaxTurns    int `json:"max_turns,omitempty"`
	RetryBudget int `json:"retry_budget,omitempty"`
	RetrievalK  int `json:"retrieval_k,omitempty"`

	AdvanceOnReject bool `json:"advance_on_reject,omitempty"`

	// WithCritic alternates a critic participant with the proposer;
	// WithStopDecider consults an LLM stop decider each turn.
	WithCritic      bool `json:"with_critic,omitempty"`
	WithStopDecider bool `json:"with_stop_decider,omitempty"`
}

// GameResponse summarizes a finished game.
type GameResponse struct {
	GameID            string `json:"game_id"`
	TerminationReason string `json:"termination_reason"`
	Error             string `json:"error,omitempty"`

	AcceptedMoves int `json:"accepted_moves"`
	RejectedMoves int `json:"rejected_moves"`

	FinalSnapshotID string `json:"final_snapshot_id"`
	EntityCount     int    `json:"entity_count"`
	RelationCount   int    `json:"relation_count"`
}

// GameSummary is one row in the game list.
type GameSummary struct {
	GameID            string `json:"game_id"`
	TerminationReason string `json:"termination_reason"`
	AcceptedMoves     int    `json:"accepted_moves"`
	RejectedMoves     int    `json:"rejected_moves"`
}

// ListGamesResponse lists stored games.
type ListGamesResponse struct {
	Games []GameSummary `json:"games"`
}

// TrajectoryResponse wraps a full stored trajectory.
type TrajectoryResponse struct {
	Trajectory trajectory.Trajectory `json:"trajectory"`
}

// ReplayResponse reports a replay verification.
type ReplayResponse struct {
	GameID          string `json:"game_id"`
	Verified        bool   `json:"verified"`
	SnapshotCount   int    `json:"snapshot_count"`
	FinalSnapshotID string `json:"final_snapshot_id,omitempty"`
}

// CorruptRequest corrupts a reference hypothesis and stores the
// damage as a trajectory.
type CorruptRequest struct {
	Seed     hypothesis.Seed `json:"seed"`
	Severity float64         `json:"severity"`
	RandSeed int64           `json:"rand_seed"`
	GameID   string          `json:"game_id,omitempty"`
}

// CorruptResponse reports the recorded damage.
type CorruptResponse struct {
	GameID          string `json:"game_id"`
	Moves           int    `json:"moves"`
	FinalSnapshotID string `json:"final_snapshot_id"`
}

// ScoreRequest scores a stored game against a reference hypothesis.
// CorruptionGameID, when set, adds recovery scoring against that
// corruption trajectory.
type ScoreRequest struct {
	GameID           string          `json:"game_id"`
	Reference        hypothesis.Seed `json:"reference"`
	CorruptionGameID string          `json:"corruption_game_id,omitempty"`
}

// ScoreResponse wraps the computed score.
type ScoreResponse struct {
	GameID string        `json:"game_id"`
	Score  scoring.Score `json:"score"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/llm"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

func initialSnapshot(t *testing.T) *hypothesis.Snapshot {
	t.Helper()
	snap, err := hypothesis.New(hypothesis.Seed{
		Statement: "A and B interact",
		Entities: []hypothesis.Entity{
			{ID: "a", Kind: "gene"},
			{ID: "b", Kind: "gene"},
		},
	})
	require.NoError(t, err)
	return snap
}

// scriptedParticipant proposes a fixed sequence of outcomes.
type scriptedStep struct {
	proposal agents.Proposal
	err      error
}

func scriptedParticipant(role string, steps ...scriptedStep) Participant {
	i := 0
	return Participant{
		Role: role,
		Propose: func(context.Context, *hypothesis.Snapshot, []retrieval.Snippet, []trajectory.MoveRecord) (agents.Proposal, error) {
			if i >= len(steps) {
				return agents.Proposal{}, fmt.Errorf("%w: script exhausted", llm.ErrProviderFailure)
			}
			step := steps[i]
			i++
			return step.proposal, step.err
		},
	}
}

func intentProposal(operation, params, rationale string) agents.Proposal {
	return agents.Proposal{
		Intent:    moves.Intent{Operation: operation, Params: json.RawMessage(params)},
		Rationale: rationale,
	}
}

func addRelationStep() scriptedStep {
	return scriptedStep{proposal: intentProposal(
		moves.OpAddRelation,
		`{"source_id":"a","target_id":"b","kind":"activates"}`,
		"A activates B",
	)}
}

func TestGameTerminatesOnMaxTurns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 3

	steps := make([]scriptedStep, 3)
	for i := range steps {
		steps[i] = scriptedStep{proposal: intentProposal(
			moves.OpAddEntity,
			fmt.Sprintf(`{"id":"e%d","kind":"gene"}`, i),
			"extend",
		)}
	}

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t),
		[]Participant{scriptedParticipant(agents.RoleProposer, steps...)})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateTerminated, result.State)
	assert.Equal(t, ReasonMaxTurns, result.Reason)
	assert.Len(t, result.Trajectory.AcceptedMoves(), 3)
	assert.Equal(t, result.Final.ID, result.Trajectory.TerminalSnapshotID)
}

// Two provider failures then a valid proposal, within retry budget 3:
// one accepted record, two rejected, no game-level error.
func TestProviderFailuresWithinRetryBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 1
	cfg.RetryBudget = 3

	participant := scriptedParticipant(agents.RoleProposer,
		scriptedStep{err: fmt.Errorf("%w: timeout", llm.ErrProviderFailure)},
		scriptedStep{err: fmt.Errorf("%w: timeout", llm.ErrProviderFailure)},
		addRelationStep(),
	)

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t), []Participant{participant})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonMaxTurns, result.Reason)
	assert.Len(t, result.Trajectory.AcceptedMoves(), 1)
	assert.Len(t, result.Trajectory.RejectedMoves(), 2)
	assert.True(t, result.Final.HasRelation("a", "b", "activates"))
}

func TestRetryBudgetExhaustedTerminatesWithError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 5
	cfg.RetryBudget = 2

	participant := scriptedParticipant(agents.RoleProposer,
		scriptedStep{err: fmt.Errorf("%w: timeout", llm.ErrProviderFailure)},
		scriptedStep{err: fmt.Errorf("%w: timeout", llm.ErrProviderFailure)},
	)

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t), []Participant{participant})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryBudgetExhausted)
	assert.Equal(t, ReasonError, result.Reason)

	// The partial trajectory is frozen and still scoreable.
	assert.Len(t, result.Trajectory.RejectedMoves(), 2)
	assert.NotNil(t, result.Trajectory.EndedAt)
	score := scoring.Compute(result.Final, initialSnapshot(t))
	assert.Equal(t, 1.0, score.Jaccard)
}

func TestRejectedMoveConsumesRetryBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 1
	cfg.RetryBudget = 2

	participant := scriptedParticipant(agents.RoleProposer,
		// Precondition unmet: entity does not exist.
		scriptedStep{proposal: intentProposal(moves.OpRemoveEntity, `{"id":"ghost"}`, "bad")},
		addRelationStep(),
	)

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t), []Participant{participant})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Trajectory.RejectedMoves(), 1)
	assert.Contains(t, result.Trajectory.RejectedMoves()[0].RejectionReason, "precondition")
	assert.Len(t, result.Trajectory.AcceptedMoves(), 1)
}

func TestAdvanceOnRejectMovesToNextTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 2
	cfg.RetryBudget = 3
	cfg.AdvanceOnReject = true

	participant := scriptedParticipant(agents.RoleProposer,
		scriptedStep{err: fmt.Errorf("%w: timeout", llm.ErrProviderFailure)},
		addRelationStep(),
	)

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t), []Participant{participant})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonMaxTurns, result.Reason)
	// One rejection on turn 0, one acceptance on turn 1.
	assert.Len(t, result.Trajectory.RejectedMoves(), 1)
	assert.Len(t, result.Trajectory.AcceptedMoves(), 1)
}

func TestStopDeciderWinsOverBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 1

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t),
		[]Participant{scriptedParticipant(agents.RoleProposer)},
		WithStopDecider(stopAfter(0)))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	// Both would fire on turn 0; the stop decider is consulted
	// first and wins.
	assert.Equal(t, ReasonStopDecision, result.Reason)
	assert.Empty(t, result.Trajectory.Moves)
}

// stopAfter returns a decider that stops once the history reaches n
// records.
func stopAfter(n int) agents.StopDecider {
	return stopFunc(func(_ context.Context, _ *hypothesis.Snapshot, history []trajectory.MoveRecord) (bool, error) {
		return len(history) >= n, nil
	})
}

type stopFunc func(context.Context, *hypothesis.Snapshot, []trajectory.MoveRecord) (bool, error)

func (f stopFunc) ShouldStop(ctx context.Context, snap *hypothesis.Snapshot, history []trajectory.MoveRecord) (bool, error) {
	return f(ctx, snap, history)
}

func TestStopDeciderFailureFallsBackToBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 1

	failing := stopFunc(func(context.Context, *hypothesis.Snapshot, []trajectory.MoveRecord) (bool, error) {
		return false, fmt.Errorf("%w: undecidable", llm.ErrProviderFailure)
	})

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t),
		[]Participant{scriptedParticipant(agents.RoleProposer, addRelationStep())},
		WithStopDecider(failing))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonMaxTurns, result.Reason)
}

func TestNoApplicableMovesIsFixedPoint(t *testing.T) {
	// Only removal operations registered; an empty hypothesis is a
	// fixed point.
	var defs []moves.Definition
	for _, d := range moves.Builtins() {
		if d.Name == moves.OpRemoveEntity || d.Name == moves.OpRemoveRelation {
			defs = append(defs, d)
		}
	}
	registry, err := moves.NewRegistry(defs)
	require.NoError(t, err)

	empty, err := hypothesis.New(hypothesis.Seed{Statement: "nothing"})
	require.NoError(t, err)

	engine, err := NewEngine(DefaultConfig(), registry, empty,
		[]Participant{scriptedParticipant(agents.RoleProposer)})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonNoApplicableMoves, result.Reason)
}

func TestRoundRobinTurnOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 4

	proposer := scriptedParticipant(agents.RoleProposer,
		scriptedStep{proposal: intentProposal(moves.OpAddEntity, `{"id":"c","kind":"gene"}`, "")},
		scriptedStep{proposal: intentProposal(moves.OpAddEntity, `{"id":"d","kind":"gene"}`, "")},
	)
	critic := scriptedParticipant(agents.RoleCritic,
		addRelationStep(),
		scriptedStep{proposal: intentProposal(moves.OpAddRelation, `{"source_id":"c","target_id":"d","kind":"binds"}`, "")},
	)

	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t),
		[]Participant{proposer, critic})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	accepted := result.Trajectory.AcceptedMoves()
	require.Len(t, accepted, 4)
	roles := []string{accepted[0].AgentRole, accepted[1].AgentRole, accepted[2].AgentRole, accepted[3].AgentRole}
	assert.Equal(t, []string{agents.RoleProposer, agents.RoleCritic, agents.RoleProposer, agents.RoleCritic}, roles)
}

func TestGameTrajectoryReplays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 2
	registry := moves.DefaultRegistry()

	participant := scriptedParticipant(agents.RoleProposer,
		addRelationStep(),
		scriptedStep{proposal: intentProposal(moves.OpSetEntityAttribute, `{"entity_id":"a","key":"source","value":"curated"}`, "")},
	)

	engine, err := NewEngine(cfg, registry, initialSnapshot(t), []Participant{participant})
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, trajectory.Verify(result.Trajectory, registry))
}

// Corruption removes a relation; a refinement game that re-adds it
// and stops scores full recovery.
func TestCorruptionRecoveryEndToEnd(t *testing.T) {
	registry := moves.DefaultRegistry()
	reference, err := hypothesis.New(hypothesis.Seed{
		Statement: "A and B interact",
		Entities: []hypothesis.Entity{
			{ID: "a", Kind: "gene"},
			{ID: "b", Kind: "gene"},
		},
		Relations: []hypothesis.Relation{
			{SourceID: "a", TargetID: "b", Kind: "activates"},
		},
	})
	require.NoError(t, err)

	// Corrupt by hand: remove the relation.
	corrupted, err := registry.Apply(reference, moves.Intent{
		Operation: moves.OpRemoveRelation,
		Params:    json.RawMessage(`{"source_id":"a","target_id":"b","kind":"activates"}`),
	})
	require.NoError(t, err)
	corruptionLog := []trajectory.MoveRecord{{
		AgentRole:  agents.RoleCorruptor,
		Operation:  moves.OpRemoveRelation,
		Params:     json.RawMessage(`{"source_id":"a","target_id":"b","kind":"activates"}`),
		Accepted:   true,
		SnapshotID: corrupted.ID,
	}}

	// Refine: re-add the relation, then stop.
	cfg := DefaultConfig()
	cfg.MaxTurns = 5
	engine, err := NewEngine(cfg, registry, corrupted,
		[]Participant{scriptedParticipant(agents.RoleProposer, addRelationStep())},
		WithStopDecider(stopAfter(1)))
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonStopDecision, result.Reason)

	score, err := scoring.ComputeWithRecovery(result.Final, reference, corruptionLog)
	require.NoError(t, err)
	require.NotNil(t, score.CorruptionRecovery)
	assert.Equal(t, 1.0, score.CorruptionRecovery.RecoveryRate())
}

func TestEngineUsesRetrieverContext(t *testing.T) {
	corpus, err := retrieval.NewCorpusRetriever([]retrieval.Document{
		{Source: "doc-1", Text: "A and B interact strongly"},
	})
	require.NoError(t, err)

	var seen []retrieval.Snippet
	participant := Participant{
		Role: agents.RoleProposer,
		Propose: func(_ context.Context, _ *hypothesis.Snapshot, snippets []retrieval.Snippet, _ []trajectory.MoveRecord) (agents.Proposal, error) {
			seen = snippets
			return addRelationStep().proposal, nil
		},
	}

	cfg := DefaultConfig()
	cfg.MaxTurns = 1
	engine, err := NewEngine(cfg, moves.DefaultRegistry(), initialSnapshot(t),
		[]Participant{participant}, WithRetriever(corpus))
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "doc-1", seen[0].Source)
}

func TestNewEngineValidation(t *testing.T) {
	registry := moves.DefaultRegistry()
	snap := initialSnapshot(t)
	participant := scriptedParticipant(agents.RoleProposer)

	_, err := NewEngine(Config{MaxTurns: 0, RetryBudget: 1}, registry, snap, []Participant{participant})
	assert.Error(t, err)

	_, err = NewEngine(Config{MaxTurns: 1, RetryBudget: 0}, registry, snap, []Participant{participant})
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), nil, snap, []Participant{participant})
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), registry, snap, nil)
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), registry, snap, []Participant{{Role: "x"}})
	assert.Error(t, err)

	_, err = NewEngine(DefaultConfig(), registry, nil, []Participant{participant})
	assert.Error(t, err)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

func snap(t *testing.T, statement string, entities []hypothesis.Entity, relations []hypothesis.Relation) *hypothesis.Snapshot {
	t.Helper()
	s, err := hypothesis.New(hypothesis.Seed{
		Statement: statement,
		Entities:  entities,
		Relations: relations,
	})
	require.NoError(t, err)
	return s
}

func referenceSnapshot(t *testing.T) *hypothesis.Snapshot {
	return snap(t, "EGFR signaling drives proliferation",
		[]hypothesis.Entity{
			{ID: "egfr", Kind: "gene"},
			{ID: "ras", Kind: "gene"},
			{ID: "proliferation", Kind: "phenotype"},
		},
		[]hypothesis.Relation{
			{SourceID: "egfr", TargetID: "ras", Kind: "activates"},
			{SourceID: "ras", TargetID: "proliferation", Kind: "promotes"},
		})
}

func TestComputePerfectMatch(t *testing.T) {
	ref := referenceSnapshot(t)
	score := Compute(ref, ref)

	assert.Equal(t, 1.0, score.EntityPrecision)
	assert.Equal(t, 1.0, score.EntityRecall)
	assert.Equal(t, 1.0, score.EntityF1)
	assert.Equal(t, 1.0, score.RelationPrecision)
	assert.Equal(t, 1.0, score.RelationRecall)
	assert.Equal(t, 1.0, score.RelationF1)
	assert.Equal(t, 1.0, score.Jaccard)
	assert.Nil(t, score.CorruptionRecovery)
}

func TestComputePartialOverlap(t *testing.T) {
	ref := referenceSnapshot(t)
	final := snap(t, "EGFR signaling drives proliferation",
		[]hypothesis.Entity{
			{ID: "egfr", Kind: "gene"},
			{ID: "ras", Kind: "gene"},
			{ID: "spurious", Kind: "gene"},
		},
		[]hypothesis.Relation{
			{SourceID: "egfr", TargetID: "ras", Kind: "activates"},
		})

	score := Compute(final, ref)

	// 2 of 3 final entities are in the reference; 2 of 3 reference
	// entities were found.
	assert.InDelta(t, 2.0/3.0, score.EntityPrecision, 1e-9)
	assert.InDelta(t, 2.0/3.0, score.EntityRecall, 1e-9)
	assert.InDelta(t, 2.0/3.0, score.EntityF1, 1e-9)

	assert.Equal(t, 1.0, score.RelationPrecision)
	assert.Equal(t, 0.5, score.RelationRecall)
	assert.InDelta(t, 2.0/3.0, score.RelationF1, 1e-9)

	// Overlap 3 (egfr, ras, one relation) over union 6.
	assert.InDelta(t, 0.5, score.Jaccard, 1e-9)
}

func TestComputeEmptySets(t *testing.T) {
	empty := snap(t, "nothing yet", nil, nil)
	score := Compute(empty, empty)

	assert.Equal(t, 1.0, score.EntityPrecision)
	assert.Equal(t, 1.0, score.EntityRecall)
	assert.Equal(t, 1.0, score.Jaccard)

	ref := referenceSnapshot(t)
	score = Compute(empty, ref)
	assert.Equal(t, 1.0, score.EntityPrecision, "empty final asserts nothing wrongly")
	assert.Equal(t, 0.0, score.EntityRecall)
	assert.Equal(t, 0.0, score.EntityF1)
	assert.Equal(t, 0.0, score.Jaccard)
}

func TestComputeIsPure(t *testing.T) {
	ref := referenceSnapshot(t)
	final := snap(t, "EGFR signaling drives proliferation",
		[]hypothesis.Entity{{ID: "egfr", Kind: "gene"}}, nil)

	first := Compute(final, ref)
	second := Compute(final, ref)
	assert.Equal(t, first, second)
}

// Corruption removes relation R from the reference; a refinement that
// re-adds R and does nothing else scores full recovery.
func TestRecoveryRateFullAfterReversal(t *testing.T) {
	ref := referenceSnapshot(t)

	corruptions := []trajectory.MoveRecord{{
		TurnIndex: 0,
		AgentRole: "corruptor",
		Operation: moves.OpRemoveRelation,
		Params:    json.RawMessage(`{"source_id":"egfr","target_id":"ras","kind":"activates"}`),
		Accepted:  true,
	}}

	// Final snapshot equals the reference again: R was re-added.
	score, err := ComputeWithRecovery(ref, ref, corruptions)
	require.NoError(t, err)
	require.NotNil(t, score.CorruptionRecovery)

	report := score.CorruptionRecovery
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Recovered)
	assert.Equal(t, 0, report.Persisted)
	assert.Equal(t, 1.0, report.CleanRate)
	assert.Equal(t, 0.0, report.PersistenceRate)
	assert.Equal(t, 1.0, report.RecoveryRate())
	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].Recovered)
}

func TestRecoveryPersistedCorruption(t *testing.T) {
	ref := referenceSnapshot(t)
	final := snap(t, "EGFR signaling drives proliferation",
		[]hypothesis.Entity{
			{ID: "egfr", Kind: "gene"},
			{ID: "ras", Kind: "gene"},
			{ID: "proliferation", Kind: "phenotype"},
		},
		[]hypothesis.Relation{
			// The removed relation was never restored.
			{SourceID: "ras", TargetID: "proliferation", Kind: "promotes"},
		})

	corruptions := []trajectory.MoveRecord{{
		Operation: moves.OpRemoveRelation,
		Params:    json.RawMessage(`{"source_id":"egfr","target_id":"ras","kind":"activates"}`),
		Accepted:  true,
	}}

	score, err := ComputeWithRecovery(final, ref, corruptions)
	require.NoError(t, err)
	report := score.CorruptionRecovery
	assert.Equal(t, 1, report.Persisted)
	assert.Equal(t, 0.0, report.CleanRate)
	assert.Equal(t, 1.0, report.PersistenceRate)
}

func TestRecoveryMixedOutcomes(t *testing.T) {
	ref := referenceSnapshot(t)
	final := snap(t, "EGFR signaling drives proliferation",
		[]hypothesis.Entity{
			{ID: "egfr", Kind: "gene"},
			{ID: "ras", Kind: "gene"},
			{ID: "proliferation", Kind: "phenotype"},
			// Spurious entity the corruptor added, never removed.
			{ID: "noise", Kind: "gene"},
		},
		[]hypothesis.Relation{
			{SourceID: "egfr", TargetID: "ras", Kind: "activates"},
			{SourceID: "ras", TargetID: "proliferation", Kind: "promotes"},
		})

	corruptions := []trajectory.MoveRecord{
		{
			TurnIndex: 0,
			Operation: moves.OpReannotateRelation,
			Params:    json.RawMessage(`{"source_id":"egfr","target_id":"ras","kind":"activates","new_kind":"inhibits"}`),
			Accepted:  true,
		},
		{
			TurnIndex: 1,
			Operation: moves.OpAddEntity,
			Params:    json.RawMessage(`{"id":"noise","kind":"gene"}`),
			Accepted:  true,
		},
		{
			// Rejected corruptions do not count.
			TurnIndex:       2,
			Operation:       moves.OpRemoveEntity,
			Params:          json.RawMessage(`{"id":"ghost"}`),
			Accepted:        false,
			RejectionReason: "precondition unmet",
		},
	}

	score, err := ComputeWithRecovery(final, ref, corruptions)
	require.NoError(t, err)
	report := score.CorruptionRecovery
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Recovered, "reannotation was reversed")
	assert.Equal(t, 1, report.Persisted, "spurious entity remains")
	assert.Equal(t, 0.5, report.CleanRate)
}

func TestRecoveryStatementCorruption(t *testing.T) {
	ref := referenceSnapshot(t)
	corrupted := snap(t, "EGFR has no role in proliferation", ref.Entities, ref.Relations)

	corruptions := []trajectory.MoveRecord{{
		Operation: moves.OpReviseStatement,
		Params:    json.RawMessage(`{"statement":"EGFR has no role in proliferation"}`),
		Accepted:  true,
	}}

	score, err := ComputeWithRecovery(corrupted, ref, corruptions)
	require.NoError(t, err)
	assert.Equal(t, 1, score.CorruptionRecovery.Persisted)

	score, err = ComputeWithRecovery(ref, ref, corruptions)
	require.NoError(t, err)
	assert.Equal(t, 1, score.CorruptionRecovery.Recovered)
}

func TestRecoveryNoCorruptions(t *testing.T) {
	ref := referenceSnapshot(t)
	score, err := ComputeWithRecovery(ref, ref, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score.CorruptionRecovery.Total)
	assert.Equal(t, 1.0, score.CorruptionRecovery.CleanRate)
}

func TestRecoveryUnknownOperation(t *testing.T) {
	ref := referenceSnapshot(t)
	_, err := ComputeWithRecovery(ref, ref, []trajectory.MoveRecord{{
		Operation: "teleport_entity",
		Accepted:  true,
	}})
	assert.Error(t, err)
}

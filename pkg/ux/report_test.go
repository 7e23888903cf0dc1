// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"

	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

func TestScoreTablePlain(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	table := ScoreTable(scoring.Score{
		EntityPrecision: 0.5, EntityRecall: 1, EntityF1: 2.0 / 3.0,
		Jaccard: 0.5,
	})
	if !strings.Contains(table, "entity precision") {
		t.Errorf("missing precision row: %q", table)
	}
	if !strings.Contains(table, "0.500") {
		t.Errorf("missing value: %q", table)
	}
	if strings.Contains(table, "corruptions") {
		t.Errorf("recovery rows without a report: %q", table)
	}
}

func TestScoreTableWithRecovery(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	table := ScoreTable(scoring.Score{
		CorruptionRecovery: &scoring.CorruptionReport{
			Total: 4, Recovered: 3, Persisted: 1,
			CleanRate: 0.75, PersistenceRate: 0.25,
		},
	})
	for _, want := range []string{"corruptions", "recovered", "0.750", "0.250"} {
		if !strings.Contains(table, want) {
			t.Errorf("missing %q in table: %q", want, table)
		}
	}
}

func TestGameStatusPlain(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	line := GameStatus("g1", "max_turns", 5, 2)
	want := "g1  reason=max_turns accepted=5 rejected=2"
	if line != want {
		t.Errorf("got %q, want %q", line, want)
	}
}

func TestMoveLine(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	accepted := MoveLine(trajectory.MoveRecord{
		TurnIndex: 3, AgentRole: "proposer", Operation: "add_entity",
		Accepted: true, SnapshotID: "abcdef0123456789",
	})
	if !strings.Contains(accepted, "abcdef012345") || strings.Contains(accepted, "6789") {
		t.Errorf("snapshot id not truncated: %q", accepted)
	}

	rejected := MoveLine(trajectory.MoveRecord{
		TurnIndex: 4, AgentRole: "critic", Operation: "merge_entities",
		Accepted: false, RejectionReason: "precondition unmet",
	})
	if !strings.Contains(rejected, "rejected: precondition unmet") {
		t.Errorf("missing rejection reason: %q", rejected)
	}
}

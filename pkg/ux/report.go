// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

// ScoreTable renders a score as an aligned two-column table.
func ScoreTable(score scoring.Score) string {
	rows := [][2]string{
		{"entity precision", fmt.Sprintf("%.3f", score.EntityPrecision)},
		{"entity recall", fmt.Sprintf("%.3f", score.EntityRecall)},
		{"entity f1", fmt.Sprintf("%.3f", score.EntityF1)},
		{"relation precision", fmt.Sprintf("%.3f", score.RelationPrecision)},
		{"relation recall", fmt.Sprintf("%.3f", score.RelationRecall)},
		{"relation f1", fmt.Sprintf("%.3f", score.RelationF1)},
		{"jaccard", fmt.Sprintf("%.3f", score.Jaccard)},
	}
	if r := score.CorruptionRecovery; r != nil {
		rows = append(rows,
			[2]string{"corruptions", fmt.Sprintf("%d", r.Total)},
			[2]string{"recovered", fmt.Sprintf("%d", r.Recovered)},
			[2]string{"clean rate", fmt.Sprintf("%.3f", r.CleanRate)},
			[2]string{"persistence rate", fmt.Sprintf("%.3f", r.PersistenceRate)},
		)
	}

	var b strings.Builder
	for _, row := range rows {
		label := fmt.Sprintf("%-20s", row[0])
		if Plain() {
			fmt.Fprintf(&b, "%s %s\n", label, row[1])
		} else {
			fmt.Fprintf(&b, "%s %s\n", Styles.Muted.Render(label), Styles.Bold.Render(row[1]))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// GameStatus renders a one-line game outcome.
func GameStatus(gameID, reason string, accepted, rejected int) string {
	line := fmt.Sprintf("%s  reason=%s accepted=%d rejected=%d", gameID, reason, accepted, rejected)
	if Plain() {
		return line
	}
	styled := Styles.Success
	if reason == "error" {
		styled = Styles.Error
	}
	return fmt.Sprintf("%s  %s %s",
		Styles.Bold.Render(gameID),
		styled.Render("reason="+reason),
		Styles.Muted.Render(fmt.Sprintf("accepted=%d rejected=%d", accepted, rejected)))
}

// MoveLine renders one trajectory record for replay listings.
func MoveLine(m trajectory.MoveRecord) string {
	if m.Accepted {
		line := fmt.Sprintf("%3d %-10s %-24s -> %s", m.TurnIndex, m.AgentRole, m.Operation, shortID(m.SnapshotID))
		if Plain() {
			return line
		}
		return Styles.Success.Render(line)
	}
	line := fmt.Sprintf("%3d %-10s %-24s rejected: %s", m.TurnIndex, m.AgentRole, m.Operation, m.RejectionReason)
	if Plain() {
		return line
	}
	return Styles.Warning.Render(line)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

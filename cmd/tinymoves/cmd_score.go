// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var (
	scoreReferencePath string
	scoreCorruptionArg string
	scoreJSONOut       string
)

// scoreCmd compares a game's final hypothesis against a reference.
var scoreCmd = &cobra.Command{
	Use:   "score [game-id or file]",
	Short: "Score a game's final hypothesis against a reference",
	Long: `Replays the trajectory to its final snapshot and scores it against
the reference hypothesis in --reference: entity and relation precision,
recall, F1, and combined Jaccard similarity.

When the game started from corrupted state, pass the corruption
trajectory with --corruption to also measure recovery: the fraction of
damaged elements the game restored to agreement with the reference.

Examples:
  tinymoves score 7d4f... --reference pathway.yaml
  tinymoves score game.json --reference pathway.yaml --corruption damage.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreCommand,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreReferencePath, "reference", "", "Reference seed file (.yaml or .json)")
	scoreCmd.Flags().StringVar(&scoreCorruptionArg, "corruption", "", "Corruption trajectory (game id or file) for recovery scoring")
	scoreCmd.Flags().StringVar(&scoreJSONOut, "out", "", "Also write the score to a JSON file")
	scoreCmd.MarkFlagRequired("reference")
	rootCmd.AddCommand(scoreCmd)
}

func runScoreCommand(cmd *cobra.Command, args []string) error {
	reference, err := hypothesis.LoadSnapshot(scoreReferencePath)
	if err != nil {
		return err
	}
	t, err := loadTrajectoryArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	registry := moves.DefaultRegistry()
	final, err := finalSnapshot(t, registry)
	if err != nil {
		return err
	}

	var score scoring.Score
	if scoreCorruptionArg != "" {
		corruption, err := loadTrajectoryArg(cmd.Context(), scoreCorruptionArg)
		if err != nil {
			return err
		}
		score, err = scoring.ComputeWithRecovery(final, reference, corruption.Moves)
		if err != nil {
			return fmt.Errorf("score recovery: %w", err)
		}
	} else {
		score = scoring.Compute(final, reference)
	}

	ux.Box(fmt.Sprintf("Score for %s", t.GameID), ux.ScoreTable(score))
	if scoreJSONOut != "" {
		if err := writeJSONFile(scoreJSONOut, score); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("score written to %s", scoreJSONOut))
	}
	return nil
}

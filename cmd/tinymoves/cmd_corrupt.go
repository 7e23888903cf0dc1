// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var (
	corruptSeverity float64
	corruptRandSeed int64
	corruptGameID   string
	corruptNoSave   bool
	corruptOutPath  string
)

// corruptCmd degrades a reference hypothesis with seeded random
// moves and records the damage as a replayable trajectory. The saved
// trajectory's final snapshot is the corrupted state, so a recovery
// game starts with 'tinymoves run --from <game-id>'.
var corruptCmd = &cobra.Command{
	Use:   "corrupt [seed-file]",
	Short: "Corrupt a reference hypothesis into a recovery starting point",
	Long: `Applies seeded random corruption moves (removed or inverted
relations, reannotated kinds, cascade entity removals, spurious
entities) to the reference hypothesis in the given seed file.

The corruption itself is recorded as a trajectory: the same seed value
always produces the same damage, and the record is what 'tinymoves
score --corruption' later checks recovery against.

Examples:
  tinymoves corrupt pathway.yaml --severity 0.3
  tinymoves corrupt pathway.yaml --severity 0.5 --rand-seed 7 --out damage.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCorruptCommand,
}

func init() {
	corruptCmd.Flags().Float64Var(&corruptSeverity, "severity", 0.3, "Fraction of hypothesis elements to damage (0, 1]")
	corruptCmd.Flags().Int64Var(&corruptRandSeed, "rand-seed", 1, "Random seed for deterministic corruption")
	corruptCmd.Flags().StringVar(&corruptGameID, "game-id", "", "Use a fixed game id instead of a generated one")
	corruptCmd.Flags().BoolVar(&corruptNoSave, "no-save", false, "Do not persist the corruption trajectory")
	corruptCmd.Flags().StringVar(&corruptOutPath, "out", "", "Also write the corruption trajectory to a JSON file")
	rootCmd.AddCommand(corruptCmd)
}

func runCorruptCommand(cmd *cobra.Command, args []string) error {
	reference, err := hypothesis.LoadSnapshot(args[0])
	if err != nil {
		return err
	}

	registry := moves.DefaultRegistry()
	corruptor, err := agents.NewSeededCorruptor(registry, corruptRandSeed)
	if err != nil {
		return err
	}
	corrupted, records, err := corruptor.Corrupt(reference, corruptSeverity)
	if err != nil {
		return fmt.Errorf("corrupt hypothesis: %w", err)
	}

	gameID := corruptGameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	recorder, err := trajectory.NewRecorder(gameID, reference)
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, err := recorder.Append(r); err != nil {
			return fmt.Errorf("record corruption move: %w", err)
		}
	}
	recorder.Freeze(corrupted.ID, "stop_decision")
	t := recorder.Export()

	ux.Title("Corruption")
	ux.Info(fmt.Sprintf("%d corruption moves at severity %.2f (rand seed %d)",
		len(records), corruptSeverity, corruptRandSeed))
	for _, m := range t.Moves {
		fmt.Println(ux.MoveLine(m))
	}

	if corruptOutPath != "" {
		if err := writeJSONFile(corruptOutPath, t); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("corruption trajectory written to %s", corruptOutPath))
	}
	if !corruptNoSave {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.Save(cmd.Context(), t); err != nil {
			return fmt.Errorf("save corruption trajectory: %w", err)
		}
		ux.Success(fmt.Sprintf("corruption trajectory saved as %s", gameID))
	}
	ux.Info(fmt.Sprintf("start a recovery game with: tinymoves run --from %s", gameID))
	return nil
}

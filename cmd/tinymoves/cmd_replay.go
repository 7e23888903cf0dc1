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

	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var replayShowMoves bool

// replayCmd re-executes a recorded trajectory and checks that every
// accepted move reproduces the snapshot id it was recorded with.
var replayCmd = &cobra.Command{
	Use:   "replay [game-id or file]",
	Short: "Replay a trajectory and verify its snapshot ids",
	Long: `Replays a trajectory from the local store (by game id) or from a
JSON file, re-applying every accepted move to the initial snapshot and
comparing the resulting snapshot ids against the recorded ones.

A verified replay proves the trajectory is faithful: the exact same
hypothesis states can be reconstructed from the record alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplayCommand,
}

func init() {
	replayCmd.Flags().BoolVar(&replayShowMoves, "moves", false, "Print every recorded move")
	rootCmd.AddCommand(replayCmd)
}

func runReplayCommand(cmd *cobra.Command, args []string) error {
	t, err := loadTrajectoryArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	registry := moves.DefaultRegistry()
	if replayShowMoves {
		for _, m := range t.Moves {
			fmt.Println(ux.MoveLine(m))
		}
	}
	if err := trajectory.Verify(t, registry); err != nil {
		return fmt.Errorf("replay verification failed: %w", err)
	}

	final, err := finalSnapshot(t, registry)
	if err != nil {
		return err
	}
	accepted := len(t.AcceptedMoves())
	ux.Success(fmt.Sprintf("verified %s: %d accepted moves, %d rejected",
		t.GameID, accepted, len(t.Moves)-accepted))
	ux.Info(fmt.Sprintf("final snapshot %s: %d entities, %d relations",
		final.ID, len(final.Entities), len(final.Relations)))
	return nil
}

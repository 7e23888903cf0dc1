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

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/game"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var (
	batchCount       int
	batchConcurrency int
	batchSeedPath    string
	batchScriptPath  string
	batchNoSave      bool
)

// batchCmd runs the same game configuration n times concurrently.
// Every game shares the provider client, so one rate limiter governs
// the whole experiment.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a batch of games concurrently",
	Long: `Runs n independent games from the same seed hypothesis, bounded by
--concurrency, and reports the score of each final state against the
seed. Individual game failures are recorded as outcomes, not fatal
errors; the batch aborts only on setup failure or cancellation.

Example:
  tinymoves batch --seed pathway.yaml -n 20 --concurrency 4`,
	RunE: runBatchCommand,
}

func init() {
	batchCmd.Flags().StringVar(&batchSeedPath, "seed", "", "Seed hypothesis file (.yaml or .json)")
	batchCmd.Flags().IntVarP(&batchCount, "count", "n", 10, "Number of games to run")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "Maximum games running at once")
	batchCmd.Flags().StringVar(&batchScriptPath, "script", "", "Canned responses for the scripted provider (JSON array of strings)")
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false, "Do not persist trajectories to the local store")
	batchCmd.MarkFlagRequired("seed")
	rootCmd.AddCommand(batchCmd)
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	seed, err := hypothesis.LoadSeed(batchSeedPath)
	if err != nil {
		return err
	}
	reference, err := hypothesis.New(seed)
	if err != nil {
		return err
	}

	client, err := newProviderClient(batchScriptPath)
	if err != nil {
		return err
	}
	registry := moves.DefaultRegistry()
	retriever, err := newRetriever()
	if err != nil {
		return err
	}

	factory := func(i int) (*game.Engine, error) {
		initial, err := hypothesis.New(seed)
		if err != nil {
			return nil, err
		}
		proposer, err := agents.NewLLMProposer(client, registry)
		if err != nil {
			return nil, err
		}
		opts := []game.Option{game.WithLogger(logger.Slog())}
		if retriever != nil {
			opts = append(opts, game.WithRetriever(retriever))
		}
		return game.NewEngine(gameConfigFromFlags(), registry, initial,
			[]game.Participant{game.ProposerParticipant(proposer)}, opts...)
	}

	batch, err := game.NewBatch(factory, batchCount, batchConcurrency)
	if err != nil {
		return err
	}

	ux.Title("TinyMoves batch")
	ux.Info(fmt.Sprintf("%d games, concurrency %d", batchCount, batchConcurrency))
	results, err := batch.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("batch aborted: %w", err)
	}

	var store trajectorySaver
	if !batchNoSave {
		s, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		store = s
	}

	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
		}
		score := scoring.Compute(r.Final, reference)
		fmt.Printf("%3d  %-14s jaccard=%.3f accepted=%d rejected=%d  %s\n",
			i, r.Reason, score.Jaccard,
			len(r.Trajectory.AcceptedMoves()), len(r.Trajectory.RejectedMoves()),
			r.GameID)
		if store != nil {
			if err := store.Save(cmd.Context(), r.Trajectory); err != nil {
				return fmt.Errorf("save trajectory %s: %w", r.GameID, err)
			}
		}
	}
	if failed > 0 {
		ux.Warning(fmt.Sprintf("%d of %d games terminated with an error", failed, len(results)))
	}
	ux.Success(fmt.Sprintf("batch complete: %d games", len(results)))
	return nil
}

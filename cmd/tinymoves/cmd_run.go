// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TinyMoves/cmd/tinymoves/config"
	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/game"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var (
	runSeedPath    string
	runFromID      string
	runMaxTurns    int
	runRetryBudget int
	runAdvance     bool
	runRetrievalK  int
	runWithCritic  bool
	runWithStopper bool
	runScriptPath  string
	runGameID      string
	runNoSave      bool
	runShowMoves   bool
)

// runCmd plays a single refinement game from a seed hypothesis (or
// from the final state of a stored trajectory) and saves the
// resulting trajectory.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single hypothesis-refinement game",
	Long: `Runs one game: agents propose typed moves against the current
hypothesis snapshot until a termination condition is met (turn budget,
stop decision, or no applicable moves).

The initial snapshot comes from --seed (a YAML or JSON seed file) or
--from (the final state of a stored trajectory, e.g. one produced by
'tinymoves corrupt').

Examples:
  tinymoves run --seed pathway.yaml
  tinymoves run --seed pathway.yaml --critic --stop-decider
  tinymoves run --from 7d4f... --max-turns 10`,
	RunE: runGameCommand,
}

func init() {
	runCmd.Flags().StringVar(&runSeedPath, "seed", "", "Seed hypothesis file (.yaml or .json)")
	runCmd.Flags().StringVar(&runFromID, "from", "", "Start from the final snapshot of a stored trajectory (game id or file)")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "Turn budget (default from config)")
	runCmd.Flags().IntVar(&runRetryBudget, "retry-budget", 0, "Proposal attempts per turn (default from config)")
	runCmd.Flags().BoolVar(&runAdvance, "advance-on-reject", false, "Advance to the next turn after a rejection instead of retrying")
	runCmd.Flags().IntVar(&runRetrievalK, "retrieval-k", -1, "Context snippets per proposal (default from config)")
	runCmd.Flags().BoolVar(&runWithCritic, "critic", false, "Alternate a critic participant with the proposer")
	runCmd.Flags().BoolVar(&runWithStopper, "stop-decider", false, "Consult an LLM stop decider before each turn")
	runCmd.Flags().StringVar(&runScriptPath, "script", "", "Canned responses for the scripted provider (JSON array of strings)")
	runCmd.Flags().StringVar(&runGameID, "game-id", "", "Use a fixed game id instead of a generated one")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not persist the trajectory to the local store")
	runCmd.Flags().BoolVar(&runShowMoves, "moves", false, "Print every recorded move")
	rootCmd.AddCommand(runCmd)
}

func runGameCommand(cmd *cobra.Command, args []string) error {
	initial, err := initialSnapshotFromFlags(cmd)
	if err != nil {
		return err
	}

	client, err := newProviderClient(runScriptPath)
	if err != nil {
		return err
	}
	registry := moves.DefaultRegistry()

	proposer, err := agents.NewLLMProposer(client, registry)
	if err != nil {
		return err
	}
	participants := []game.Participant{game.ProposerParticipant(proposer)}
	if runWithCritic {
		critic, err := agents.NewLLMCritic(client, registry)
		if err != nil {
			return err
		}
		participants = append(participants, game.CriticParticipant(critic))
	}

	opts := []game.Option{game.WithLogger(logger.Slog())}
	if runGameID != "" {
		opts = append(opts, game.WithGameID(runGameID))
	}
	if runWithStopper {
		stopper, err := agents.NewLLMStopDecider(client)
		if err != nil {
			return err
		}
		opts = append(opts, game.WithStopDecider(stopper))
	}
	retriever, err := newRetriever()
	if err != nil {
		return err
	}
	if retriever != nil {
		opts = append(opts, game.WithRetriever(retriever))
	}

	engine, err := game.NewEngine(gameConfigFromFlags(), registry, initial, participants, opts...)
	if err != nil {
		return err
	}

	ux.Title("TinyMoves")
	ux.Info(fmt.Sprintf("game %s: %d entities, %d relations at start",
		engine.ID(), len(initial.Entities), len(initial.Relations)))

	result, runErr := engine.Run(cmd.Context())
	return reportAndSave(cmd, result, runErr)
}

// initialSnapshotFromFlags resolves --seed / --from into the game's
// starting snapshot. Exactly one of the two must be set.
func initialSnapshotFromFlags(cmd *cobra.Command) (*hypothesis.Snapshot, error) {
	switch {
	case runSeedPath != "" && runFromID != "":
		return nil, errors.New("--seed and --from are mutually exclusive")
	case runSeedPath != "":
		return hypothesis.LoadSnapshot(runSeedPath)
	case runFromID != "":
		t, err := loadTrajectoryArg(cmd.Context(), runFromID)
		if err != nil {
			return nil, err
		}
		return finalSnapshot(t, moves.DefaultRegistry())
	default:
		return nil, errors.New("one of --seed or --from is required")
	}
}

func gameConfigFromFlags() game.Config {
	cfg := game.Config{
		MaxTurns:        config.Global.Game.MaxTurns,
		RetryBudget:     config.Global.Game.RetryBudget,
		AdvanceOnReject: config.Global.Game.AdvanceOnReject || runAdvance,
		RetrievalK:      config.Global.Game.RetrievalK,
	}
	if runMaxTurns > 0 {
		cfg.MaxTurns = runMaxTurns
	}
	if runRetryBudget > 0 {
		cfg.RetryBudget = runRetryBudget
	}
	if runRetrievalK >= 0 {
		cfg.RetrievalK = runRetrievalK
	}
	return cfg
}

// reportAndSave prints the game outcome and persists the trajectory.
// A game-level error is reported but does not suppress saving: the
// partial trajectory is still a valid, scoreable artifact.
func reportAndSave(cmd *cobra.Command, result game.Result, runErr error) error {
	accepted := len(result.Trajectory.AcceptedMoves())
	rejected := len(result.Trajectory.RejectedMoves())
	ux.Box("Game over", ux.GameStatus(result.GameID, result.Reason, accepted, rejected))
	if runShowMoves {
		for _, m := range result.Trajectory.Moves {
			fmt.Println(ux.MoveLine(m))
		}
	}

	if !runNoSave {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.Save(cmd.Context(), result.Trajectory); err != nil {
			return fmt.Errorf("save trajectory: %w", err)
		}
		ux.Success(fmt.Sprintf("trajectory saved as %s", result.GameID))
	}

	if runErr != nil {
		return fmt.Errorf("game terminated with error: %w", runErr)
	}
	return nil
}

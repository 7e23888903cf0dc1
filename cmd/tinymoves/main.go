// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TinyMoves/cmd/tinymoves/config"
	"github.com/AleutianAI/TinyMoves/pkg/logging"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var (
	logLevel  string
	plainMode bool

	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "tinymoves",
		Short: "A CLI for running hypothesis-refinement games",
		Long: `TinyMoves runs turn-based hypothesis-refinement games: LLM agents
propose small typed edits to a pathway hypothesis graph, a rules engine
validates each move, and every game leaves behind a replayable trajectory.

Trajectories can be corrupted, replayed, scored against a reference,
and run in batches for experiments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&plainMode, "plain", false,
		"Disable colored output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if plainMode {
			ux.SetPlain(true)
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger = logging.New(logging.Config{Level: level, Service: "tinymoves"})
		if err := config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	}
}

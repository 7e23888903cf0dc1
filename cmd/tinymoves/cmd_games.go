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

	"github.com/AleutianAI/TinyMoves/pkg/ux"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Manage stored game trajectories",
	Long:  `List, inspect, export, or delete trajectories in the local store.`,
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored trajectories",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		ids, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			ux.Info("no stored trajectories")
			return nil
		}
		for _, id := range ids {
			t, err := store.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			accepted := len(t.AcceptedMoves())
			fmt.Printf("%s  %-20s accepted=%d rejected=%d\n",
				id, t.TerminationReason, accepted, len(t.Moves)-accepted)
		}
		return nil
	},
}

var gamesExportPath string

var gamesExportCmd = &cobra.Command{
	Use:   "export [game-id]",
	Short: "Export a stored trajectory to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		t, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := gamesExportPath
		if out == "" {
			out = args[0] + ".json"
		}
		if err := writeJSONFile(out, t); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("trajectory exported to %s", out))
		return nil
	},
}

var gamesDeleteCmd = &cobra.Command{
	Use:   "delete [game-id]",
	Short: "Delete a stored trajectory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		ux.Success(fmt.Sprintf("deleted %s", args[0]))
		return nil
	},
}

func init() {
	gamesExportCmd.Flags().StringVar(&gamesExportPath, "out", "", "Output file (default <game-id>.json)")
	gamesCmd.AddCommand(gamesListCmd)
	gamesCmd.AddCommand(gamesExportCmd)
	gamesCmd.AddCommand(gamesDeleteCmd)
	rootCmd.AddCommand(gamesCmd)
}

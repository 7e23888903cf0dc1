// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

// relation kinds the corruptor swaps in when reannotating. Chosen to
// be plausible pathway vocabulary so corrupted hypotheses stay
// realistic.
var corruptionKinds = []string{"activates", "inhibits", "binds", "promotes", "suppresses"}

// SeededCorruptor degrades a reference hypothesis with moves sampled
// from a seeded PRNG. Identical seed, reference, and severity always
// produce the identical corruption, and every emitted move is a legal
// registry move, so a corruption run is itself a replayable
// trajectory.
type SeededCorruptor struct {
	registry *moves.Registry
	seed     int64
}

func NewSeededCorruptor(registry *moves.Registry, seed int64) (*SeededCorruptor, error) {
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}
	return &SeededCorruptor{registry: registry, seed: seed}, nil
}

// Corrupt applies severity-many corruptions, where severity in (0,1]
// scales against the reference's element count (at least one). The
// returned records carry gap-free turn indexes and the snapshot id
// after each applied corruption.
func (c *SeededCorruptor) Corrupt(reference *hypothesis.Snapshot, severity float64) (*hypothesis.Snapshot, []trajectory.MoveRecord, error) {
	if reference == nil || reference.ID == "" {
		return nil, nil, errors.New("reference must be a sealed snapshot")
	}
	if severity <= 0 || severity > 1 {
		return nil, nil, fmt.Errorf("severity must be in (0,1], got %v", severity)
	}

	elements := len(reference.Entities) + len(reference.Relations)
	count := int(math.Round(severity * float64(elements)))
	if count < 1 {
		count = 1
	}

	rng := rand.New(rand.NewSource(c.seed))
	current := reference
	var records []trajectory.MoveRecord

	for i := 0; i < count; i++ {
		candidates := c.candidates(current, rng)
		applied := false
		for len(candidates) > 0 {
			pick := rng.Intn(len(candidates))
			intent := candidates[pick]
			next, err := c.registry.Apply(current, intent)
			if err != nil {
				// Candidate turned out inapplicable; drop and resample.
				candidates = append(candidates[:pick], candidates[pick+1:]...)
				continue
			}
			records = append(records, trajectory.MoveRecord{
				TurnIndex:  len(records),
				AgentRole:  RoleCorruptor,
				Operation:  intent.Operation,
				Params:     intent.Params,
				Rationale:  "seeded corruption",
				Accepted:   true,
				SnapshotID: next.ID,
			})
			current = next
			applied = true
			break
		}
		if !applied {
			return nil, nil, fmt.Errorf("no applicable corruption for snapshot %s", current.ID)
		}
	}
	return current, records, nil
}

// candidates enumerates the legal corruption intents for a snapshot.
// Enumeration order is deterministic because snapshot entities and
// relations are kept sorted.
func (c *SeededCorruptor) candidates(snap *hypothesis.Snapshot, rng *rand.Rand) []moves.Intent {
	var out []moves.Intent

	add := func(operation string, params any) {
		raw, err := json.Marshal(params)
		if err != nil {
			return
		}
		out = append(out, moves.Intent{Operation: operation, Params: raw})
	}

	for _, r := range snap.Relations {
		add(moves.OpRemoveRelation, moves.RemoveRelationParams{
			SourceID: r.SourceID, TargetID: r.TargetID, Kind: r.Kind,
		})
		if !snap.HasRelation(r.TargetID, r.SourceID, r.Kind) {
			add(moves.OpInvertRelation, moves.InvertRelationParams{
				SourceID: r.SourceID, TargetID: r.TargetID, Kind: r.Kind,
			})
		}
		newKind := corruptionKinds[rng.Intn(len(corruptionKinds))]
		if newKind != r.Kind && !snap.HasRelation(r.SourceID, r.TargetID, newKind) {
			add(moves.OpReannotateRelation, moves.ReannotateRelationParams{
				SourceID: r.SourceID, TargetID: r.TargetID, Kind: r.Kind, NewKind: newKind,
			})
		}
	}

	for _, e := range snap.Entities {
		add(moves.OpRemoveEntity, moves.RemoveEntityParams{ID: e.ID, Cascade: true})
	}

	// A spurious entity is always a legal corruption, so the
	// candidate set is never empty even after cascade removals.
	spuriousID := fmt.Sprintf("spurious_%d", rng.Intn(1000))
	if _, exists := snap.Entity(spuriousID); !exists {
		add(moves.OpAddEntity, moves.AddEntityParams{ID: spuriousID, Kind: "artifact"})
	}

	return out
}

var _ Corruptor = (*SeededCorruptor)(nil)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hypothesis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalContent is the hashed portion of a snapshot. ParentID and ID
// are excluded so the hash is a pure function of hypothesis content.
type canonicalContent struct {
	Statement string     `json:"statement"`
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// CanonicalJSON returns the deterministic encoding used for hashing:
// entities sorted by id, relations by identity triple, map keys sorted
// by encoding/json.
func (s *Snapshot) CanonicalJSON() ([]byte, error) {
	s.normalize()
	data, err := json.Marshal(canonicalContent{
		Statement: s.Statement,
		Entities:  s.Entities,
		Relations: s.Relations,
	})
	if err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	return data, nil
}

// Seal normalizes the snapshot, validates its invariants, and assigns
// the content-derived id. A sealed snapshot must not be mutated.
//
// Outputs:
//
//	error - Non-nil if the snapshot violates referential integrity or
//	        contains malformed identifiers. The id is left empty.
func (s *Snapshot) Seal() error {
	s.normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := s.CanonicalJSON()
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	s.ID = hex.EncodeToString(sum[:])
	return nil
}

// Seed is the external representation of an initial hypothesis: a
// partial cue for reconstruction runs, a reference pathway, or a
// corrupted variant. Decoded from YAML or JSON reference files.
type Seed struct {
	Statement string     `json:"statement" yaml:"statement"`
	Entities  []Entity   `json:"entities" yaml:"entities"`
	Relations []Relation `json:"relations" yaml:"relations"`
}

// New builds and seals the initial snapshot for a game from seed data.
//
// Inputs:
//
//	seed - Seed content. May be empty (a blank hypothesis) but must
//	       satisfy the structural invariants if populated.
//
// Outputs:
//
//	*Snapshot - Sealed initial snapshot with no parent.
//	error - Non-nil if the seed violates the snapshot invariants.
func New(seed Seed) (*Snapshot, error) {
	snap := &Snapshot{
		Statement: seed.Statement,
		Entities:  append([]Entity(nil), seed.Entities...),
		Relations: append([]Relation(nil), seed.Relations...),
	}
	if err := snap.Seal(); err != nil {
		return nil, fmt.Errorf("seed hypothesis invalid: %w", err)
	}
	return snap, nil
}

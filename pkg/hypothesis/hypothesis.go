// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hypothesis defines the canonical, versioned representation of
// a pathway hypothesis: a typed graph of entities and relations.
//
// A hypothesis evolves through immutable snapshots. Every applied move
// produces a new Snapshot derived from the prior one; a snapshot that
// has been sealed (given its content-derived id) is never mutated.
// Snapshot ids are SHA-256 hashes of the canonical JSON encoding, so
// two snapshots with identical content always carry the same id — this
// is what makes trajectory replay verifiable by id comparison.
package hypothesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/TinyMoves/pkg/validation"
)

// Entity is a pathway element: a gene, protein, complex, compound,
// process, or any other node in the hypothesis graph.
type Entity struct {
	// ID uniquely identifies the entity within a snapshot.
	// Conventionally a gene symbol or namespaced accession.
	ID string `json:"id" yaml:"id"`

	// Kind classifies the entity, e.g. "protein", "gene", "complex".
	Kind string `json:"kind" yaml:"kind"`

	// Attributes holds free-form annotations (localization, state,
	// evidence summaries). Keys and values are plain strings so the
	// canonical encoding stays deterministic.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Relation is a directed, typed edge between two entities.
type Relation struct {
	// SourceID and TargetID must reference entities present in the
	// same snapshot. This is the referential integrity invariant
	// checked after every move.
	SourceID string `json:"source_id" yaml:"source_id"`
	TargetID string `json:"target_id" yaml:"target_id"`

	// Kind names the interaction, e.g. "activates", "inhibits",
	// "phosphorylates", "binds".
	Kind string `json:"kind" yaml:"kind"`

	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Key returns the identity triple of the relation. Two relations with
// the same key are duplicates regardless of attributes.
func (r Relation) Key() string {
	return r.SourceID + "\x1f" + r.TargetID + "\x1f" + r.Kind
}

// Snapshot is one immutable version of a hypothesis.
//
// A Snapshot must be treated as read-only once sealed. Derivations go
// through Mutable() which deep-copies the content.
type Snapshot struct {
	// ID is the SHA-256 hex digest of the canonical encoding of
	// Statement, Entities, and Relations. Empty until sealed.
	ID string `json:"id" yaml:"id"`

	// ParentID is the id of the snapshot this one was derived from.
	// Empty for an initial snapshot. Not part of the content hash.
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// Statement is the prose summary of the hypothesis.
	Statement string `json:"statement" yaml:"statement"`

	// Entities and Relations are kept sorted (by id, and by key) so
	// the canonical encoding is order-independent.
	Entities  []Entity   `json:"entities" yaml:"entities"`
	Relations []Relation `json:"relations" yaml:"relations"`
}

// Entity returns the entity with the given id, or false.
func (s *Snapshot) Entity(id string) (Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// HasRelation reports whether a relation with the same identity triple
// exists in the snapshot.
func (s *Snapshot) HasRelation(sourceID, targetID, kind string) bool {
	for _, r := range s.Relations {
		if r.SourceID == sourceID && r.TargetID == targetID && r.Kind == kind {
			return true
		}
	}
	return false
}

// RelationsInvolving returns every relation with the entity as either
// endpoint.
func (s *Snapshot) RelationsInvolving(entityID string) []Relation {
	var out []Relation
	for _, r := range s.Relations {
		if r.SourceID == entityID || r.TargetID == entityID {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks the structural invariants of the snapshot:
//
//   - entity ids and kinds are well-formed and unique
//   - relation kinds are well-formed
//   - relation identity triples are unique
//   - every relation endpoint references an existing entity
//
// Engines call this after every applied move; a failure means the move
// is rolled back.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Entities))
	for _, e := range s.Entities {
		if err := validation.ValidateEntityID(e.ID); err != nil {
			return err
		}
		if err := validation.ValidateKind(e.Kind); err != nil {
			return fmt.Errorf("entity %s: %w", e.ID, err)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate entity id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	keys := make(map[string]struct{}, len(s.Relations))
	for _, r := range s.Relations {
		if err := validation.ValidateKind(r.Kind); err != nil {
			return fmt.Errorf("relation %s->%s: %w", r.SourceID, r.TargetID, err)
		}
		if _, dup := keys[r.Key()]; dup {
			return fmt.Errorf("duplicate relation %s -[%s]-> %s", r.SourceID, r.Kind, r.TargetID)
		}
		keys[r.Key()] = struct{}{}
		if _, ok := seen[r.SourceID]; !ok {
			return fmt.Errorf("relation source %q references no entity", r.SourceID)
		}
		if _, ok := seen[r.TargetID]; !ok {
			return fmt.Errorf("relation target %q references no entity", r.TargetID)
		}
	}
	return nil
}

// Mutable returns a deep copy of the snapshot with the id cleared and
// ParentID set to the receiver's id. Operations mutate the copy and
// then seal it; the receiver is untouched.
func (s *Snapshot) Mutable() *Snapshot {
	next := &Snapshot{
		ParentID:  s.ID,
		Statement: s.Statement,
		Entities:  make([]Entity, len(s.Entities)),
		Relations: make([]Relation, len(s.Relations)),
	}
	for i, e := range s.Entities {
		next.Entities[i] = Entity{ID: e.ID, Kind: e.Kind, Attributes: copyAttrs(e.Attributes)}
	}
	for i, r := range s.Relations {
		next.Relations[i] = Relation{
			SourceID:   r.SourceID,
			TargetID:   r.TargetID,
			Kind:       r.Kind,
			Attributes: copyAttrs(r.Attributes),
		}
	}
	return next
}

// normalize sorts entities and relations into canonical order.
func (s *Snapshot) normalize() {
	sort.Slice(s.Entities, func(i, j int) bool {
		return s.Entities[i].ID < s.Entities[j].ID
	})
	sort.Slice(s.Relations, func(i, j int) bool {
		return s.Relations[i].Key() < s.Relations[j].Key()
	})
}

// String returns a compact human-readable summary.
func (s *Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hypothesis: %s | Entities: [", s.Statement)
	for i, e := range s.Entities {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.ID)
	}
	b.WriteString("] | Relations: [")
	for i, r := range s.Relations {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s -[%s]-> %s", r.SourceID, r.Kind, r.TargetID)
	}
	b.WriteString("]")
	return b.String()
}

func copyAttrs(attrs map[string]string) map[string]string {
	if attrs == nil {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

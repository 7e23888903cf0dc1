// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

import (
	"fmt"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

// Wire names of the built-in operations.
const (
	OpAddEntity             = "add_entity"
	OpRemoveEntity          = "remove_entity"
	OpSetEntityAttribute    = "set_entity_attribute"
	OpRenameEntityAttribute = "rename_entity_attribute"
	OpMergeEntities         = "merge_entities"
	OpAddRelation           = "add_relation"
	OpRemoveRelation        = "remove_relation"
	OpInvertRelation        = "invert_relation"
	OpReannotateRelation    = "reannotate_relation"
	OpReviseStatement       = "revise_statement"
)

// Builtins returns the full closed set of operation definitions. The
// slice is freshly allocated; the definitions themselves are value
// types, so callers cannot corrupt a shared registry.
func Builtins() []Definition {
	return []Definition{
		{
			Name:      OpAddEntity,
			Summary:   "Introduce a new entity (gene, protein, complex, process) into the hypothesis.",
			newParams: func() Params { return &AddEntityParams{} },
			precondition: func(*hypothesis.Snapshot) bool {
				return true
			},
			apply: applyAddEntity,
		},
		{
			Name:      OpRemoveEntity,
			Summary:   "Remove an entity; cascade removes its relations, otherwise it must be isolated.",
			newParams: func() Params { return &RemoveEntityParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Entities) > 0
			},
			apply: applyRemoveEntity,
		},
		{
			Name:      OpSetEntityAttribute,
			Summary:   "Set or overwrite one attribute on an existing entity.",
			newParams: func() Params { return &SetEntityAttributeParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Entities) > 0
			},
			apply: applySetEntityAttribute,
		},
		{
			Name:      OpRenameEntityAttribute,
			Summary:   "Rename an attribute key on an entity, keeping its value.",
			newParams: func() Params { return &RenameEntityAttributeParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				for _, e := range s.Entities {
					if len(e.Attributes) > 0 {
						return true
					}
				}
				return false
			},
			apply: applyRenameEntityAttribute,
		},
		{
			Name:      OpMergeEntities,
			Summary:   "Merge two entities that name the same biological element; relations are redirected.",
			newParams: func() Params { return &MergeEntitiesParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Entities) >= 2
			},
			apply: applyMergeEntities,
		},
		{
			Name:      OpAddRelation,
			Summary:   "Add a directed typed relation (activates, inhibits, binds, ...) between two entities.",
			newParams: func() Params { return &AddRelationParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Entities) >= 2
			},
			apply: applyAddRelation,
		},
		{
			Name:      OpRemoveRelation,
			Summary:   "Remove the relation with the exact source, target, and kind.",
			newParams: func() Params { return &RemoveRelationParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Relations) > 0
			},
			apply: applyRemoveRelation,
		},
		{
			Name:      OpInvertRelation,
			Summary:   "Swap the direction of an existing relation.",
			newParams: func() Params { return &InvertRelationParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Relations) > 0
			},
			apply: applyInvertRelation,
		},
		{
			Name:      OpReannotateRelation,
			Summary:   "Change the kind of an existing relation, e.g. activates -> inhibits.",
			newParams: func() Params { return &ReannotateRelationParams{} },
			precondition: func(s *hypothesis.Snapshot) bool {
				return len(s.Relations) > 0
			},
			apply: applyReannotateRelation,
		},
		{
			Name:      OpReviseStatement,
			Summary:   "Replace the prose statement summarizing the hypothesis.",
			newParams: func() Params { return &ReviseStatementParams{} },
			precondition: func(*hypothesis.Snapshot) bool {
				return true
			},
			apply: applyReviseStatement,
		},
	}
}

func applyAddEntity(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*AddEntityParams)
	if _, exists := draft.Entity(p.ID); exists {
		return fmt.Errorf("%w: add_entity: entity %q already present", ErrPreconditionUnmet, p.ID)
	}
	draft.Entities = append(draft.Entities, hypothesis.Entity{
		ID:         p.ID,
		Kind:       p.Kind,
		Attributes: p.Attributes,
	})
	return nil
}

func applyRemoveEntity(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*RemoveEntityParams)
	if _, exists := draft.Entity(p.ID); !exists {
		return fmt.Errorf("%w: remove_entity: entity %q not present", ErrPreconditionUnmet, p.ID)
	}
	incident := draft.RelationsInvolving(p.ID)
	if len(incident) > 0 && !p.Cascade {
		return fmt.Errorf("%w: remove_entity: entity %q has %d relations and cascade is false",
			ErrPreconditionUnmet, p.ID, len(incident))
	}

	entities := draft.Entities[:0]
	for _, e := range draft.Entities {
		if e.ID != p.ID {
			entities = append(entities, e)
		}
	}
	draft.Entities = entities

	relations := draft.Relations[:0]
	for _, r := range draft.Relations {
		if r.SourceID != p.ID && r.TargetID != p.ID {
			relations = append(relations, r)
		}
	}
	draft.Relations = relations
	return nil
}

func applySetEntityAttribute(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*SetEntityAttributeParams)
	for i := range draft.Entities {
		if draft.Entities[i].ID == p.EntityID {
			if draft.Entities[i].Attributes == nil {
				draft.Entities[i].Attributes = make(map[string]string)
			}
			draft.Entities[i].Attributes[p.Key] = p.Value
			return nil
		}
	}
	return fmt.Errorf("%w: set_entity_attribute: entity %q not present", ErrPreconditionUnmet, p.EntityID)
}

func applyRenameEntityAttribute(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*RenameEntityAttributeParams)
	for i := range draft.Entities {
		if draft.Entities[i].ID != p.EntityID {
			continue
		}
		attrs := draft.Entities[i].Attributes
		value, ok := attrs[p.From]
		if !ok {
			return fmt.Errorf("%w: rename_entity_attribute: entity %q has no attribute %q",
				ErrPreconditionUnmet, p.EntityID, p.From)
		}
		if _, clash := attrs[p.To]; clash {
			return fmt.Errorf("%w: rename_entity_attribute: entity %q already has attribute %q",
				ErrPreconditionUnmet, p.EntityID, p.To)
		}
		delete(attrs, p.From)
		attrs[p.To] = value
		return nil
	}
	return fmt.Errorf("%w: rename_entity_attribute: entity %q not present", ErrPreconditionUnmet, p.EntityID)
}

func applyMergeEntities(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*MergeEntitiesParams)
	keep, keepOK := draft.Entity(p.KeepID)
	if !keepOK {
		return fmt.Errorf("%w: merge_entities: entity %q not present", ErrPreconditionUnmet, p.KeepID)
	}
	removed, removeOK := draft.Entity(p.RemoveID)
	if !removeOK {
		return fmt.Errorf("%w: merge_entities: entity %q not present", ErrPreconditionUnmet, p.RemoveID)
	}

	// Merge attributes; the kept entity wins on conflict.
	merged := make(map[string]string, len(keep.Attributes)+len(removed.Attributes))
	for k, v := range removed.Attributes {
		merged[k] = v
	}
	for k, v := range keep.Attributes {
		merged[k] = v
	}

	entities := draft.Entities[:0]
	for _, e := range draft.Entities {
		if e.ID == p.RemoveID {
			continue
		}
		if e.ID == p.KeepID && len(merged) > 0 {
			e.Attributes = merged
		}
		entities = append(entities, e)
	}
	draft.Entities = entities

	// Redirect relations, dropping self-loops and duplicates the
	// redirection creates.
	seen := make(map[string]struct{}, len(draft.Relations))
	relations := draft.Relations[:0]
	for _, r := range draft.Relations {
		if r.SourceID == p.RemoveID {
			r.SourceID = p.KeepID
		}
		if r.TargetID == p.RemoveID {
			r.TargetID = p.KeepID
		}
		if r.SourceID == r.TargetID {
			continue
		}
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		relations = append(relations, r)
	}
	draft.Relations = relations
	return nil
}

func applyAddRelation(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*AddRelationParams)
	if _, ok := draft.Entity(p.SourceID); !ok {
		return fmt.Errorf("%w: add_relation: source %q not present", ErrPreconditionUnmet, p.SourceID)
	}
	if _, ok := draft.Entity(p.TargetID); !ok {
		return fmt.Errorf("%w: add_relation: target %q not present", ErrPreconditionUnmet, p.TargetID)
	}
	if draft.HasRelation(p.SourceID, p.TargetID, p.Kind) {
		return fmt.Errorf("%w: add_relation: %s -[%s]-> %s already present",
			ErrPreconditionUnmet, p.SourceID, p.Kind, p.TargetID)
	}
	draft.Relations = append(draft.Relations, hypothesis.Relation{
		SourceID:   p.SourceID,
		TargetID:   p.TargetID,
		Kind:       p.Kind,
		Attributes: p.Attributes,
	})
	return nil
}

func applyRemoveRelation(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*RemoveRelationParams)
	if !draft.HasRelation(p.SourceID, p.TargetID, p.Kind) {
		return fmt.Errorf("%w: remove_relation: %s -[%s]-> %s not present",
			ErrPreconditionUnmet, p.SourceID, p.Kind, p.TargetID)
	}
	relations := draft.Relations[:0]
	for _, r := range draft.Relations {
		if r.SourceID == p.SourceID && r.TargetID == p.TargetID && r.Kind == p.Kind {
			continue
		}
		relations = append(relations, r)
	}
	draft.Relations = relations
	return nil
}

func applyInvertRelation(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*InvertRelationParams)
	if !draft.HasRelation(p.SourceID, p.TargetID, p.Kind) {
		return fmt.Errorf("%w: invert_relation: %s -[%s]-> %s not present",
			ErrPreconditionUnmet, p.SourceID, p.Kind, p.TargetID)
	}
	if draft.HasRelation(p.TargetID, p.SourceID, p.Kind) {
		return fmt.Errorf("%w: invert_relation: inverse %s -[%s]-> %s already present",
			ErrPreconditionUnmet, p.TargetID, p.Kind, p.SourceID)
	}
	for i := range draft.Relations {
		r := &draft.Relations[i]
		if r.SourceID == p.SourceID && r.TargetID == p.TargetID && r.Kind == p.Kind {
			r.SourceID, r.TargetID = r.TargetID, r.SourceID
			return nil
		}
	}
	return fmt.Errorf("%w: invert_relation: relation vanished during apply", ErrPreconditionUnmet)
}

func applyReannotateRelation(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*ReannotateRelationParams)
	if !draft.HasRelation(p.SourceID, p.TargetID, p.Kind) {
		return fmt.Errorf("%w: reannotate_relation: %s -[%s]-> %s not present",
			ErrPreconditionUnmet, p.SourceID, p.Kind, p.TargetID)
	}
	if draft.HasRelation(p.SourceID, p.TargetID, p.NewKind) {
		return fmt.Errorf("%w: reannotate_relation: %s -[%s]-> %s already present",
			ErrPreconditionUnmet, p.SourceID, p.NewKind, p.TargetID)
	}
	for i := range draft.Relations {
		r := &draft.Relations[i]
		if r.SourceID == p.SourceID && r.TargetID == p.TargetID && r.Kind == p.Kind {
			r.Kind = p.NewKind
			return nil
		}
	}
	return fmt.Errorf("%w: reannotate_relation: relation vanished during apply", ErrPreconditionUnmet)
}

func applyReviseStatement(draft *hypothesis.Snapshot, params Params) error {
	p := params.(*ReviseStatementParams)
	if draft.Statement == p.Statement {
		return fmt.Errorf("%w: revise_statement: statement is unchanged", ErrPreconditionUnmet)
	}
	draft.Statement = p.Statement
	return nil
}

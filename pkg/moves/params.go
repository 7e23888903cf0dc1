// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

// Parameter schemas for the built-in operations. Validation tags are
// the declared schema; decoding is strict, so unknown fields and type
// mismatches are schema violations.

// AddEntityParams introduces a new entity into the hypothesis.
type AddEntityParams struct {
	ID         string            `json:"id" validate:"required"`
	Kind       string            `json:"kind" validate:"required"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (AddEntityParams) operationName() string { return OpAddEntity }

// RemoveEntityParams removes an entity. Unless Cascade is set, the
// entity must have no incident relations.
type RemoveEntityParams struct {
	ID      string `json:"id" validate:"required"`
	Cascade bool   `json:"cascade,omitempty"`
}

func (RemoveEntityParams) operationName() string { return OpRemoveEntity }

// SetEntityAttributeParams sets or overwrites one attribute.
type SetEntityAttributeParams struct {
	EntityID string `json:"entity_id" validate:"required"`
	Key      string `json:"key" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

func (SetEntityAttributeParams) operationName() string { return OpSetEntityAttribute }

// RenameEntityAttributeParams renames an attribute key, keeping its
// value.
type RenameEntityAttributeParams struct {
	EntityID string `json:"entity_id" validate:"required"`
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required,nefield=From"`
}

func (RenameEntityAttributeParams) operationName() string { return OpRenameEntityAttribute }

// MergeEntitiesParams merges RemoveID into KeepID: relations are
// redirected, attributes are merged with KeepID winning on conflict,
// and the removed entity disappears.
type MergeEntitiesParams struct {
	KeepID   string `json:"keep_id" validate:"required"`
	RemoveID string `json:"remove_id" validate:"required,nefield=KeepID"`
}

func (MergeEntitiesParams) operationName() string { return OpMergeEntities }

// AddRelationParams adds a directed typed relation between two
// existing entities.
type AddRelationParams struct {
	SourceID   string            `json:"source_id" validate:"required"`
	TargetID   string            `json:"target_id" validate:"required"`
	Kind       string            `json:"kind" validate:"required"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (AddRelationParams) operationName() string { return OpAddRelation }

// RemoveRelationParams removes the relation with the exact identity
// triple.
type RemoveRelationParams struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
}

func (RemoveRelationParams) operationName() string { return OpRemoveRelation }

// InvertRelationParams swaps the direction of a relation.
type InvertRelationParams struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
}

func (InvertRelationParams) operationName() string { return OpInvertRelation }

// ReannotateRelationParams changes the kind of a relation, e.g.
// "activates" -> "inhibits".
type ReannotateRelationParams struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
	NewKind  string `json:"new_kind" validate:"required,nefield=Kind"`
}

func (ReannotateRelationParams) operationName() string { return OpReannotateRelation }

// ReviseStatementParams replaces the prose statement of the
// hypothesis.
type ReviseStatementParams struct {
	Statement string `json:"statement" validate:"required"`
}

func (ReviseStatementParams) operationName() string { return OpReviseStatement }

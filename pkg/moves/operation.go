// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package moves defines the grammar of legal hypothesis transformations:
// a closed set of operation kinds, each with a declared parameter schema
// and a pure apply function, dispatched through a read-only registry.
//
// An agent proposes an Intent (operation name + raw params). The
// registry decodes the params strictly against the operation's schema,
// checks the operation's precondition against the current snapshot,
// applies it to a copy, and seals the result. Application is
// deterministic and total over well-formed params; ill-formed params
// are rejected with ErrSchemaViolation, never coerced.
package moves

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

// validate is the shared schema validator. validator.Validate is safe
// for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Intent is an agent's request to apply one operation. Params stay raw
// until the registry decodes them against the operation's schema.
type Intent struct {
	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params"`
}

// Params is implemented by every operation parameter struct. The
// apply function receives the decoded, schema-validated value.
type Params interface {
	// operationName ties a params struct to its operation; it keeps
	// the set of operations closed within this package.
	operationName() string
}

// ApplyFunc transforms a mutable draft snapshot in place. The draft is
// a deep copy of the previous head; the function returns
// ErrPreconditionUnmet when the operation does not apply to this
// particular snapshot state.
type ApplyFunc func(draft *hypothesis.Snapshot, params Params) error

// PreconditionFunc reports whether an operation is applicable at all
// to the given snapshot (class-level check used by ListApplicable).
type PreconditionFunc func(snap *hypothesis.Snapshot) bool

// Definition describes one registered operation kind.
type Definition struct {
	// Name is the operation's wire name, lowercase snake_case.
	Name string

	// Summary is a one-line description surfaced to agents when the
	// proposal prompt lists applicable operations.
	Summary string

	// newParams returns a zero value of the operation's params
	// struct for strict decoding.
	newParams func() Params

	precondition PreconditionFunc
	apply        ApplyFunc
}

// Applicable reports whether the operation's class-level precondition
// holds for the snapshot.
func (d Definition) Applicable(snap *hypothesis.Snapshot) bool {
	if d.precondition == nil {
		return true
	}
	return d.precondition(snap)
}

// DecodeParams strictly decodes raw JSON into the operation's params
// struct and validates it against the declared schema.
//
// Outputs:
//
//	Params - The decoded value, ready for Apply.
//	error - ErrSchemaViolation (wrapped) on unknown fields, type
//	        mismatches, or constraint failures.
func (d Definition) DecodeParams(raw json.RawMessage) (Params, error) {
	p := d.newParams()
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaViolation, d.Name, err)
	}
	// A second token means trailing garbage after the params object.
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after params", ErrSchemaViolation, d.Name)
	}
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaViolation, d.Name, err)
	}
	return p, nil
}

// Apply runs the full validated application pipeline for an intent
// against a sealed snapshot:
//
//  1. strict params decoding and schema validation
//  2. class-level precondition check
//  3. pure application to a deep copy
//  4. seal (referential integrity validation + content id)
//
// The input snapshot is never mutated. On any error the draft is
// discarded, which is the rollback guarantee.
func (d Definition) Apply(snap *hypothesis.Snapshot, raw json.RawMessage) (*hypothesis.Snapshot, error) {
	params, err := d.DecodeParams(raw)
	if err != nil {
		return nil, err
	}
	if !d.Applicable(snap) {
		return nil, fmt.Errorf("%w: %s is not applicable to the current snapshot", ErrPreconditionUnmet, d.Name)
	}
	draft := snap.Mutable()
	if err := d.apply(draft, params); err != nil {
		return nil, err
	}
	if err := draft.Seal(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReferentialIntegrity, d.Name, err)
	}
	return draft, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/validation"
)

// Registry is the process-wide catalog of legal operations. It is
// built once at startup and read-only afterwards, so any number of
// concurrent games can share one instance without locking.
type Registry struct {
	defs  map[string]Definition
	names []string
}

// NewRegistry builds a registry from the given definitions.
//
// Outputs:
//
//	*Registry - Immutable registry.
//	error - Non-nil on malformed or duplicate operation names.
func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("registry requires at least one operation")
	}
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := validation.ValidateOperationName(d.Name); err != nil {
			return nil, err
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("operation %q registered twice", d.Name)
		}
		if d.newParams == nil || d.apply == nil {
			return nil, fmt.Errorf("operation %q is missing its schema or apply function", d.Name)
		}
		r.defs[d.Name] = d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// DefaultRegistry returns a registry with every built-in operation
// enabled.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtins())
	if err != nil {
		// Builtins are static; a failure here is a programming error.
		panic(err)
	}
	return r
}

// Resolve returns the definition for the named operation.
func (r *Registry) Resolve(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return d, nil
}

// Names returns the sorted operation names.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// ListApplicable returns the definitions whose class-level
// preconditions hold against the snapshot, in name order.
func (r *Registry) ListApplicable(snap *hypothesis.Snapshot) []Definition {
	var out []Definition
	for _, name := range r.names {
		d := r.defs[name]
		if d.Applicable(snap) {
			out = append(out, d)
		}
	}
	return out
}

// Apply resolves and applies an intent against a sealed snapshot.
// This is the single entry point the engine uses; see
// Definition.Apply for the pipeline.
func (r *Registry) Apply(snap *hypothesis.Snapshot, intent Intent) (*hypothesis.Snapshot, error) {
	d, err := r.Resolve(intent.Operation)
	if err != nil {
		return nil, err
	}
	raw := intent.Params
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return d.Apply(snap, raw)
}

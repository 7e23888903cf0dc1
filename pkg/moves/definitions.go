// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionsFile is the declarative move configuration format:
//
//	operations:
//	  - name: add_entity
//	  - name: remove_entity
//	    enabled: false
//	  - name: add_relation
//	    summary: "Custom summary shown to agents."
//
// Every listed name must be a built-in operation; `enabled` defaults
// to true; `summary` overrides the built-in one-liner in proposal
// prompts.
type definitionsFile struct {
	Operations []operationConfig `yaml:"operations"`
}

type operationConfig struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
	Summary string `yaml:"summary"`
}

// LoadRegistry builds a registry from a declarative YAML definitions
// file. This is called once at process start; the result is shared
// read-only across all games.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read move definitions: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from YAML definitions content.
func ParseRegistry(data []byte) (*Registry, error) {
	var file definitionsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse move definitions: %w", err)
	}
	if len(file.Operations) == 0 {
		return nil, fmt.Errorf("move definitions list no operations")
	}

	builtins := make(map[string]Definition, len(Builtins()))
	for _, d := range Builtins() {
		builtins[d.Name] = d
	}

	var defs []Definition
	for _, op := range file.Operations {
		d, ok := builtins[op.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in move definitions", ErrUnknownOperation, op.Name)
		}
		if op.Enabled != nil && !*op.Enabled {
			continue
		}
		if op.Summary != "" {
			d.Summary = op.Summary
		}
		defs = append(defs, d)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("move definitions disable every operation")
	}
	return NewRegistry(defs)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for identifiers that
// cross trust boundaries: entity ids, kind labels, and operation names
// arrive from config files, LLM completions, and HTTP requests, and
// are embedded in store keys and queries.
package validation

import (
	"fmt"
	"regexp"
)

const maxIdentifierLen = 128

// identifierPattern matches safe identifiers: must start with a letter,
// then letters, digits, underscore, hyphen, dot, or colon (colon allows
// namespaced ids like "UniProt:P04637").
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_\-.:]*$`)

// operationPattern is stricter: lowercase snake_case only, matching the
// declarative move definition files.
var operationPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateEntityID checks that an entity id is safe to use in store
// keys and retrieval queries.
func ValidateEntityID(id string) error {
	if id == "" {
		return fmt.Errorf("entity id must not be empty")
	}
	if len(id) > maxIdentifierLen {
		return fmt.Errorf("entity id exceeds %d characters", maxIdentifierLen)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("entity id %q contains invalid characters", id)
	}
	return nil
}

// ValidateKind checks an entity or relation kind label.
func ValidateKind(kind string) error {
	if kind == "" {
		return fmt.Errorf("kind must not be empty")
	}
	if len(kind) > maxIdentifierLen {
		return fmt.Errorf("kind exceeds %d characters", maxIdentifierLen)
	}
	if !identifierPattern.MatchString(kind) {
		return fmt.Errorf("kind %q contains invalid characters", kind)
	}
	return nil
}

// ValidateOperationName checks an operation name against the snake_case
// convention used by the move definition files.
func ValidateOperationName(name string) error {
	if name == "" {
		return fmt.Errorf("operation name must not be empty")
	}
	if len(name) > maxIdentifierLen {
		return fmt.Errorf("operation name exceeds %d characters", maxIdentifierLen)
	}
	if !operationPattern.MatchString(name) {
		return fmt.Errorf("operation name %q is not lowercase snake_case", name)
	}
	return nil
}

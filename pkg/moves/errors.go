// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

import "errors"

// Sentinel error kinds for move validation and application. Callers
// classify failures with errors.Is; the wrapped message carries the
// operation name and the specific reason.
var (
	// ErrUnknownOperation is returned when an intent names an
	// operation that is not registered.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrSchemaViolation is returned when operation params fail
	// strict decoding or schema validation. Params are never
	// silently coerced.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrPreconditionUnmet is returned when an operation is not
	// applicable to the current snapshot, either class-level (no
	// relation to remove) or instance-level (duplicate relation).
	ErrPreconditionUnmet = errors.New("precondition unmet")

	// ErrReferentialIntegrity is returned when an applied operation
	// produces a snapshot with dangling references. It indicates a
	// defect in the operation implementation; the move is rolled
	// back and never retried.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hypothesis

import (
	"fmt"
)

// Arena holds every snapshot produced during one game, indexed by id,
// plus a head pointer to the current version. Moves insert a new
// snapshot and advance the head; nothing is ever removed or replaced,
// which keeps replay and rollback trivial.
//
// An Arena belongs to a single game and is driven by that game's
// sequential turn loop, so it needs no internal locking.
type Arena struct {
	snapshots map[string]*Snapshot
	order     []string
	headID    string
}

// NewArena creates an arena seeded with the initial snapshot.
func NewArena(initial *Snapshot) (*Arena, error) {
	if initial == nil || initial.ID == "" {
		return nil, fmt.Errorf("initial snapshot must be sealed")
	}
	return &Arena{
		snapshots: map[string]*Snapshot{initial.ID: initial},
		order:     []string{initial.ID},
		headID:    initial.ID,
	}, nil
}

// Head returns the current snapshot.
func (a *Arena) Head() *Snapshot {
	return a.snapshots[a.headID]
}

// InitialID returns the id of the first snapshot in the arena.
func (a *Arena) InitialID() string {
	return a.order[0]
}

// Get returns the snapshot with the given id.
func (a *Arena) Get(id string) (*Snapshot, bool) {
	s, ok := a.snapshots[id]
	return s, ok
}

// Len returns the number of snapshots stored.
func (a *Arena) Len() int {
	return len(a.snapshots)
}

// Advance inserts a sealed snapshot and moves the head to it.
//
// The snapshot must be sealed and must descend from the current head;
// this enforces the serializability rule that every move is a function
// of the immediately preceding snapshot.
func (a *Arena) Advance(next *Snapshot) error {
	if next == nil || next.ID == "" {
		return fmt.Errorf("cannot advance to unsealed snapshot")
	}
	if next.ParentID != a.headID {
		return fmt.Errorf("snapshot parent %s is not the current head %s", next.ParentID, a.headID)
	}
	// Content-identical snapshots share an id; the head still moves.
	if _, exists := a.snapshots[next.ID]; !exists {
		a.snapshots[next.ID] = next
		a.order = append(a.order, next.ID)
	}
	a.headID = next.ID
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package moves

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

func TestResolveUnknownOperation(t *testing.T) {
	reg := DefaultRegistry()
	_, err := reg.Resolve("transmogrify")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestListApplicableOnEmptyHypothesis(t *testing.T) {
	reg := DefaultRegistry()
	empty, err := hypothesis.New(hypothesis.Seed{Statement: "blank"})
	require.NoError(t, err)

	applicable := reg.ListApplicable(empty)
	names := make(map[string]bool, len(applicable))
	for _, d := range applicable {
		names[d.Name] = true
	}

	assert.True(t, names[OpAddEntity])
	assert.True(t, names[OpReviseStatement])
	assert.False(t, names[OpRemoveEntity], "nothing to remove")
	assert.False(t, names[OpAddRelation], "needs two entities")
	assert.False(t, names[OpRemoveRelation], "no relations yet")
	assert.False(t, names[OpMergeEntities])
}

func TestListApplicableOrderIsStable(t *testing.T) {
	reg := DefaultRegistry()
	snap, err := hypothesis.New(hypothesis.Seed{
		Statement: "s",
		Entities: []hypothesis.Entity{
			{ID: "A", Kind: "protein"},
			{ID: "B", Kind: "protein"},
		},
		Relations: []hypothesis.Relation{
			{SourceID: "A", TargetID: "B", Kind: "activates"},
		},
	})
	require.NoError(t, err)

	first := reg.ListApplicable(snap)
	second := reg.ListApplicable(snap)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
	// Sorted by name.
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].Name, first[i].Name)
	}
}

func TestParseRegistryDefinitions(t *testing.T) {
	yamlDefs := []byte(`
operations:
  - name: add_entity
  - name: add_relation
    summary: "Link two pathway elements."
  - name: remove_relation
    enabled: false
`)
	reg, err := ParseRegistry(yamlDefs)
	require.NoError(t, err)

	assert.Equal(t, []string{"add_entity", "add_relation"}, reg.Names())

	d, err := reg.Resolve("add_relation")
	require.NoError(t, err)
	assert.Equal(t, "Link two pathway elements.", d.Summary)

	_, err = reg.Resolve("remove_relation")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestParseRegistryRejectsUnknownOperation(t *testing.T) {
	_, err := ParseRegistry([]byte("operations:\n  - name: transmogrify\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestParseRegistryRejectsUnknownFields(t *testing.T) {
	_, err := ParseRegistry([]byte("operations:\n  - name: add_entity\n    cost: 3\n"))
	require.Error(t, err)
}

func TestParseRegistryRejectsEmpty(t *testing.T) {
	_, err := ParseRegistry([]byte("operations: []\n"))
	require.Error(t, err)

	_, err = ParseRegistry([]byte("operations:\n  - name: add_entity\n    enabled: false\n"))
	require.Error(t, err)
}

func TestNewRegistryRejectsBadNames(t *testing.T) {
	defs := Builtins()
	defs[0].Name = "Add-Entity"
	_, err := NewRegistry(defs)
	require.Error(t, err)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus(t *testing.T) *CorpusRetriever {
	t.Helper()
	r, err := NewCorpusRetriever([]Document{
		{Source: "doc-egfr", Text: "EGFR activates RAS which promotes cell proliferation"},
		{Source: "doc-tp53", Text: "TP53 suppresses tumor growth through apoptosis"},
		{Source: "doc-mdm2", Text: "MDM2 inhibits TP53 by targeting it for degradation"},
	})
	require.NoError(t, err)
	return r
}

func TestCorpusRetrieveRanksbyOverlap(t *testing.T) {
	r := testCorpus(t)

	snippets, err := r.Retrieve(context.Background(), "TP53 tumor suppression", 3)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	assert.Equal(t, "doc-tp53", snippets[0].Source)

	for i := 1; i < len(snippets); i++ {
		assert.GreaterOrEqual(t, snippets[i-1].Score, snippets[i].Score)
	}
}

func TestCorpusRetrieveIsDeterministic(t *testing.T) {
	r := testCorpus(t)
	assert.True(t, r.Deterministic())

	first, err := r.Retrieve(context.Background(), "TP53 degradation", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), "TP53 degradation", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCorpusRetrieveLimitsToK(t *testing.T) {
	r := testCorpus(t)

	snippets, err := r.Retrieve(context.Background(), "TP53 EGFR RAS proliferation", 1)
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestCorpusRetrieveNoMatches(t *testing.T) {
	r := testCorpus(t)

	snippets, err := r.Retrieve(context.Background(), "quantum chromodynamics", 5)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestCorpusRetrieveValidation(t *testing.T) {
	r := testCorpus(t)

	_, err := r.Retrieve(context.Background(), "", 3)
	assert.Error(t, err)

	_, err = r.Retrieve(context.Background(), "TP53", 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Retrieve(ctx, "TP53", 3)
	assert.Error(t, err)
}

func TestCorpusRejectsBadDocuments(t *testing.T) {
	_, err := NewCorpusRetriever([]Document{{Text: "no source"}})
	assert.Error(t, err)

	_, err = NewCorpusRetriever([]Document{
		{Source: "dup", Text: "a"},
		{Source: "dup", Text: "b"},
	})
	assert.Error(t, err)
}

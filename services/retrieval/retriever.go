// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package retrieval supplies context snippets to proposing agents.
// Implementations declare whether they are deterministic: for
// identical query and corpus state a deterministic retriever returns
// identical ordered results, which replayable experiments require.
package retrieval

import "context"

// Snippet is one retrieved context passage, ordered most relevant
// first.
type Snippet struct {
	// Source identifies where the snippet came from (document id,
	// Weaviate object id, corpus key).
	Source string `json:"source"`

	Text string `json:"text"`

	// Score is the retriever's relevance score; higher is better.
	// Scores are comparable only within one result set.
	Score float64 `json:"score"`
}

// Retriever fetches the k most relevant snippets for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)

	// Deterministic reports whether identical query and corpus
	// state always yield identical results.
	Deterministic() bool
}

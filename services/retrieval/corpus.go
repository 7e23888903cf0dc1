// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Document is one corpus entry for the in-memory retriever.
type Document struct {
	Source string `json:"source" yaml:"source"`
	Text   string `json:"text" yaml:"text"`
}

// CorpusRetriever ranks a fixed in-memory corpus by token overlap
// with the query. Ranking is fully deterministic: ties break on
// source id, so identical queries against the same corpus always
// return the same ordered snippets. Used for tests and offline runs.
type CorpusRetriever struct {
	docs   []Document
	tokens []map[string]bool
}

// NewCorpusRetriever indexes the documents. Document sources must be
// unique and non-empty.
func NewCorpusRetriever(docs []Document) (*CorpusRetriever, error) {
	seen := make(map[string]bool, len(docs))
	indexed := make([]map[string]bool, len(docs))
	for i, d := range docs {
		if d.Source == "" {
			return nil, fmt.Errorf("document %d has no source", i)
		}
		if seen[d.Source] {
			return nil, fmt.Errorf("duplicate document source %q", d.Source)
		}
		seen[d.Source] = true
		indexed[i] = tokenize(d.Text)
	}
	return &CorpusRetriever{docs: docs, tokens: indexed}, nil
}

func (r *CorpusRetriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryTokens := tokenize(query)
	scored := make([]Snippet, 0, len(r.docs))
	for i, d := range r.docs {
		score := overlap(queryTokens, r.tokens[i])
		if score > 0 {
			scored = append(scored, Snippet{Source: d.Source, Text: d.Text, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Source < scored[j].Source
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (r *CorpusRetriever) Deterministic() bool {
	return true
}

// Len returns the corpus size.
func (r *CorpusRetriever) Len() int {
	return len(r.docs)
}

func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[tok] = true
	}
	return out
}

// overlap is the fraction of query tokens present in the document.
func overlap(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for tok := range query {
		if doc[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

var _ Retriever = (*CorpusRetriever)(nil)

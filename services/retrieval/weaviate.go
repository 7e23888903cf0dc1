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
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// WeaviateConfig configures the semantic retriever.
type WeaviateConfig struct {
	// URL of the Weaviate instance, with or without scheme.
	URL string

	// ClassName is the Weaviate class holding the corpus documents.
	ClassName string

	// TextProperty and SourceProperty name the fields read back.
	TextProperty   string
	SourceProperty string
}

func (c *WeaviateConfig) applyDefaults() {
	if c.ClassName == "" {
		c.ClassName = "PathwayDocument"
	}
	if c.TextProperty == "" {
		c.TextProperty = "text"
	}
	if c.SourceProperty == "" {
		c.SourceProperty = "source"
	}
}

// WeaviateRetriever retrieves corpus passages by nearText semantic
// search. Vector search ordering depends on the remote index, so this
// retriever reports itself non-deterministic.
type WeaviateRetriever struct {
	client *weaviate.Client
	config WeaviateConfig
}

// NewWeaviateRetriever connects to a Weaviate instance.
func NewWeaviateRetriever(config WeaviateConfig) (*WeaviateRetriever, error) {
	if config.URL == "" {
		return nil, errors.New("weaviate URL is required")
	}
	config.applyDefaults()

	cfg := weaviate.Config{
		Host:   config.URL,
		Scheme: "http",
	}
	if strings.HasPrefix(config.URL, "https://") {
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(config.URL, "https://")
	} else if strings.HasPrefix(config.URL, "http://") {
		cfg.Host = strings.TrimPrefix(config.URL, "http://")
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateRetriever{client: client, config: config}, nil
}

func (r *WeaviateRetriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	nearText := r.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: r.config.TextProperty},
		{Name: r.config.SourceProperty},
		{Name: "_additional { certainty }"},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.config.ClassName).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search error: %s", result.Errors[0].Message)
	}

	snippets, err := r.parseResults(result)
	if err != nil {
		return nil, err
	}
	slog.Debug("Retrieved context snippets",
		"query", query, "requested", k, "returned", len(snippets))
	return snippets, nil
}

// Deterministic is false: remote vector index ordering is not
// reproducible across corpus updates or re-indexing.
func (r *WeaviateRetriever) Deterministic() bool {
	return false
}

func (r *WeaviateRetriever) parseResults(result *models.GraphQLResponse) ([]Snippet, error) {
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, errors.New("malformed response: missing Get")
	}
	items, ok := get[r.config.ClassName].([]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed response: missing class %s", r.config.ClassName)
	}

	snippets := make([]Snippet, 0, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		snippet := Snippet{}
		if text, ok := obj[r.config.TextProperty].(string); ok {
			snippet.Text = text
		}
		if source, ok := obj[r.config.SourceProperty].(string); ok {
			snippet.Source = source
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				snippet.Score = certainty
			}
		}
		snippets = append(snippets, snippet)
	}
	return snippets, nil
}

var _ Retriever = (*WeaviateRetriever)(nil)

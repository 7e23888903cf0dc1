// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/TinyMoves/cmd/tinymoves/config"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/llm"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
	"github.com/AleutianAI/TinyMoves/services/storage"
	"github.com/AleutianAI/TinyMoves/services/storage/badger"
)

// newProviderClient builds the completion client from the provider
// section of the config. A scripted provider requires scriptPath, a
// JSON array of canned responses; the openai provider is wrapped in
// the retrying client with a shared rate limiter.
func newProviderClient(scriptPath string) (llm.Client, error) {
	cfg := config.Global.Provider
	switch cfg.Type {
	case "scripted":
		if scriptPath == "" {
			return nil, fmt.Errorf("provider type %q requires --script", cfg.Type)
		}
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("read script file: %w", err)
		}
		var responses []string
		if err := json.Unmarshal(data, &responses); err != nil {
			return nil, fmt.Errorf("parse script file (want a JSON array of strings): %w", err)
		}
		return llm.Script(responses...), nil
	case "openai":
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			Model:        cfg.Model,
			BaseURL:      cfg.BaseURL,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return llm.NewRetryingClient(client, llm.RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Second,
			Limiter:        rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// newRetriever builds the configured context retriever, or returns
// nil when retrieval is disabled.
func newRetriever() (retrieval.Retriever, error) {
	cfg := config.Global.Retrieval
	switch cfg.Type {
	case "none":
		return nil, nil
	case "weaviate":
		return retrieval.NewWeaviateRetriever(retrieval.WeaviateConfig{
			URL:       cfg.URL,
			ClassName: cfg.ClassName,
		})
	case "corpus":
		docs, err := loadCorpus(config.ExpandPath(cfg.CorpusPath))
		if err != nil {
			return nil, err
		}
		return retrieval.NewCorpusRetriever(docs)
	default:
		return nil, fmt.Errorf("unknown retrieval type %q", cfg.Type)
	}
}

// loadCorpus reads documents for the deterministic retriever. A
// directory is walked for .txt and .md files (source = relative
// path); a single file must be a JSON array of documents.
func loadCorpus(path string) ([]retrieval.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("corpus path: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus file: %w", err)
		}
		var docs []retrieval.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parse corpus file (want a JSON array of documents): %w", err)
		}
		return docs, nil
	}

	var docs []retrieval.Document
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			rel = p
		}
		docs = append(docs, retrieval.Document{Source: rel, Text: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus directory: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus directory %s holds no .txt or .md files", path)
	}
	return docs, nil
}

// trajectorySaver is the slice of the store the batch command needs.
// A nil saver means persistence is disabled.
type trajectorySaver interface {
	Save(ctx context.Context, t trajectory.Trajectory) error
}

// openStore opens the local trajectory store. The caller must invoke
// the returned close function.
func openStore() (*storage.TrajectoryStore, func(), error) {
	cfg := badger.DefaultConfig()
	cfg.Path = config.ExpandPath(config.Global.Storage.Path)
	cfg.Logger = logger.Slog()
	db, err := badger.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open trajectory store: %w", err)
	}
	store, err := storage.NewTrajectoryStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing trajectory store", "error", err)
		}
	}
	return store, closeFn, nil
}

// loadTrajectoryArg loads a trajectory from a file path if arg names
// an existing file, otherwise treats arg as a game id in the store.
func loadTrajectoryArg(ctx context.Context, arg string) (trajectory.Trajectory, error) {
	if _, err := os.Stat(arg); err == nil {
		data, err := os.ReadFile(arg)
		if err != nil {
			return trajectory.Trajectory{}, fmt.Errorf("read trajectory file: %w", err)
		}
		return trajectory.Unmarshal(data)
	}
	store, closeStore, err := openStore()
	if err != nil {
		return trajectory.Trajectory{}, err
	}
	defer closeStore()
	t, err := store.Load(ctx, arg)
	if err != nil {
		return trajectory.Trajectory{}, fmt.Errorf("load trajectory %q: %w", arg, err)
	}
	return t, nil
}

// finalSnapshot replays a trajectory and returns its last snapshot,
// falling back to the initial snapshot for a move-free trajectory.
func finalSnapshot(t trajectory.Trajectory, registry *moves.Registry) (*hypothesis.Snapshot, error) {
	snaps, err := trajectory.Replay(t, registry)
	if err != nil {
		return nil, fmt.Errorf("replay trajectory: %w", err)
	}
	if len(snaps) == 0 {
		return t.Initial, nil
	}
	return snaps[len(snaps)-1], nil
}

// writeJSONFile marshals v with indentation and writes it to path.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

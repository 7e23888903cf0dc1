// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// EngineFactory builds the engine for batch case i. Factories give
// each case its own agents and initial snapshot while sharing the
// read-only registry and, typically, one rate-limited provider
// client.
type EngineFactory func(i int) (*Engine, error)

// Batch runs independent games in parallel. Games share no state, so
// the only coordination is the concurrency cap.
type Batch struct {
	factory     EngineFactory
	cases       int
	concurrency int
}

// NewBatch configures a run of n cases with at most concurrency games
// in flight.
func NewBatch(factory EngineFactory, n, concurrency int) (*Batch, error) {
	if factory == nil {
		return nil, errors.New("factory must not be nil")
	}
	if n <= 0 {
		return nil, fmt.Errorf("case count must be positive, got %d", n)
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	return &Batch{factory: factory, cases: n, concurrency: concurrency}, nil
}

// Run plays every case and returns results in case order. Games that
// terminate with ReasonError still yield their Result; only engine
// construction failures or context cancellation abort the batch.
func (b *Batch) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, b.cases)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := 0; i < b.cases; i++ {
		g.Go(func() error {
			engine, err := b.factory(i)
			if err != nil {
				return fmt.Errorf("case %d: build engine: %w", i, err)
			}
			// A game-level error is a valid experimental outcome;
			// its partial trajectory still gets scored.
			result, _ := engine.Run(ctx)
			mu.Lock()
			results[i] = result
			mu.Unlock()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

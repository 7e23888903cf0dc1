// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package metrics holds the process-wide Prometheus collectors for
// game runs. Collectors register on the default registry via
// promauto; the serve command exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GamesTotal counts completed games by termination reason.
	GamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinymoves_games_total",
		Help: "Completed games by termination reason",
	}, []string{"reason"})

	// MovesTotal counts moves by operation and outcome
	// (accepted, or the rejection error kind).
	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinymoves_moves_total",
		Help: "Proposed moves by operation and outcome",
	}, []string{"operation", "outcome"})

	// ProviderRetries counts provider failures that consumed retry
	// budget.
	ProviderRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinymoves_provider_retries_total",
		Help: "Provider failures counted against retry budgets",
	})

	// GameDuration tracks wall-clock game duration.
	GameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tinymoves_game_duration_seconds",
		Help:    "Game duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45m
	})

	// GameTurns tracks moves recorded per game.
	GameTurns = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tinymoves_game_turns",
		Help:    "Moves recorded per game, accepted and rejected",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
	})
)

// Outcome labels for MovesTotal.
const (
	OutcomeAccepted             = "accepted"
	OutcomeSchemaViolation      = "schema_violation"
	OutcomePreconditionUnmet    = "precondition_unmet"
	OutcomeUnknownOperation     = "unknown_operation"
	OutcomeReferentialIntegrity = "referential_integrity"
	OutcomeProviderFailure      = "provider_failure"
)

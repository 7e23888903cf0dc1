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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/metrics"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/llm"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

// Engine runs one game. Not safe for concurrent use: a game is a
// single logical sequential state machine, and no two moves within it
// may apply concurrently.
type Engine struct {
	id           string
	cfg          Config
	registry     *moves.Registry
	arena        *hypothesis.Arena
	recorder     *trajectory.Recorder
	participants []Participant
	retriever    retrieval.Retriever
	stopDecider  agents.StopDecider
	state        State
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithRetriever supplies context snippets to each proposal.
func WithRetriever(r retrieval.Retriever) Option {
	return func(e *Engine) { e.retriever = r }
}

// WithStopDecider consults the decider each turn before the next
// proposal. The decider is checked before the turn budget and wins
// when both would fire on the same turn.
func WithStopDecider(d agents.StopDecider) Option {
	return func(e *Engine) { e.stopDecider = d }
}

// WithGameID overrides the generated game id.
func WithGameID(id string) Option {
	return func(e *Engine) { e.id = id }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a game over a sealed initial snapshot.
func NewEngine(cfg Config, registry *moves.Registry, initial *hypothesis.Snapshot, participants []Participant, opts ...Option) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}
	if len(participants) == 0 {
		return nil, errors.New("at least one participant is required")
	}
	for i, p := range participants {
		if p.Role == "" || p.Propose == nil {
			return nil, fmt.Errorf("participant %d is incomplete", i)
		}
	}

	arena, err := hypothesis.NewArena(initial)
	if err != nil {
		return nil, fmt.Errorf("initialize arena: %w", err)
	}

	e := &Engine{
		id:           uuid.NewString(),
		cfg:          cfg,
		registry:     registry,
		arena:        arena,
		participants: participants,
		state:        StateInitializing,
		logger:       slog.Default(),
		tracer:       otel.Tracer("tinymoves/game"),
	}
	for _, opt := range opts {
		opt(e)
	}

	recorder, err := trajectory.NewRecorder(e.id, initial)
	if err != nil {
		return nil, fmt.Errorf("initialize recorder: %w", err)
	}
	e.recorder = recorder
	e.logger = e.logger.With(slog.String("game_id", e.id))
	return e, nil
}

// ID returns the game id.
func (e *Engine) ID() string { return e.id }

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Run plays the game to termination. It always returns a Result with
// a frozen trajectory; the error return is non-nil only when the game
// terminated with ReasonError, and the Result is still valid then.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "game.run",
		trace.WithAttributes(
			attribute.String("game.id", e.id),
			attribute.Int("game.max_turns", e.cfg.MaxTurns),
		))
	defer span.End()

	start := time.Now()
	e.state = StateActive
	e.logger.Info("game started",
		slog.Int("max_turns", e.cfg.MaxTurns),
		slog.Int("participants", len(e.participants)))

	reason, runErr := e.loop(ctx)

	e.state = StateTerminated
	e.recorder.Freeze(e.arena.Head().ID, reason)

	metrics.GamesTotal.WithLabelValues(reason).Inc()
	metrics.GameDuration.Observe(time.Since(start).Seconds())
	metrics.GameTurns.Observe(float64(e.recorder.Len()))

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, reason)
	}
	span.SetAttributes(attribute.String("game.termination_reason", reason))

	e.logger.Info("game terminated",
		slog.String("reason", reason),
		slog.Int("moves", e.recorder.Len()),
		slog.Duration("elapsed", time.Since(start)))

	result := Result{
		GameID:     e.id,
		State:      e.state,
		Reason:     reason,
		Err:        runErr,
		Final:      e.arena.Head(),
		Trajectory: e.recorder.Export(),
	}
	return result, runErr
}

func (e *Engine) loop(ctx context.Context) (reason string, err error) {
	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return ReasonError, fmt.Errorf("game cancelled: %w", err)
		}

		// The stop decider is consulted before the budget check
		// and wins when both would fire on the same turn.
		if e.stopDecider != nil {
			stop, err := e.stopDecider.ShouldStop(ctx, e.arena.Head(), e.history())
			if err != nil {
				// An undecidable stop check never kills the
				// game; the turn budget still bounds it.
				e.logger.Warn("stop decider failed, continuing", slog.Any("error", err))
			} else if stop {
				return ReasonStopDecision, nil
			}
		}

		if turn >= e.cfg.MaxTurns {
			return ReasonMaxTurns, nil
		}
		if len(e.registry.ListApplicable(e.arena.Head())) == 0 {
			return ReasonNoApplicableMoves, nil
		}

		participant := e.participants[turn%len(e.participants)]
		accepted, err := e.playTurn(ctx, turn, participant)
		if err != nil {
			return ReasonError, err
		}
		if !accepted && !e.cfg.AdvanceOnReject {
			return ReasonError, fmt.Errorf("turn %d (%s): %w after %d attempts",
				turn, participant.Role, ErrRetryBudgetExhausted, e.cfg.RetryBudget)
		}
	}
}

// playTurn runs one proposal cycle: up to RetryBudget attempts, each
// recorded. Returns whether a move was accepted. The error return is
// reserved for unrecoverable engine faults, not rejections.
func (e *Engine) playTurn(ctx context.Context, turn int, participant Participant) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "game.turn",
		trace.WithAttributes(
			attribute.Int("game.turn", turn),
			attribute.String("game.role", participant.Role),
		))
	defer span.End()

	for attempt := 1; attempt <= e.cfg.RetryBudget; attempt++ {
		snap := e.arena.Head()
		snippets := e.retrieve(ctx, snap)

		proposal, err := participant.Propose(ctx, snap, snippets, e.history())
		if err != nil {
			e.recordRejection(participant.Role, proposal, fmt.Sprintf("provider failure: %v", err))
			metrics.ProviderRetries.Inc()
			e.logger.Warn("proposal failed",
				slog.Int("turn", turn),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			if e.cfg.AdvanceOnReject {
				return false, nil
			}
			continue
		}

		next, err := e.registry.Apply(snap, proposal.Intent)
		if err != nil {
			e.recordRejection(participant.Role, proposal, err.Error())
			e.logger.Info("move rejected",
				slog.Int("turn", turn),
				slog.Int("attempt", attempt),
				slog.String("operation", proposal.Intent.Operation),
				slog.Any("error", err))
			if e.cfg.AdvanceOnReject {
				return false, nil
			}
			continue
		}

		if err := e.arena.Advance(next); err != nil {
			// Arena refusing a freshly sealed child is an engine
			// defect, not an agent mistake.
			return false, fmt.Errorf("advance arena: %w", err)
		}
		_, err = e.recorder.Append(trajectory.MoveRecord{
			AgentRole:  participant.Role,
			Operation:  proposal.Intent.Operation,
			Params:     proposal.Intent.Params,
			Rationale:  proposal.Rationale,
			Accepted:   true,
			SnapshotID: next.ID,
		})
		if err != nil {
			return false, fmt.Errorf("record move: %w", err)
		}
		metrics.MovesTotal.WithLabelValues(proposal.Intent.Operation, metrics.OutcomeAccepted).Inc()
		e.logger.Debug("move accepted",
			slog.Int("turn", turn),
			slog.String("operation", proposal.Intent.Operation),
			slog.String("snapshot_id", next.ID))
		return true, nil
	}
	return false, nil
}

func (e *Engine) recordRejection(role string, proposal agents.Proposal, reason string) {
	_, err := e.recorder.Append(trajectory.MoveRecord{
		AgentRole:       role,
		Operation:       proposal.Intent.Operation,
		Params:          proposal.Intent.Params,
		Rationale:       proposal.Rationale,
		Accepted:        false,
		RejectionReason: reason,
	})
	if err != nil {
		e.logger.Error("failed to record rejection", slog.Any("error", err))
	}
	metrics.MovesTotal.WithLabelValues(proposal.Intent.Operation, classifyOutcome(reason)).Inc()
}

// retrieve fetches context for the proposal; retrieval failures
// degrade to no context rather than consuming the retry budget.
func (e *Engine) retrieve(ctx context.Context, snap *hypothesis.Snapshot) []retrieval.Snippet {
	if e.retriever == nil || e.cfg.RetrievalK <= 0 {
		return nil
	}
	snippets, err := e.retriever.Retrieve(ctx, snap.Statement, e.cfg.RetrievalK)
	if err != nil {
		e.logger.Warn("retrieval failed, proposing without context", slog.Any("error", err))
		return nil
	}
	return snippets
}

func (e *Engine) history() []trajectory.MoveRecord {
	return e.recorder.Export().Moves
}

// classifyOutcome maps a rejection reason string back to its metric
// label. Reasons originate from wrapped sentinel errors, so substring
// matching is stable.
func classifyOutcome(reason string) string {
	switch {
	case containsErr(reason, moves.ErrSchemaViolation):
		return metrics.OutcomeSchemaViolation
	case containsErr(reason, moves.ErrPreconditionUnmet):
		return metrics.OutcomePreconditionUnmet
	case containsErr(reason, moves.ErrUnknownOperation):
		return metrics.OutcomeUnknownOperation
	case containsErr(reason, moves.ErrReferentialIntegrity):
		return metrics.OutcomeReferentialIntegrity
	case containsErr(reason, llm.ErrProviderFailure):
		return metrics.OutcomeProviderFailure
	default:
		return metrics.OutcomeProviderFailure
	}
}

func containsErr(reason string, sentinel error) bool {
	return sentinel != nil && strings.Contains(reason, sentinel.Error())
}

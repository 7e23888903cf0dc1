// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamesvr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/TinyMoves/pkg/agents"
	"github.com/AleutianAI/TinyMoves/pkg/game"
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/scoring"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/llm"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
	"github.com/AleutianAI/TinyMoves/services/storage"
)

// Handlers contains the HTTP handlers for the game service.
//
// Games run synchronously inside the request: the engine bounds every
// game by its turn budget, so a request is as long as one game, no
// longer. Callers wanting parallel experiments issue parallel
// requests.
type Handlers struct {
	store    *storage.TrajectoryStore
	client   llm.Client
	registry *moves.Registry
	defaults game.Config

	retriever retrieval.Retriever
	logger    *slog.Logger
}

// NewHandlers creates handlers backed by the given store and
// completion client.
func NewHandlers(store *storage.TrajectoryStore, client llm.Client, defaults game.Config, logger *slog.Logger) (*Handlers, error) {
	if store == nil {
		return nil, errors.New("gamesvr: nil store")
	}
	if client == nil {
		return nil, errors.New("gamesvr: nil client")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:    store,
		client:   client,
		registry: moves.DefaultRegistry(),
		defaults: defaults,
		logger:   logger,
	}, nil
}

// WithRetriever sets the context retriever for proposals.
func (h *Handlers) WithRetriever(r retrieval.Retriever) *Handlers {
	h.retriever = r
	return h
}

// HandleCreateGame handles POST /v1/games. The game runs to
// termination before the response is written.
func (h *Handlers) HandleCreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	initial, err := h.initialSnapshot(c, req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: "resolve initial snapshot", Details: err.Error()})
		return
	}

	engine, err := h.buildEngine(req, initial)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "configure game", Details: err.Error()})
		return
	}

	result, runErr := engine.Run(c.Request.Context())
	if runErr != nil {
		h.logger.Warn("game terminated with error", "game_id", result.GameID, "error", runErr)
	}
	if err := h.store.Save(c.Request.Context(), result.Trajectory); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "save trajectory", Details: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gameResponse(result, runErr))
}

// HandleListGames handles GET /v1/games.
func (h *Handlers) HandleListGames(c *gin.Context) {
	ids, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "list games", Details: err.Error()})
		return
	}
	resp := ListGamesResponse{Games: make([]GameSummary, 0, len(ids))}
	for _, id := range ids {
		t, err := h.store.Load(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "load game", Details: err.Error()})
			return
		}
		accepted := len(t.AcceptedMoves())
		resp.Games = append(resp.Games, GameSummary{
			GameID:            id,
			TerminationReason: t.TerminationReason,
			AcceptedMoves:     accepted,
			RejectedMoves:     len(t.Moves) - accepted,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetGame handles GET /v1/games/:id.
func (h *Handlers) HandleGetGame(c *gin.Context) {
	t, ok := h.loadGame(c)
	if !ok {
		return
	}
	final, err := finalSnapshot(t, h.registry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "replay game", Details: err.Error()})
		return
	}
	accepted := len(t.AcceptedMoves())
	c.JSON(http.StatusOK, GameResponse{
		GameID:            t.GameID,
		TerminationReason: t.TerminationReason,
		AcceptedMoves:     accepted,
		RejectedMoves:     len(t.Moves) - accepted,
		FinalSnapshotID:   final.ID,
		EntityCount:       len(final.Entities),
		RelationCount:     len(final.Relations),
	})
}

// HandleGetTrajectory handles GET /v1/games/:id/trajectory.
func (h *Handlers) HandleGetTrajectory(c *gin.Context) {
	t, ok := h.loadGame(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, TrajectoryResponse{Trajectory: t})
}

// HandleReplayGame handles POST /v1/games/:id/replay.
func (h *Handlers) HandleReplayGame(c *gin.Context) {
	t, ok := h.loadGame(c)
	if !ok {
		return
	}
	snaps, err := trajectory.Replay(t, h.registry)
	if err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "replay verification failed", Details: err.Error()})
		return
	}
	resp := ReplayResponse{GameID: t.GameID, Verified: true, SnapshotCount: len(snaps)}
	if len(snaps) > 0 {
		resp.FinalSnapshotID = snaps[len(snaps)-1].ID
	} else if t.Initial != nil {
		resp.FinalSnapshotID = t.Initial.ID
	}
	c.JSON(http.StatusOK, resp)
}

// HandleDeleteGame handles DELETE /v1/games/:id.
func (h *Handlers) HandleDeleteGame(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "delete game", Details: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleCorrupt handles POST /v1/corrupt: seeded corruption of a
// reference hypothesis, recorded as a stored trajectory whose final
// snapshot is the recovery starting point.
func (h *Handlers) HandleCorrupt(c *gin.Context) {
	var req CorruptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	reference, err := hypothesis.New(req.Seed)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid seed", Details: err.Error()})
		return
	}
	corruptor, err := agents.NewSeededCorruptor(h.registry, req.RandSeed)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "configure corruptor", Details: err.Error()})
		return
	}
	corrupted, records, err := corruptor.Corrupt(reference, req.Severity)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "corrupt hypothesis", Details: err.Error()})
		return
	}

	gameID := req.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	recorder, err := trajectory.NewRecorder(gameID, reference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "record corruption", Details: err.Error()})
		return
	}
	for _, r := range records {
		if _, err := recorder.Append(r); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "record corruption", Details: err.Error()})
			return
		}
	}
	recorder.Freeze(corrupted.ID, "stop_decision")
	if err := h.store.Save(c.Request.Context(), recorder.Export()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "save corruption trajectory", Details: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, CorruptResponse{
		GameID:          gameID,
		Moves:           len(records),
		FinalSnapshotID: corrupted.ID,
	})
}

// HandleScore handles POST /v1/score.
func (h *Handlers) HandleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	reference, err := hypothesis.New(req.Reference)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid reference", Details: err.Error()})
		return
	}
	t, err := h.store.Load(c.Request.Context(), req.GameID)
	if err != nil {
		h.respondLoadError(c, err)
		return
	}
	final, err := finalSnapshot(t, h.registry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "replay game", Details: err.Error()})
		return
	}

	var score scoring.Score
	if req.CorruptionGameID != "" {
		corruption, err := h.store.Load(c.Request.Context(), req.CorruptionGameID)
		if err != nil {
			h.respondLoadError(c, err)
			return
		}
		score, err = scoring.ComputeWithRecovery(final, reference, corruption.Moves)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "score recovery", Details: err.Error()})
			return
		}
	} else {
		score = scoring.Compute(final, reference)
	}
	c.JSON(http.StatusOK, ScoreResponse{GameID: req.GameID, Score: score})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: ServiceVersion})
}

// loadGame loads the :id trajectory, writing the error response on
// failure.
func (h *Handlers) loadGame(c *gin.Context) (trajectory.Trajectory, bool) {
	t, err := h.store.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLoadError(c, err)
		return trajectory.Trajectory{}, false
	}
	return t, true
}

func (h *Handlers) respondLoadError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "game not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "load game", Details: err.Error()})
}

func (h *Handlers) initialSnapshot(c *gin.Context, req CreateGameRequest) (*hypothesis.Snapshot, error) {
	switch {
	case req.Seed != nil && req.FromGameID != "":
		return nil, errors.New("seed and from_game_id are mutually exclusive")
	case req.Seed != nil:
		return hypothesis.New(*req.Seed)
	case req.FromGameID != "":
		t, err := h.store.Load(c.Request.Context(), req.FromGameID)
		if err != nil {
			return nil, err
		}
		return finalSnapshot(t, h.registry)
	default:
		return nil, errors.New("one of seed or from_game_id is required")
	}
}

func (h *Handlers) buildEngine(req CreateGameRequest, initial *hypothesis.Snapshot) (*game.Engine, error) {
	cfg := h.defaults
	if req.MaxTurns > 0 {
		cfg.MaxTurns = req.MaxTurns
	}
	if req.RetryBudget > 0 {
		cfg.RetryBudget = req.RetryBudget
	}
	if req.RetrievalK > 0 {
		cfg.RetrievalK = req.RetrievalK
	}
	if req.AdvanceOnReject {
		cfg.AdvanceOnReject = true
	}

	proposer, err := agents.NewLLMProposer(h.client, h.registry)
	if err != nil {
		return nil, err
	}
	participants := []game.Participant{game.ProposerParticipant(proposer)}
	if req.WithCritic {
		critic, err := agents.NewLLMCritic(h.client, h.registry)
		if err != nil {
			return nil, err
		}
		participants = append(participants, game.CriticParticipant(critic))
	}

	opts := []game.Option{game.WithLogger(h.logger)}
	if req.GameID != "" {
		opts = append(opts, game.WithGameID(req.GameID))
	}
	if req.WithStopDecider {
		stopper, err := agents.NewLLMStopDecider(h.client)
		if err != nil {
			return nil, err
		}
		opts = append(opts, game.WithStopDecider(stopper))
	}
	if h.retriever != nil {
		opts = append(opts, game.WithRetriever(h.retriever))
	}
	return game.NewEngine(cfg, h.registry, initial, participants, opts...)
}

func gameResponse(result game.Result, runErr error) GameResponse {
	accepted := len(result.Trajectory.AcceptedMoves())
	resp := GameResponse{
		GameID:            result.GameID,
		TerminationReason: result.Reason,
		AcceptedMoves:     accepted,
		RejectedMoves:     len(result.Trajectory.Moves) - accepted,
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}
	if result.Final != nil {
		resp.FinalSnapshotID = result.Final.ID
		resp.EntityCount = len(result.Final.Entities)
		resp.RelationCount = len(result.Final.Relations)
	}
	return resp
}

// finalSnapshot replays a trajectory to its last snapshot, falling
// back to the initial snapshot for a move-free trajectory.
func finalSnapshot(t trajectory.Trajectory, registry *moves.Registry) (*hypothesis.Snapshot, error) {
	snaps, err := trajectory.Replay(t, registry)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return t.Initial, nil
	}
	return snaps[len(snaps)-1], nil
}

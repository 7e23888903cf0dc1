// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"errors"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/llm"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

// low temperature keeps move selection focused; schema validation
// catches what sampling still gets wrong.
var defaultParams = func() llm.GenerationParams {
	temp := float32(0.2)
	maxTokens := 512
	return llm.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens}
}()

// LLMProposer asks the completion provider for the next move.
type LLMProposer struct {
	client   llm.Client
	registry *moves.Registry
	params   llm.GenerationParams
}

func NewLLMProposer(client llm.Client, registry *moves.Registry) (*LLMProposer, error) {
	if client == nil {
		return nil, errors.New("client must not be nil")
	}
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}
	return &LLMProposer{client: client, registry: registry, params: defaultParams}, nil
}

func (p *LLMProposer) Propose(ctx context.Context, snap *hypothesis.Snapshot, snippets []retrieval.Snippet, history []trajectory.MoveRecord) (Proposal, error) {
	prompt := proposerPrompt(snap, p.registry.ListApplicable(snap), snippets, history)
	completion, err := p.client.Generate(ctx, prompt, p.params)
	if err != nil {
		return Proposal{}, err
	}
	return parseProposal(completion)
}

// LLMCritic audits the snapshot and proposes a corrective move.
type LLMCritic struct {
	client   llm.Client
	registry *moves.Registry
	params   llm.GenerationParams
}

func NewLLMCritic(client llm.Client, registry *moves.Registry) (*LLMCritic, error) {
	if client == nil {
		return nil, errors.New("client must not be nil")
	}
	if registry == nil {
		return nil, errors.New("registry must not be nil")
	}
	return &LLMCritic{client: client, registry: registry, params: defaultParams}, nil
}

func (c *LLMCritic) Critique(ctx context.Context, snap *hypothesis.Snapshot, snippets []retrieval.Snippet, history []trajectory.MoveRecord) (Proposal, error) {
	prompt := criticPrompt(snap, c.registry.ListApplicable(snap), snippets, history)
	completion, err := c.client.Generate(ctx, prompt, c.params)
	if err != nil {
		return Proposal{}, err
	}
	return parseProposal(completion)
}

// LLMStopDecider asks the provider whether the session should end.
// Provider failures surface as errors; the engine decides whether to
// treat an undecidable stop check as "keep going".
type LLMStopDecider struct {
	client llm.Client
	params llm.GenerationParams
}

func NewLLMStopDecider(client llm.Client) (*LLMStopDecider, error) {
	if client == nil {
		return nil, errors.New("client must not be nil")
	}
	return &LLMStopDecider{client: client, params: defaultParams}, nil
}

func (d *LLMStopDecider) ShouldStop(ctx context.Context, snap *hypothesis.Snapshot, history []trajectory.MoveRecord) (bool, error) {
	completion, err := d.client.Generate(ctx, stopPrompt(snap, history), d.params)
	if err != nil {
		return false, err
	}
	decision, err := parseStopDecision(completion)
	if err != nil {
		return false, err
	}
	return decision.Stop, nil
}

var (
	_ Proposer    = (*LLMProposer)(nil)
	_ Critic      = (*LLMCritic)(nil)
	_ StopDecider = (*LLMStopDecider)(nil)
)

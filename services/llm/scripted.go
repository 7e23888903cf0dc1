package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient replays a fixed sequence of completions, one per
// Generate call, for deterministic tests and offline runs. A response
// with Err set simulates a provider failure at that position.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	next      int

	// Prompts records every prompt received, for assertions.
	Prompts []string
}

type ScriptedResponse struct {
	Text string
	Err  error
}

func NewScriptedClient(responses ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// Script is a convenience constructor from plain completions.
func Script(texts ...string) *ScriptedClient {
	responses := make([]ScriptedResponse, len(texts))
	for i, t := range texts {
		responses[i] = ScriptedResponse{Text: t}
	}
	return NewScriptedClient(responses...)
}

func (s *ScriptedClient) Generate(ctx context.Context, prompt string, _ GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)
	if s.next >= len(s.responses) {
		return "", fmt.Errorf("%w: script exhausted after %d responses", ErrProviderFailure, len(s.responses))
	}
	resp := s.responses[s.next]
	s.next++
	if resp.Err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailure, resp.Err)
	}
	return resp.Text, nil
}

// Calls returns how many Generate calls the script has served.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

var _ Client = (*ScriptedClient)(nil)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/services/llm"
)

// intentResponse is the JSON shape agents are prompted to return.
type intentResponse struct {
	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params"`
	Rationale string          `json:"rationale"`
}

// parseProposal extracts a move proposal from a raw completion.
// Models wrap JSON in markdown fences or surrounding prose often
// enough that we locate the outermost object rather than requiring a
// clean document. A completion with no usable JSON is a provider
// failure: the caller's retry budget covers it.
func parseProposal(response string) (Proposal, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return Proposal{}, err
	}

	var parsed intentResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return Proposal{}, fmt.Errorf("%w: malformed intent JSON: %v", llm.ErrProviderFailure, err)
	}
	if parsed.Operation == "" {
		return Proposal{}, fmt.Errorf("%w: intent missing operation", llm.ErrProviderFailure)
	}
	return Proposal{
		Intent: moves.Intent{
			Operation: parsed.Operation,
			Params:    parsed.Params,
		},
		Rationale: parsed.Rationale,
	}, nil
}

// stopResponse is the JSON shape the stop decider returns.
type stopResponse struct {
	Stop      bool   `json:"stop"`
	Rationale string `json:"rationale"`
}

func parseStopDecision(response string) (stopResponse, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return stopResponse{}, err
	}
	var parsed stopResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return stopResponse{}, fmt.Errorf("%w: malformed stop decision JSON: %v", llm.ErrProviderFailure, err)
	}
	return parsed, nil
}

// extractJSON strips markdown code fences and locates the outermost
// JSON object in a completion.
func extractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return "", fmt.Errorf("%w: no JSON object found in completion: %s", llm.ErrProviderFailure, truncate(response, 100))
	}
	return response[startIdx : endIdx+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// TinyMovesConfig is the on-disk configuration for the tinymoves CLI
// and service. Validation tags are enforced on load.
type TinyMovesConfig struct {
	// Game: engine defaults for run/corrupt/batch.
	Game GameConfig `yaml:"game"`

	// Provider: completion backend for the LLM agents.
	Provider ProviderConfig `yaml:"provider"`

	// Retrieval: context source for proposals.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Storage: local trajectory persistence.
	Storage StorageConfig `yaml:"storage"`

	// Server: HTTP service settings for `tinymoves serve`.
	Server ServerConfig `yaml:"server"`
}

type GameConfig struct {
	MaxTurns        int  `yaml:"max_turns" validate:"gt=0"`
	RetryBudget     int  `yaml:"retry_budget" validate:"gt=0"`
	AdvanceOnReject bool `yaml:"advance_on_reject"`
	RetrievalK      int  `yaml:"retrieval_k" validate:"gte=0"`
}

type ProviderConfig struct {
	// Type can be "openai" or "scripted" (offline runs).
	Type         string  `yaml:"type" validate:"oneof=openai scripted"`
	Model        string  `yaml:"model,omitempty"`
	BaseURL      string  `yaml:"base_url,omitempty"`
	TimeoutSecs  int     `yaml:"timeout_secs" validate:"gt=0"`
	MaxAttempts  int     `yaml:"max_attempts" validate:"gt=0"`
	RatePerSec   float64 `yaml:"rate_per_sec" validate:"gt=0"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
}

type RetrievalConfig struct {
	// Type can be "weaviate", "corpus" (deterministic file-backed),
	// or "none".
	Type       string `yaml:"type" validate:"oneof=weaviate corpus none"`
	URL        string `yaml:"url,omitempty"`
	ClassName  string `yaml:"class_name,omitempty"`
	CorpusPath string `yaml:"corpus_path,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

func DefaultConfig() TinyMovesConfig {
	return TinyMovesConfig{
		Game: GameConfig{
			MaxTurns:    20,
			RetryBudget: 3,
			RetrievalK:  5,
		},
		Provider: ProviderConfig{
			Type:        "openai",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 60,
			MaxAttempts: 3,
			RatePerSec:  2,
		},
		Retrieval: RetrievalConfig{
			Type: "none",
		},
		Storage: StorageConfig{
			Path: "~/.aleutian/tinymoves/db",
		},
		Server: ServerConfig{
			Addr: ":8086",
		},
	}
}

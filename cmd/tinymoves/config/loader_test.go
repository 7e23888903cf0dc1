// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("parse empty config: %v", err)
	}
	if cfg.Game.MaxTurns != 20 {
		t.Errorf("max_turns default = %d, want 20", cfg.Game.MaxTurns)
	}
	if cfg.Provider.Type != "openai" {
		t.Errorf("provider type default = %q, want openai", cfg.Provider.Type)
	}
}

func TestParseOverrides(t *testing.T) {
	doc := `
game:
  max_turns: 50
  retry_budget: 5
provider:
  type: scripted
retrieval:
  type: corpus
  corpus_path: /data/pathways.yaml
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Game.MaxTurns != 50 || cfg.Game.RetryBudget != 5 {
		t.Errorf("game overrides not applied: %+v", cfg.Game)
	}
	if cfg.Retrieval.CorpusPath != "/data/pathways.yaml" {
		t.Errorf("corpus path = %q", cfg.Retrieval.CorpusPath)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad provider type":  "provider:\n  type: carrier_pigeon\n",
		"zero max turns":     "game:\n  max_turns: 0\n",
		"negative retrieval": "game:\n  retrieval_k: -1\n",
		"not yaml":           ":\t:::",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestExpandPath(t *testing.T) {
	expanded := ExpandPath("~/x/y")
	if strings.HasPrefix(expanded, "~") {
		t.Errorf("tilde not expanded: %q", expanded)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}

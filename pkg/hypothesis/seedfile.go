// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hypothesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSeed reads a seed hypothesis from a YAML or JSON reference
// file, chosen by extension (.yaml, .yml, .json).
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data, filepath.Ext(path))
}

// ParseSeed decodes seed content. ext selects the format and is
// case-insensitive.
func ParseSeed(data []byte, ext string) (Seed, error) {
	var seed Seed
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&seed); err != nil {
			return Seed{}, fmt.Errorf("parse YAML seed: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&seed); err != nil {
			return Seed{}, fmt.Errorf("parse JSON seed: %w", err)
		}
	default:
		return Seed{}, fmt.Errorf("unsupported seed format %q (want .yaml, .yml, or .json)", ext)
	}
	return seed, nil
}

// LoadSnapshot loads a seed file and seals it into an initial
// snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return New(seed)
}

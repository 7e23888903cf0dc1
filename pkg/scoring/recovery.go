// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
)

// CorruptionReport details how much of an introduced corruption the
// refining agent undid. Each accepted corruptor move names the graph
// elements it touched; a corruption counts as recovered when every
// touched element agrees with the reference again in the final
// snapshot, whether by direct reversal or by a compensating move.
type CorruptionReport struct {
	Total     int `json:"total"`
	Recovered int `json:"recovered"`
	Persisted int `json:"persisted"`

	// CleanRate is the fraction of corruptions recovered;
	// PersistenceRate the fraction still present.
	CleanRate       float64 `json:"clean_rate"`
	PersistenceRate float64 `json:"persistence_rate"`

	Outcomes []CorruptionOutcome `json:"outcomes"`
}

// CorruptionOutcome is the per-corruption detail.
type CorruptionOutcome struct {
	TurnIndex int      `json:"turn_index"`
	Operation string   `json:"operation"`
	Elements  []string `json:"elements"`
	Recovered bool     `json:"recovered"`
}

// RecoveryRate is CleanRate under its invariant-facing name.
func (r *CorruptionReport) RecoveryRate() float64 {
	return r.CleanRate
}

// ComputeWithRecovery scores a corruption-recovery run: the overlap
// metrics of Compute plus a CorruptionReport derived from the
// corruptor's own move log. Only accepted corruptor moves count as
// corruptions.
func ComputeWithRecovery(final, reference *hypothesis.Snapshot, corruptions []trajectory.MoveRecord) (Score, error) {
	score := Compute(final, reference)

	report := &CorruptionReport{}
	for _, m := range corruptions {
		if !m.Accepted {
			continue
		}
		elements, err := touchedElements(m)
		if err != nil {
			return Score{}, fmt.Errorf("corruption at turn %d: %w", m.TurnIndex, err)
		}
		recovered := true
		for _, el := range elements {
			if !el.agrees(final, reference) {
				recovered = false
				break
			}
		}
		report.Total++
		if recovered {
			report.Recovered++
		} else {
			report.Persisted++
		}
		names := make([]string, len(elements))
		for i, el := range elements {
			names[i] = el.String()
		}
		report.Outcomes = append(report.Outcomes, CorruptionOutcome{
			TurnIndex: m.TurnIndex,
			Operation: m.Operation,
			Elements:  names,
			Recovered: recovered,
		})
	}
	if report.Total > 0 {
		report.CleanRate = float64(report.Recovered) / float64(report.Total)
		report.PersistenceRate = float64(report.Persisted) / float64(report.Total)
	} else {
		report.CleanRate = 1
	}

	score.CorruptionRecovery = report
	return score, nil
}

// element is one graph element a corruption touched: an entity, a
// relation triple, or the statement text.
type element struct {
	kind     string // "entity", "relation", "statement"
	entityID string
	relKey   string
}

func entityElement(id string) element { return element{kind: "entity", entityID: id} }

func relationElement(source, target, relKind string) element {
	r := hypothesis.Relation{SourceID: source, TargetID: target, Kind: relKind}
	return element{kind: "relation", relKey: r.Key()}
}

func (e element) String() string {
	switch e.kind {
	case "entity":
		return "entity:" + e.entityID
	case "relation":
		return "relation:" + e.relKey
	default:
		return "statement"
	}
}

// agrees reports whether the element is in the same state in both
// snapshots: present in both with equal content, or absent in both.
func (e element) agrees(final, reference *hypothesis.Snapshot) bool {
	switch e.kind {
	case "entity":
		f, fok := final.Entity(e.entityID)
		r, rok := reference.Entity(e.entityID)
		if fok != rok {
			return false
		}
		if !fok {
			return true
		}
		return f.Kind == r.Kind && attrsEqual(f.Attributes, r.Attributes)
	case "relation":
		return relationSet(final)[e.relKey] == relationSet(reference)[e.relKey]
	default:
		return final.Statement == reference.Statement
	}
}

func attrsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// touchedElements decodes a corruptor move's params and lists the
// elements it altered. A cascading entity removal is represented by
// the entity alone; its incident relations are covered transitively
// because a relation cannot agree with the reference while an
// endpoint is missing from the final snapshot only.
func touchedElements(m trajectory.MoveRecord) ([]element, error) {
	decode := func(v any) error {
		if err := json.Unmarshal(m.Params, v); err != nil {
			return fmt.Errorf("decode %s params: %w", m.Operation, err)
		}
		return nil
	}

	switch m.Operation {
	case moves.OpAddEntity:
		var p moves.AddEntityParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{entityElement(p.ID)}, nil
	case moves.OpRemoveEntity:
		var p moves.RemoveEntityParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{entityElement(p.ID)}, nil
	case moves.OpSetEntityAttribute:
		var p moves.SetEntityAttributeParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{entityElement(p.EntityID)}, nil
	case moves.OpRenameEntityAttribute:
		var p moves.RenameEntityAttributeParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{entityElement(p.EntityID)}, nil
	case moves.OpMergeEntities:
		var p moves.MergeEntitiesParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{entityElement(p.KeepID), entityElement(p.RemoveID)}, nil
	case moves.OpAddRelation:
		var p moves.AddRelationParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{relationElement(p.SourceID, p.TargetID, p.Kind)}, nil
	case moves.OpRemoveRelation:
		var p moves.RemoveRelationParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{relationElement(p.SourceID, p.TargetID, p.Kind)}, nil
	case moves.OpInvertRelation:
		var p moves.InvertRelationParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{
			relationElement(p.SourceID, p.TargetID, p.Kind),
			relationElement(p.TargetID, p.SourceID, p.Kind),
		}, nil
	case moves.OpReannotateRelation:
		var p moves.ReannotateRelationParams
		if err := decode(&p); err != nil {
			return nil, err
		}
		return []element{
			relationElement(p.SourceID, p.TargetID, p.Kind),
			relationElement(p.SourceID, p.TargetID, p.NewKind),
		}, nil
	case moves.OpReviseStatement:
		return []element{{kind: "statement"}}, nil
	default:
		return nil, fmt.Errorf("unrecognized corruption operation %q", m.Operation)
	}
}

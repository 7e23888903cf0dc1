// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring compares a terminal hypothesis snapshot against a
// reference target and emits structured metrics. Scoring is a pure
// function of its inputs: no hidden state, same inputs always produce
// the same Score.
package scoring

import (
	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
)

// Score is the structured result of comparing a final snapshot to a
// reference. Entity overlap is computed on entity ids; relation
// overlap on exact (source, target, kind) triples. Jaccard is the
// combined similarity over the union of both element sets.
type Score struct {
	EntityPrecision float64 `json:"entity_precision"`
	EntityRecall    float64 `json:"entity_recall"`
	EntityF1        float64 `json:"entity_f1"`

	RelationPrecision float64 `json:"relation_precision"`
	RelationRecall    float64 `json:"relation_recall"`
	RelationF1        float64 `json:"relation_f1"`

	Jaccard float64 `json:"jaccard"`

	// CorruptionRecovery is set only for corruption-recovery runs.
	CorruptionRecovery *CorruptionReport `json:"corruption_recovery,omitempty"`
}

// Compute scores a final snapshot against a reference target.
//
// Precision/recall edge cases follow the usual convention: an empty
// final set has precision 1 (nothing wrongly asserted), an empty
// reference set has recall 1 (nothing missed), and two empty sets
// score Jaccard 1.
func Compute(final, reference *hypothesis.Snapshot) Score {
	finalEntities := entitySet(final)
	refEntities := entitySet(reference)
	finalRelations := relationSet(final)
	refRelations := relationSet(reference)

	ep, er := precisionRecall(finalEntities, refEntities)
	rp, rr := precisionRecall(finalRelations, refRelations)

	return Score{
		EntityPrecision:   ep,
		EntityRecall:      er,
		EntityF1:          f1(ep, er),
		RelationPrecision: rp,
		RelationRecall:    rr,
		RelationF1:        f1(rp, rr),
		Jaccard:           jaccard(finalEntities, refEntities, finalRelations, refRelations),
	}
}

func entitySet(s *hypothesis.Snapshot) map[string]bool {
	out := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		out[e.ID] = true
	}
	return out
}

func relationSet(s *hypothesis.Snapshot) map[string]bool {
	out := make(map[string]bool, len(s.Relations))
	for _, r := range s.Relations {
		out[r.Key()] = true
	}
	return out
}

func precisionRecall(predicted, reference map[string]bool) (precision, recall float64) {
	overlap := 0
	for k := range predicted {
		if reference[k] {
			overlap++
		}
	}
	precision = 1
	if len(predicted) > 0 {
		precision = float64(overlap) / float64(len(predicted))
	}
	recall = 1
	if len(reference) > 0 {
		recall = float64(overlap) / float64(len(reference))
	}
	return precision, recall
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// jaccard computes similarity over the union of entity ids and
// relation keys. Relation keys cannot collide with entity ids because
// Key() embeds separators forbidden in identifiers.
func jaccard(fe, re, fr, rr map[string]bool) float64 {
	union := make(map[string]bool)
	for _, set := range []map[string]bool{fe, re, fr, rr} {
		for k := range set {
			union[k] = true
		}
	}
	if len(union) == 0 {
		return 1
	}
	overlap := 0
	for k := range union {
		inFinal := fe[k] || fr[k]
		inRef := re[k] || rr[k]
		if inFinal && inRef {
			overlap++
		}
	}
	return float64(overlap) / float64(len(union))
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/TinyMoves/pkg/hypothesis"
	"github.com/AleutianAI/TinyMoves/pkg/moves"
	"github.com/AleutianAI/TinyMoves/pkg/trajectory"
	"github.com/AleutianAI/TinyMoves/services/retrieval"
)

// historyTail limits how much trajectory the prompt carries.
const historyTail = 10

func describeSnapshot(b *strings.Builder, snap *hypothesis.Snapshot) {
	fmt.Fprintf(b, "Current hypothesis: %s\n", snap.Statement)
	b.WriteString("Entities:\n")
	if len(snap.Entities) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range snap.Entities {
		fmt.Fprintf(b, "  - %s (%s)", e.ID, e.Kind)
		for k, v := range e.Attributes {
			fmt.Fprintf(b, " %s=%s", k, v)
		}
		b.WriteString("\n")
	}
	b.WriteString("Relations:\n")
	if len(snap.Relations) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, r := range snap.Relations {
		fmt.Fprintf(b, "  - %s -[%s]-> %s\n", r.SourceID, r.Kind, r.TargetID)
	}
}

func describeOperations(b *strings.Builder, applicable []moves.Definition) {
	b.WriteString("Applicable operations:\n")
	for _, d := range applicable {
		fmt.Fprintf(b, "  - %s: %s\n", d.Name, d.Summary)
	}
}

func describeSnippets(b *strings.Builder, snippets []retrieval.Snippet) {
	if len(snippets) == 0 {
		return
	}
	b.WriteString("Retrieved context:\n")
	for _, s := range snippets {
		fmt.Fprintf(b, "  [%s] %s\n", s.Source, s.Text)
	}
}

func describeHistory(b *strings.Builder, history []trajectory.MoveRecord) {
	if len(history) == 0 {
		return
	}
	start := 0
	if len(history) > historyTail {
		start = len(history) - historyTail
	}
	b.WriteString("Recent moves:\n")
	for _, m := range history[start:] {
		outcome := "accepted"
		if !m.Accepted {
			outcome = "rejected: " + m.RejectionReason
		}
		fmt.Fprintf(b, "  turn %d: %s %s (%s)\n", m.TurnIndex, m.Operation, m.Params, outcome)
	}
}

func proposerPrompt(snap *hypothesis.Snapshot, applicable []moves.Definition, snippets []retrieval.Snippet, history []trajectory.MoveRecord) string {
	var b strings.Builder
	b.WriteString("You are refining a biological pathway hypothesis one move at a time.\n\n")
	describeSnapshot(&b, snap)
	b.WriteString("\n")
	describeSnippets(&b, snippets)
	describeHistory(&b, history)
	b.WriteString("\n")
	describeOperations(&b, applicable)
	b.WriteString(`
Choose exactly one operation that moves the hypothesis closer to the
evidence. Respond with a single JSON object:
{"operation": "<name>", "params": {...}, "rationale": "<one sentence>"}
`)
	return b.String()
}

func criticPrompt(snap *hypothesis.Snapshot, applicable []moves.Definition, snippets []retrieval.Snippet, history []trajectory.MoveRecord) string {
	var b strings.Builder
	b.WriteString("You are auditing a pathway hypothesis for errors: wrong relation directions, mislabeled kinds, unsupported entities.\n\n")
	describeSnapshot(&b, snap)
	b.WriteString("\n")
	describeSnippets(&b, snippets)
	describeHistory(&b, history)
	b.WriteString("\n")
	describeOperations(&b, applicable)
	b.WriteString(`
Identify the most suspect element and propose one corrective
operation. Respond with a single JSON object:
{"operation": "<name>", "params": {...}, "rationale": "<what is wrong and why this fixes it>"}
`)
	return b.String()
}

func stopPrompt(snap *hypothesis.Snapshot, history []trajectory.MoveRecord) string {
	var b strings.Builder
	b.WriteString("You decide whether a hypothesis refinement session should stop.\n\n")
	describeSnapshot(&b, snap)
	b.WriteString("\n")
	describeHistory(&b, history)
	b.WriteString(`
Stop when further moves are unlikely to improve the hypothesis, e.g.
recent moves were rejected or merely oscillate. Respond with a single
JSON object:
{"stop": true|false, "rationale": "<one sentence>"}
`)
	return b.String()
}

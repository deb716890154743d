// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import "strings"

// Governor detects task completion and enforces the round budget.
type Governor struct {
	marker    string
	maxRounds int
}

// NewGovernor creates a governor. maxRounds must be positive; the
// ceiling is explicit, never unbounded.
func NewGovernor(marker string, maxRounds int) *Governor {
	return &Governor{marker: marker, maxRounds: maxRounds}
}

// IsTerminal reports whether a message content signals completion.
// This is a plain case-sensitive substring match, so a role's ordinary
// output containing the marker phrase ends the conversation too. That
// is a documented property of the protocol, not an oversight.
func (g *Governor) IsTerminal(content string) bool {
	return g.marker != "" && strings.Contains(content, g.marker)
}

// ShouldContinue reports whether another round fits in the budget.
func (g *Governor) ShouldContinue(round int) bool {
	return round < g.maxRounds
}

// MaxRounds returns the configured round ceiling.
func (g *Governor) MaxRounds() int {
	return g.maxRounds
}

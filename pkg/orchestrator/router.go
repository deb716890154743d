// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"strings"

	"github.com/VladRad03/Adulter/pkg/llm"
	"github.com/VladRad03/Adulter/pkg/roles"
)

// Mode selects how the router picks the next role.
type Mode string

const (
	// ModeAuto transfers the turn only when the active role asks for it,
	// via the structured hand-off directive or the textual marker.
	ModeAuto Mode = "auto"
	// ModeHandOff cycles deterministically through the role set.
	ModeHandOff Mode = "handoff"
)

// HandOffMarker is the textual fallback a role uses to pass the turn
// when its backend does not populate the structured directive.
const HandOffMarker = "HANDOFF:"

// HumanTarget is the sentinel a role hands off to when it wants human
// oversight before continuing.
const HumanTarget = "human"

// TargetKind classifies the router's decision for the next turn.
type TargetKind int

const (
	// TargetStay keeps the turn with the current role.
	TargetStay TargetKind = iota
	// TargetTransfer passes the turn to Target.Role.
	TargetTransfer
	// TargetHuman suspends the conversation on the human gate.
	TargetHuman
	// TargetTerminate ends the conversation.
	TargetTerminate
)

// Target is the router's decision for the next turn.
type Target struct {
	Kind TargetKind
	Role string
}

// Router selects the next active role after each turn.
type Router struct {
	registry *roles.Registry
	mode     Mode
}

// NewRouter creates a router over the given role set.
func NewRouter(registry *roles.Registry, mode Mode) *Router {
	if mode == "" {
		mode = ModeAuto
	}
	return &Router{registry: registry, mode: mode}
}

// Next decides who acts after the current role's turn. A hand-off that
// names an unknown role is treated as no hand-off at all: a malformed
// transfer must not sink the conversation.
func (r *Router) Next(current *roles.Role, handOff *llm.HandOff, content string) Target {
	if target, ok := r.directive(handOff, content); ok {
		return target
	}
	if r.mode == ModeHandOff {
		return r.cycle(current)
	}
	return Target{Kind: TargetStay}
}

// directive resolves the structured hand-off, falling back to the
// textual marker when the backend left the directive empty.
func (r *Router) directive(handOff *llm.HandOff, content string) (Target, bool) {
	if handOff != nil {
		switch handOff.Kind {
		case llm.HandOffTerminate:
			return Target{Kind: TargetTerminate}, true
		case llm.HandOffTransfer:
			return r.resolve(handOff.Role)
		case llm.HandOffContinue:
			return Target{Kind: TargetStay}, true
		}
	}
	if name, ok := parseHandOffMarker(content); ok {
		return r.resolve(name)
	}
	return Target{}, false
}

func (r *Router) resolve(name string) (Target, bool) {
	if strings.EqualFold(name, HumanTarget) {
		return Target{Kind: TargetHuman}, true
	}
	if _, ok := r.registry.Get(name); ok {
		return Target{Kind: TargetTransfer, Role: name}, true
	}
	// Unknown role: stay, decided.
	return Target{Kind: TargetStay}, true
}

// cycle passes the turn to the next role in registration order.
func (r *Router) cycle(current *roles.Role) Target {
	names := r.registry.Names()
	for i, name := range names {
		if name == current.Name() {
			next := names[(i+1)%len(names)]
			if next == current.Name() {
				return Target{Kind: TargetStay}
			}
			return Target{Kind: TargetTransfer, Role: next}
		}
	}
	return Target{Kind: TargetStay}
}

// parseHandOffMarker extracts the target role from the last textual
// hand-off marker in a message. The last marker wins so a role can
// quote earlier hand-offs without re-triggering them.
func parseHandOffMarker(content string) (string, bool) {
	idx := strings.LastIndex(content, HandOffMarker)
	if idx < 0 {
		return "", false
	}
	rest := content[idx+len(HandOffMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	name := strings.Trim(strings.TrimSpace(rest), `"'.`)
	if name == "" {
		return "", false
	}
	return name, true
}

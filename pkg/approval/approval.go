// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Package approval gates side-effecting tool dispatches behind a human
// decision. The orchestrator asks the gate before any calendar-mutating
// call goes out; the gate answers approve, reject, or edit.
package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/VladRad03/Adulter/pkg/errors"
)

// Verdict is the kind of decision a human made.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
	VerdictEdit    Verdict = "edit"
)

// Proposal describes the side-effecting action awaiting a decision.
type Proposal struct {
	ConversationID string         `json:"conversation_id"`
	Role           string         `json:"role"`
	Tool           string         `json:"tool"`
	Args           map[string]any `json:"args"`
}

// Decision is the human's answer to a proposal. Guidance is only set
// for edits: free text the issuing role must incorporate before trying
// again.
type Decision struct {
	Verdict  Verdict `json:"verdict"`
	Guidance string  `json:"guidance,omitempty"`
}

// Approve is the ready-made approval decision.
var Approve = Decision{Verdict: VerdictApprove}

// Reject is the ready-made rejection decision.
var Reject = Decision{Verdict: VerdictReject}

// Edit builds an edit decision carrying guidance text.
func Edit(guidance string) Decision {
	return Decision{Verdict: VerdictEdit, Guidance: guidance}
}

// Gate is asked before every side-effecting dispatch.
type Gate interface {
	Request(ctx context.Context, p Proposal) (Decision, error)
}

// StaticGate answers every proposal with the same decision. Approve-all
// is the unattended-mode gate.
type StaticGate struct {
	Decision Decision
}

func (g StaticGate) Request(ctx context.Context, p Proposal) (Decision, error) {
	return g.Decision, nil
}

// ChannelGate forwards proposals to a channel and waits for the answer.
// An external surface (HTTP handler, UI) drains Proposals and feeds
// Decisions.
type ChannelGate struct {
	Proposals chan Proposal
	Decisions chan Decision
}

// NewChannelGate creates a channel gate with unbuffered channels.
func NewChannelGate() *ChannelGate {
	return &ChannelGate{
		Proposals: make(chan Proposal),
		Decisions: make(chan Decision),
	}
}

func (g *ChannelGate) Request(ctx context.Context, p Proposal) (Decision, error) {
	select {
	case g.Proposals <- p:
	case <-ctx.Done():
		return Decision{}, errors.New(errors.CodeCancelled, "conversation cancelled while awaiting approval", ctx.Err())
	}
	select {
	case d := <-g.Decisions:
		return d, nil
	case <-ctx.Done():
		return Decision{}, errors.New(errors.CodeCancelled, "conversation cancelled while awaiting approval", ctx.Err())
	}
}

// ConsoleGate prompts on the terminal: a approves, r rejects, anything
// else is treated as edit guidance.
type ConsoleGate struct {
	In  io.Reader
	Out io.Writer
}

func (g *ConsoleGate) Request(ctx context.Context, p Proposal) (Decision, error) {
	fmt.Fprintf(g.Out, "\n%s wants to run %s with:\n", p.Role, p.Tool)
	for k, v := range p.Args {
		fmt.Fprintf(g.Out, "  %s: %v\n", k, v)
	}
	fmt.Fprint(g.Out, "[a]pprove / [r]eject / or type a change: ")

	reader := bufio.NewReader(g.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return Decision{}, errors.New(errors.CodeCancelled, "approval input closed", err)
	}
	switch answer := strings.TrimSpace(line); strings.ToLower(answer) {
	case "a", "approve", "":
		return Approve, nil
	case "r", "reject":
		return Reject, nil
	default:
		return Edit(answer), nil
	}
}

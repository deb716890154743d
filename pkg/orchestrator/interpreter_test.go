// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/VladRad03/Adulter/pkg/approval"
	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/llm"
	"github.com/VladRad03/Adulter/pkg/roles"
	"github.com/VladRad03/Adulter/pkg/tools"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) turnRoles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == core.EventTurnStarted {
			out = append(out, e.Role)
		}
	}
	return out
}

type scriptedGate struct {
	decisions []approval.Decision
	proposals []approval.Proposal
}

func (g *scriptedGate) Request(_ context.Context, p approval.Proposal) (approval.Decision, error) {
	g.proposals = append(g.proposals, p)
	if len(g.decisions) == 0 {
		return approval.Approve, nil
	}
	d := g.decisions[0]
	g.decisions = g.decisions[1:]
	return d, nil
}

// testDispatcher registers a counting create tool and a list tool.
func testDispatcher(createCount *int) *tools.Dispatcher {
	reg := tools.NewRegistry()
	reg.MustRegister(tools.ToolSpec{
		Name:        "create-calendar-event",
		Description: "create an event",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			*createCount++
			return "Success! Event created: https://calendar.example/e/1", nil
		},
	})
	reg.MustRegister(tools.ToolSpec{
		Name:        "list-calendar-events",
		Description: "list events",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "[]", nil
		},
	})
	return tools.NewDispatcher(reg)
}

func createCall(id string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      "create-calendar-event",
			Arguments: `{"summary":"Dentist"}`,
		},
	}
}

func TestRoundLimitTerminatesInExactlyNRounds(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		var count int
		reg := roles.NewRegistry()
		reg.MustRegister(roles.NewRole("alpha", "work forever"))

		interp, err := New(&llm.MockProvider{Response: "still working on it"},
			reg, testDispatcher(&count), WithMaxRounds(n))
		if err != nil {
			t.Fatal(err)
		}
		result, err := interp.Interpret(context.Background(), "schedule my week")
		if err != nil {
			t.Fatal(err)
		}
		if result.Outcome != OutcomeRoundLimit {
			t.Errorf("n=%d: expected round_limit, got %q", n, result.Outcome)
		}
		if result.Rounds != n {
			t.Errorf("n=%d: expected exactly %d rounds, got %d", n, n, result.Rounds)
		}
	}
}

func TestMarkerTerminatesAtExactTurn(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "do the work"))

	provider := llm.NewScriptedMockProvider(
		"listing what needs doing",
		"creating the events now",
		"Everything is scheduled. all tasks complete",
		"this reply must never be requested",
	)
	interp, err := New(provider, reg, testDispatcher(&count), WithMaxRounds(10))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "schedule my week")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %q", result.Outcome)
	}
	if result.Rounds != 3 {
		t.Errorf("marker at turn 3 should end at turn 3, got %d", result.Rounds)
	}
	if provider.CallCount != 3 {
		t.Errorf("backend called %d times, want 3", provider.CallCount)
	}
	if !strings.Contains(result.Text, "all tasks complete") {
		t.Errorf("result should be the terminal message, got %q", result.Text)
	}
}

func TestCapabilityRejectionNeverReachesCollaborator(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	// No capabilities at all: any tool call must be rejected.
	reg.MustRegister(roles.NewRole("alpha", "try anyway"))

	provider := llm.NewScriptedMockProvider()
	provider.AddReply(llm.ScriptedReply{ToolCalls: []llm.ToolCall{createCall("call-1")}})
	provider.AddReply(llm.ScriptedReply{Content: "the tool was not available. all tasks complete"})

	interp, err := New(provider, reg, testDispatcher(&count), WithMaxRounds(5))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "create something")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("collaborator was called %d times for an unauthorized tool", count)
	}
	if result.Outcome != OutcomeCompleted {
		t.Errorf("conversation should continue past the rejection, got %q", result.Outcome)
	}
	// The rejection is visible in the turn's tool records.
	var sawRejection bool
	for _, m := range result.Messages {
		for _, tc := range m.ToolCalls {
			if tc.Status == core.ToolCallStatusRejected {
				sawRejection = true
			}
		}
	}
	if !sawRejection {
		t.Error("rejected tool call should be recorded in history")
	}
}

func TestHandOffThenMarker(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "triage"))
	reg.MustRegister(roles.NewRole("beta", "finish"))

	provider := llm.NewScriptedMockProvider(
		"beta can finish this.\nHANDOFF: beta",
		"Done. all tasks complete",
	)
	emitter := &recordingEmitter{}
	interp, err := New(provider, reg, testDispatcher(&count),
		WithMaxRounds(10), WithEmitter(emitter))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "finish the task")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeCompleted || result.Rounds != 2 {
		t.Fatalf("expected completion in 2 rounds, got %q in %d", result.Outcome, result.Rounds)
	}
	if result.Text != "Done. all tasks complete" {
		t.Errorf("result should equal beta's message, got %q", result.Text)
	}
	turns := emitter.turnRoles()
	if len(turns) != 2 || turns[0] != "alpha" || turns[1] != "beta" {
		t.Errorf("expected turn sequence [alpha beta], got %v", turns)
	}
}

func TestRoutingIsDeterministic(t *testing.T) {
	var first []string
	for run := 0; run < 3; run++ {
		var count int
		reg := roles.NewRegistry()
		reg.MustRegister(roles.NewRole("alpha", "triage"))
		reg.MustRegister(roles.NewRole("beta", "plan"))

		provider := llm.NewScriptedMockProvider(
			"HANDOFF: beta",
			"back to you.\nHANDOFF: alpha",
			"staying put",
			"all tasks complete",
		)
		emitter := &recordingEmitter{}
		interp, err := New(provider, reg, testDispatcher(&count),
			WithMaxRounds(10), WithEmitter(emitter))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := interp.Interpret(context.Background(), "plan things"); err != nil {
			t.Fatal(err)
		}
		turns := emitter.turnRoles()
		if run == 0 {
			first = turns
			continue
		}
		if len(turns) != len(first) {
			t.Fatalf("run %d: sequence length changed: %v vs %v", run, turns, first)
		}
		for idx := range turns {
			if turns[idx] != first[idx] {
				t.Fatalf("run %d: sequence diverged: %v vs %v", run, turns, first)
			}
		}
	}
}

func TestStructuredTerminateEndsConversation(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "short"))

	provider := llm.NewScriptedMockProvider()
	provider.AddReply(llm.ScriptedReply{
		Content: "Nothing to schedule.",
		HandOff: &llm.HandOff{Kind: llm.HandOffTerminate},
	})
	interp, err := New(provider, reg, testDispatcher(&count), WithMaxRounds(10))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "empty inbox")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeCompleted || result.Rounds != 1 {
		t.Errorf("expected completed in 1 round, got %q in %d", result.Outcome, result.Rounds)
	}
}

func TestApprovedToolCallDispatches(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "scheduler", "create-calendar-event"))

	provider := llm.NewScriptedMockProvider()
	provider.AddReply(llm.ScriptedReply{ToolCalls: []llm.ToolCall{createCall("call-1")}})
	provider.AddReply(llm.ScriptedReply{Content: "Created. all tasks complete"})

	gate := &scriptedGate{decisions: []approval.Decision{approval.Approve}}
	interp, err := New(provider, reg, testDispatcher(&count),
		WithMaxRounds(5), WithGate(gate))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "book the dentist")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("approved call should dispatch exactly once, got %d", count)
	}
	if len(gate.proposals) != 1 || gate.proposals[0].Tool != "create-calendar-event" {
		t.Errorf("gate should see the proposal, got %+v", gate.proposals)
	}
	if result.Outcome != OutcomeCompleted {
		t.Errorf("expected completed, got %q", result.Outcome)
	}
}

func TestRejectTerminatesWithNoAction(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "scheduler", "create-calendar-event"))

	provider := llm.NewScriptedMockProvider()
	provider.AddReply(llm.ScriptedReply{ToolCalls: []llm.ToolCall{createCall("call-1")}})

	gate := &scriptedGate{decisions: []approval.Decision{approval.Reject}}
	interp, err := New(provider, reg, testDispatcher(&count),
		WithMaxRounds(5), WithGate(gate))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "book the dentist")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("rejected call must not dispatch, got %d", count)
	}
	if result.Outcome != OutcomeRejected {
		t.Errorf("expected rejected, got %q", result.Outcome)
	}
	if result.Text != "No action taken." {
		t.Errorf("expected no-action result, got %q", result.Text)
	}
}

func TestEditConsumesOneRoundAndIsVisible(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "scheduler", "create-calendar-event"))

	provider := llm.NewScriptedMockProvider()
	provider.AddReply(llm.ScriptedReply{ToolCalls: []llm.ToolCall{createCall("call-1")}})
	provider.AddReply(llm.ScriptedReply{Content: "Adjusted as asked. all tasks complete"})

	gate := &scriptedGate{decisions: []approval.Decision{approval.Edit("make it 3pm, not 2pm")}}
	interp, err := New(provider, reg, testDispatcher(&count),
		WithMaxRounds(5), WithGate(gate))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "book the dentist at 2pm")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("edited call must not dispatch, got %d", count)
	}
	// The edit consumed exactly one round: the edited turn plus the
	// follow-up turn.
	if result.Rounds != 2 {
		t.Errorf("expected 2 rounds, got %d", result.Rounds)
	}
	var sawGuidance bool
	for _, m := range result.Messages {
		if m.Author == core.AuthorHuman && m.Content == "make it 3pm, not 2pm" {
			sawGuidance = true
		}
	}
	if !sawGuidance {
		t.Error("edit guidance should be visible in history")
	}
	// And the follow-up turn saw it.
	follow := provider.Requests[1]
	var forwarded bool
	for _, m := range follow.Messages {
		if strings.Contains(m.Content, "make it 3pm") {
			forwarded = true
		}
	}
	if !forwarded {
		t.Error("edit guidance should reach the next backend call")
	}
}

func TestHandOffToHumanOversight(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "careful worker"))

	provider := llm.NewScriptedMockProvider(
		"Here is my plan.\nHANDOFF: human",
		"Proceeding with the plan. all tasks complete",
	)
	gate := &scriptedGate{decisions: []approval.Decision{approval.Approve}}
	interp, err := New(provider, reg, testDispatcher(&count),
		WithMaxRounds(5), WithGate(gate))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "plan carefully")
	if err != nil {
		t.Fatal(err)
	}
	if len(gate.proposals) != 1 {
		t.Fatalf("oversight hand-off should reach the gate, got %d proposals", len(gate.proposals))
	}
	if result.Outcome != OutcomeCompleted || result.Rounds != 2 {
		t.Errorf("approved oversight should continue, got %q in %d rounds", result.Outcome, result.Rounds)
	}

	// Rejection at the oversight checkpoint ends the conversation.
	provider = llm.NewScriptedMockProvider("Here is my plan.\nHANDOFF: human")
	gate = &scriptedGate{decisions: []approval.Decision{approval.Reject}}
	interp, err = New(provider, reg, testDispatcher(&count),
		WithMaxRounds(5), WithGate(gate))
	if err != nil {
		t.Fatal(err)
	}
	result, err = interp.Interpret(context.Background(), "plan carefully")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeRejected || result.Text != "No action taken." {
		t.Errorf("rejected oversight should terminate, got %q / %q", result.Outcome, result.Text)
	}
}

func TestCancellationStopsConversation(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "worker"))

	ctx, cancel := context.WithCancel(context.Background())
	provider := &llm.MockProvider{ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		cancel()
		return &llm.ChatResponse{Content: "still going"}, nil
	}}
	interp, err := New(provider, reg, testDispatcher(&count), WithMaxRounds(10))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(ctx, "never finish")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeCancelled {
		t.Errorf("expected cancelled, got %q", result.Outcome)
	}
	if count != 0 {
		t.Errorf("no tool may run after cancellation, got %d", count)
	}
}

func TestAdapterFailureCountsAsUnproductiveTurn(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "worker"))

	interp, err := New(&llm.FailingMockProvider{}, reg, testDispatcher(&count), WithMaxRounds(2))
	if err != nil {
		t.Fatal(err)
	}
	result, err := interp.Interpret(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeRoundLimit {
		t.Fatalf("failing backend should exhaust the budget, got %q", result.Outcome)
	}
	if result.Rounds != 2 {
		t.Errorf("each failure consumes a round, got %d", result.Rounds)
	}
}

func TestConfigurationErrorsFailFast(t *testing.T) {
	var count int
	reg := roles.NewRegistry()
	reg.MustRegister(roles.NewRole("alpha", "bad wiring", "no-such-tool"))

	if _, err := New(&llm.MockProvider{}, reg, testDispatcher(&count)); err == nil {
		t.Fatal("unknown capability must fail at construction")
	}
}

// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/VladRad03/Adulter/pkg/approval"
	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/errors"
	"github.com/VladRad03/Adulter/pkg/llm"
	"github.com/VladRad03/Adulter/pkg/resilience"
	"github.com/VladRad03/Adulter/pkg/roles"
	"github.com/VladRad03/Adulter/pkg/telemetry"
	"github.com/VladRad03/Adulter/pkg/tools"
)

// Outcome is the terminal state of a conversation. The caller can always
// tell a marker-completed conversation from a forced or abandoned one.
type Outcome string

const (
	// OutcomeCompleted means a role emitted the completion marker.
	OutcomeCompleted Outcome = "completed"
	// OutcomeRoundLimit means the governor forced termination.
	OutcomeRoundLimit Outcome = "round_limit"
	// OutcomeCancelled means the caller abandoned the conversation.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeRejected means the human gate rejected the proposed action.
	OutcomeRejected Outcome = "rejected"
)

// Result is the terminal record of one conversation.
type Result struct {
	ConversationID string
	Outcome        Outcome
	Text           string
	Rounds         int
	Messages       []core.Message
}

// Recorder persists finished conversations.
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// defaultGatedTools are the side-effecting operations held for human
// approval. Read-only tools are never gated.
var defaultGatedTools = []string{
	"create-calendar-event",
	"delete-calendar-event",
	"post-webhook-event",
}

// maxToolIterations bounds the dispatch loop inside a single turn, so a
// backend stuck re-issuing tool calls cannot spin without consuming
// rounds.
const maxToolIterations = 8

// Interpreter converts one natural-language input into calendar actions
// by running the role conversation to termination.
type Interpreter struct {
	provider    llm.Provider
	model       string
	registry    *roles.Registry
	dispatcher  *tools.Dispatcher
	router      *Router
	governor    *Governor
	gate        approval.Gate
	gated       map[string]struct{}
	emitter     core.EventEmitter
	metrics     *telemetry.ConversationMetrics
	recorder    Recorder
	turnTimeout time.Duration
	temperature float64
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithModel sets the backend model name.
func WithModel(model string) Option {
	return func(i *Interpreter) { i.model = model }
}

// WithTemperature sets the backend sampling temperature.
func WithTemperature(t float64) Option {
	return func(i *Interpreter) { i.temperature = t }
}

// WithMode sets the routing mode.
func WithMode(mode Mode) Option {
	return func(i *Interpreter) { i.router = NewRouter(i.registry, mode) }
}

// WithMaxRounds sets the round ceiling.
func WithMaxRounds(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.governor = NewGovernor(i.governor.marker, n)
		}
	}
}

// WithCompletionMarker sets the terminal substring.
func WithCompletionMarker(marker string) Option {
	return func(i *Interpreter) {
		i.governor = NewGovernor(marker, i.governor.maxRounds)
	}
}

// WithGate installs the human approval gate. Without a gate every
// proposal is auto-approved.
func WithGate(gate approval.Gate) Option {
	return func(i *Interpreter) { i.gate = gate }
}

// WithGatedTools overrides which tools require approval.
func WithGatedTools(names ...string) Option {
	return func(i *Interpreter) {
		i.gated = make(map[string]struct{}, len(names))
		for _, n := range names {
			i.gated[n] = struct{}{}
		}
	}
}

// WithEmitter installs a semantic event sink.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(i *Interpreter) { i.emitter = emitter }
}

// WithMetrics attaches conversation metrics.
func WithMetrics(m *telemetry.ConversationMetrics) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// WithRecorder persists every finished conversation.
func WithRecorder(r Recorder) Option {
	return func(i *Interpreter) { i.recorder = r }
}

// WithTurnTimeout bounds each backend call.
func WithTurnTimeout(d time.Duration) Option {
	return func(i *Interpreter) {
		if d > 0 {
			i.turnTimeout = d
		}
	}
}

// New creates an Interpreter. Role capabilities are validated against
// the dispatcher's tool registry; a role naming an unknown tool is a
// configuration error here, not a dispatch-time surprise.
func New(provider llm.Provider, registry *roles.Registry, dispatcher *tools.Dispatcher, opts ...Option) (*Interpreter, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeConfiguration, "reasoning backend provider is required", nil)
	}
	if err := registry.Validate(dispatcher.Registry()); err != nil {
		return nil, err
	}
	if _, err := registry.Initial(); err != nil {
		return nil, err
	}

	i := &Interpreter{
		provider:    provider,
		registry:    registry,
		dispatcher:  dispatcher,
		router:      NewRouter(registry, ModeAuto),
		governor:    NewGovernor("all tasks complete", 20),
		gate:        approval.StaticGate{Decision: approval.Approve},
		emitter:     core.NoopEventEmitter{},
		turnTimeout: 2 * time.Minute,
	}
	i.gated = make(map[string]struct{}, len(defaultGatedTools))
	for _, n := range defaultGatedTools {
		i.gated[n] = struct{}{}
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Interpret runs one conversation over the input and returns its
// terminal result. The context cancels the conversation: no further
// tool invocations happen after cancellation.
func (i *Interpreter) Interpret(ctx context.Context, input string) (*Result, error) {
	ctx, id := core.EnsureConversationID(ctx)

	initial, err := i.registry.Initial()
	if err != nil {
		return nil, err
	}
	state := newConversationState(id, initial, input)

	slog.InfoContext(ctx, "conversation started", "initial_role", initial.Name())

	for {
		if ctx.Err() != nil {
			return i.finish(ctx, state, OutcomeCancelled), nil
		}
		if state.terminal {
			return i.finish(ctx, state, OutcomeCompleted), nil
		}
		if !i.governor.ShouldContinue(state.round) {
			return i.finish(ctx, state, OutcomeRoundLimit), nil
		}

		state.round++
		role := state.active
		i.metrics.RecordTurn(ctx, role.Name())
		i.emitter.Emit(ctx, core.NewEvent(core.EventTurnStarted, role.Name(), id,
			map[string]any{"round": state.round}))

		resp, outcome, err := i.turn(ctx, state, role)
		if outcome != "" {
			return i.finish(ctx, state, outcome), nil
		}
		if err != nil {
			// Backend failure: the turn is counted but unproductive.
			state.append(core.NewMessage(core.AuthorSystem,
				fmt.Sprintf("reasoning backend unavailable this turn: %v", err)))
			i.emitter.Emit(ctx, core.NewEvent(core.EventError, role.Name(), id,
				map[string]any{"error": err.Error()}))
			continue
		}

		i.emitter.Emit(ctx, core.NewEvent(core.EventTurnCompleted, role.Name(), id,
			map[string]any{"round": state.round}))

		if i.governor.IsTerminal(resp.Content) {
			return i.finish(ctx, state, OutcomeCompleted), nil
		}

		switch target := i.router.Next(role, resp.HandOff, resp.Content); target.Kind {
		case TargetTerminate:
			return i.finish(ctx, state, OutcomeCompleted), nil
		case TargetTransfer:
			next, _ := i.registry.Get(target.Role)
			i.emitter.Emit(ctx, core.NewEvent(core.EventHandOff, role.Name(), id,
				map[string]any{"to": target.Role}))
			slog.DebugContext(ctx, "turn handed off", "from", role.Name(), "to", target.Role)
			state.active = next
		case TargetHuman:
			outcome, err := i.humanTurn(ctx, state, role)
			if err != nil {
				return i.finish(ctx, state, OutcomeCancelled), nil
			}
			if outcome != "" {
				return i.finish(ctx, state, outcome), nil
			}
		case TargetStay:
			// Role keeps the turn.
		}
	}
}

// turn runs one role turn: backend call, tool dispatch loop, message
// append. A non-empty outcome short-circuits the conversation; err
// reports an adapter failure that consumes the round.
func (i *Interpreter) turn(ctx context.Context, state *conversationState, role *roles.Role) (*llm.ChatResponse, Outcome, error) {
	turnMessages := i.buildHistory(state, role)
	var records []core.ToolCall
	var resp *llm.ChatResponse

	for iteration := 0; ; iteration++ {
		var err error
		resp, err = resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: i.turnTimeout},
			func(ctx context.Context) (*llm.ChatResponse, error) {
				return i.provider.Chat(ctx, llm.ChatRequest{
					Model:       i.model,
					Messages:    turnMessages,
					Tools:       i.dispatcher.Registry().Definitions(role.Capabilities()),
					Temperature: i.temperature,
				})
			})
		if err != nil {
			if errors.CodeOf(err) == errors.CodeCancelled || ctx.Err() != nil {
				return nil, OutcomeCancelled, nil
			}
			return nil, "", errors.New(errors.CodeAdapter, "backend call failed", err).
				WithContext("role", role.Name())
		}

		if len(resp.ToolCalls) == 0 || iteration >= maxToolIterations {
			break
		}

		turnMessages = append(turnMessages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			record, guidance, outcome := i.dispatch(ctx, state, role, call)
			if outcome != "" {
				return nil, outcome, nil
			}
			if guidance != nil {
				// Human edit: the call is skipped, the guidance enters
				// history as a user message, and the turn ends. The role
				// re-reads history on its next turn.
				state.append(core.NewMessage(role.Name(), resp.Content).WithToolCalls(records...))
				state.append(core.NewMessage(core.AuthorHuman, *guidance))
				return resp, "", nil
			}
			records = append(records, *record)
			turnMessages = append(turnMessages, llm.Message{
				Role:       llm.RoleTool,
				Content:    record.Text(),
				ToolCallID: call.ID,
			})
		}
	}

	state.append(core.NewMessage(role.Name(), resp.Content).WithToolCalls(records...))
	return resp, "", nil
}

// dispatch runs one requested tool call through the approval gate and
// the bridge. A non-nil guidance means a human edit replaced the call.
func (i *Interpreter) dispatch(ctx context.Context, state *conversationState, role *roles.Role, call llm.ToolCall) (*core.ToolCall, *string, Outcome) {
	name := call.Function.Name
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			record := core.NewToolCall(role.Name(), name, nil)
			record.Status = core.ToolCallStatusRejected
			record.Error = errors.New(errors.CodeValidation, "malformed tool arguments", err).Error()
			return &record, nil, ""
		}
	}

	// Only calls that will actually dispatch are worth a human's time;
	// capability rejections happen structurally in the bridge.
	if _, gatedTool := i.gated[name]; gatedTool && role.Allows(name) {
		i.emitter.Emit(ctx, core.NewEvent(core.EventApprovalRequired, role.Name(), state.id,
			map[string]any{"tool": name}))
		decision, err := i.gate.Request(ctx, approval.Proposal{
			ConversationID: state.id,
			Role:           role.Name(),
			Tool:           name,
			Args:           args,
		})
		if err != nil {
			return nil, nil, OutcomeCancelled
		}
		switch decision.Verdict {
		case approval.VerdictReject:
			state.append(core.NewMessage(core.AuthorHuman, "No action taken."))
			return nil, nil, OutcomeRejected
		case approval.VerdictEdit:
			return nil, &decision.Guidance, ""
		}
	}

	record := i.dispatcher.Invoke(ctx, role, name, args)
	i.emitter.Emit(ctx, core.NewEvent(core.EventToolDispatched, role.Name(), state.id,
		map[string]any{"tool": name, "status": string(record.Status)}))
	return &record, nil, ""
}

// humanTurn suspends the conversation on the gate after a role asked
// for oversight of its latest message.
func (i *Interpreter) humanTurn(ctx context.Context, state *conversationState, role *roles.Role) (Outcome, error) {
	i.emitter.Emit(ctx, core.NewEvent(core.EventApprovalRequired, role.Name(), state.id,
		map[string]any{"reason": "oversight"}))
	decision, err := i.gate.Request(ctx, approval.Proposal{
		ConversationID: state.id,
		Role:           role.Name(),
		Tool:           "",
		Args:           map[string]any{"message": state.lastNonEmpty()},
	})
	if err != nil {
		return "", err
	}
	switch decision.Verdict {
	case approval.VerdictReject:
		state.append(core.NewMessage(core.AuthorHuman, "No action taken."))
		return OutcomeRejected, nil
	case approval.VerdictEdit:
		state.append(core.NewMessage(core.AuthorHuman, decision.Guidance))
	}
	return "", nil
}

// buildHistory projects the conversation onto the wire format the
// active role's backend sees: its own messages as assistant turns,
// everyone else's as attributed user turns.
func (i *Interpreter) buildHistory(state *conversationState, role *roles.Role) []llm.Message {
	out := []llm.Message{{Role: llm.RoleSystem, Content: i.systemPrompt(role)}}
	for _, m := range state.messages {
		switch m.Author {
		case role.Name():
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		case core.AuthorHuman:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case core.AuthorSystem:
			out = append(out, llm.Message{Role: llm.RoleSystem, Content: m.Content})
		default:
			out = append(out, llm.Message{Role: llm.RoleUser,
				Content: fmt.Sprintf("[%s] %s", m.Author, m.Content)})
		}
	}
	return out
}

func (i *Interpreter) systemPrompt(role *roles.Role) string {
	var b strings.Builder
	b.WriteString(role.Instructions())
	b.WriteString("\n\nYou are the role \"")
	b.WriteString(role.Name())
	b.WriteString("\".")
	others := make([]string, 0, len(i.registry.Names()))
	for _, name := range i.registry.Names() {
		if name != role.Name() {
			others = append(others, name)
		}
	}
	if len(others) > 0 {
		b.WriteString(" To pass the turn to another role, end your message with a line \"")
		b.WriteString(HandOffMarker)
		b.WriteString(" <role>\". Available roles: ")
		b.WriteString(strings.Join(others, ", "))
		b.WriteString(".")
	}
	return b.String()
}

// finish stamps the terminal state, records metrics, persists the
// transcript, and emits the terminated event.
func (i *Interpreter) finish(ctx context.Context, state *conversationState, outcome Outcome) *Result {
	state.terminal = true
	result := &Result{
		ConversationID: state.id,
		Outcome:        outcome,
		Text:           state.lastNonEmpty(),
		Rounds:         state.round,
		Messages:       state.messages,
	}
	i.metrics.RecordOutcome(ctx, string(outcome), state.round)
	i.emitter.Emit(ctx, core.NewEvent(core.EventTerminated, state.active.Name(), state.id,
		map[string]any{"outcome": string(outcome), "rounds": state.round}))
	slog.InfoContext(ctx, "conversation finished",
		"outcome", string(outcome), "rounds", state.round)

	if i.recorder != nil {
		// Persist on a detached context so a cancelled conversation
		// still leaves an audit record.
		if err := i.recorder.Record(context.WithoutCancel(ctx), result); err != nil {
			slog.WarnContext(ctx, "failed to record transcript", "error", err)
		}
	}
	return result
}

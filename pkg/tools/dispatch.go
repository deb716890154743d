package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/errors"
	"github.com/VladRad03/Adulter/pkg/resilience"
	"github.com/VladRad03/Adulter/pkg/telemetry"
)

// Caller is the issuing side of a tool invocation: a role's identity and
// capability set.
type Caller interface {
	Name() string
	Allows(tool string) bool
}

// Dispatcher validates and executes tool invocations on behalf of roles.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	metrics  *telemetry.ConversationMetrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout bounds every handler call. The default is 30 seconds.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithMetrics attaches conversation metrics to the dispatcher.
func WithMetrics(m *telemetry.ConversationMetrics) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.metrics = m
	}
}

// NewDispatcher creates a dispatch bridge over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatcher's tool registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke executes one tool call for a role and returns the immutable call
// record. Rejections and collaborator failures are folded into the record
// as error text; Invoke never returns an uncaught fault, since the issuing
// role must be able to see and react to the failure on its next turn. The
// side effect happens at most once: there is no automatic retry here.
func (d *Dispatcher) Invoke(ctx context.Context, caller Caller, tool string, args map[string]any) core.ToolCall {
	record := core.NewToolCall(caller.Name(), tool, args)

	// A cancelled conversation must not start new side effects.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err := errors.New(errors.CodeCancelled, "conversation cancelled before dispatch", ctxErr).
			WithContext("tool", tool)
		return d.finish(ctx, record, core.ToolCallStatusFailed, "", err.Error())
	}

	if !caller.Allows(tool) {
		err := errors.New(errors.CodeCapability, "tool not in role capability set", nil).
			WithContext("role", caller.Name()).
			WithContext("tool", tool)
		return d.finish(ctx, record, core.ToolCallStatusRejected, "", err.Error())
	}

	spec, ok := d.registry.Get(tool)
	if !ok {
		// Role registry construction validates capabilities against the
		// tool registry, so this only happens with a hand-built caller.
		err := errors.New(errors.CodeValidation, "unknown tool", nil).WithContext("tool", tool)
		return d.finish(ctx, record, core.ToolCallStatusRejected, "", err.Error())
	}

	if err := validateArgs(spec.InputSchema, args); err != nil {
		return d.finish(ctx, record, core.ToolCallStatusRejected, "", err.Error())
	}

	result, err := resilience.WithTimeoutResult(ctx, resilience.TimeoutConfig{Duration: d.timeout},
		func(ctx context.Context) (string, error) {
			return spec.Handler(ctx, args)
		})
	if err != nil {
		if errors.CodeOf(err) != errors.CodeTimeout && errors.CodeOf(err) != errors.CodeCancelled {
			err = errors.New(errors.CodeCollaborator, "tool execution failed", err).
				WithContext("tool", tool)
		}
		return d.finish(ctx, record, core.ToolCallStatusFailed, "", err.Error())
	}

	return d.finish(ctx, record, core.ToolCallStatusOK, result, "")
}

func (d *Dispatcher) finish(ctx context.Context, record core.ToolCall, status core.ToolCallStatus, result, errText string) core.ToolCall {
	record.Status = status
	record.Result = result
	record.Error = errText
	d.metrics.RecordToolCall(ctx, record.Tool, string(status))
	if status == core.ToolCallStatusOK {
		slog.DebugContext(ctx, "tool dispatched", "tool", record.Tool, "role", record.Role)
	} else {
		slog.WarnContext(ctx, "tool call did not succeed",
			"tool", record.Tool, "role", record.Role, "status", status, "error", errText)
	}
	return record
}

// validateArgs checks args against the tool's parameter schema: required
// parameters must be present, no unknown parameters, and primitive types
// must match. Deeper semantic validation (e.g. zero-duration events) is
// the collaborator's responsibility, not the bridge's.
func validateArgs(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	for _, name := range schema.Required {
		if _, present := args[name]; !present {
			return errors.New(errors.CodeValidation, "missing required parameter", nil).
				WithContext("parameter", name)
		}
	}
	if schema.Properties == nil {
		return nil
	}
	for name, value := range args {
		prop, ok := schema.Properties.Get(name)
		if !ok {
			return errors.New(errors.CodeValidation, "unknown parameter", nil).
				WithContext("parameter", name)
		}
		if value == nil {
			continue
		}
		if !matchesType(prop.Type, value) {
			return errors.New(errors.CodeValidation,
				fmt.Sprintf("parameter %q must be of type %s", name, prop.Type), nil)
		}
	}
	return nil
}

func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer", "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		// Unions and untyped schemas pass through to the collaborator.
		return true
	}
}

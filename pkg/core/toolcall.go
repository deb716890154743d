package core

import (
	"time"

	"github.com/google/uuid"
)

// ToolCallStatus describes the outcome of a dispatched tool call.
type ToolCallStatus string

const (
	ToolCallStatusOK       ToolCallStatus = "ok"
	ToolCallStatusRejected ToolCallStatus = "rejected"
	ToolCallStatusFailed   ToolCallStatus = "failed"
)

// ToolCall records one request by a role to execute an external operation.
// The record is created by the dispatch bridge and never mutated after the
// result is set.
type ToolCall struct {
	ID        string
	Role      string
	Tool      string
	Args      map[string]any
	Status    ToolCallStatus
	Result    string
	Error     string
	CreatedAt time.Time
}

// NewToolCall creates a tool call record for a role's invocation request.
func NewToolCall(role, tool string, args map[string]any) ToolCall {
	return ToolCall{
		ID:        uuid.NewString(),
		Role:      role,
		Tool:      tool,
		Args:      args,
		CreatedAt: time.Now().UTC(),
	}
}

// Text returns the result text a role sees on its next turn: the success
// value, or the error description for rejected and failed calls.
func (c ToolCall) Text() string {
	if c.Status == ToolCallStatusOK {
		return c.Result
	}
	return c.Error
}

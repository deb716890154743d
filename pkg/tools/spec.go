package tools

import (
	"context"

	"github.com/invopop/jsonschema"

	"github.com/VladRad03/Adulter/pkg/llm"
)

// Handler performs the external operation behind a tool. The returned
// string is the result text the issuing role sees on its next turn.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// ToolSpec describes one callable operation: name, parameter schema, and
// the executing collaborator. Registered once, read-only at runtime.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler
}

// Definition returns the backend-facing function definition for this tool.
func (s ToolSpec) Definition() llm.Tool {
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  s.InputSchema,
		},
	}
}

// EventTime is the start/end element of the calendar event schema.
type EventTime struct {
	DateTime string `json:"dateTime" jsonschema_description:"ISO 8601 timestamp, e.g. 2025-09-22T13:00:00-07:00"`
	TimeZone string `json:"timeZone" jsonschema_description:"IANA time zone name, e.g. America/Los_Angeles"`
}

// Event is the calendar event shape exchanged with calendar collaborators.
type Event struct {
	Summary     string    `json:"summary" jsonschema_description:"Title of the event"`
	Description string    `json:"description,omitempty" jsonschema_description:"Optional details"`
	Location    string    `json:"location,omitempty" jsonschema_description:"Optional event location"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

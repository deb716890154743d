package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted by the orchestrator.
type EventType string

const (
	EventTurnStarted      EventType = "conversation.turn.started"
	EventTurnCompleted    EventType = "conversation.turn.completed"
	EventHandOff          EventType = "conversation.handoff"
	EventToolDispatched   EventType = "conversation.tool.dispatched"
	EventApprovalRequired EventType = "conversation.approval.required"
	EventTerminated       EventType = "conversation.terminated"
	EventError            EventType = "conversation.error"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type           EventType
	Role           string
	ConversationID string
	Timestamp      time.Time
	Payload        map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, role string, conversationID string, payload map[string]any) Event {
	return Event{
		Type:           eventType,
		Role:           role,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
		Payload:        payload,
	}
}

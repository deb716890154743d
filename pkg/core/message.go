package core

import (
	"time"

	"github.com/google/uuid"
)

// Well-known message authors. Role messages carry the role name instead.
const (
	AuthorSystem = "system"
	AuthorHuman  = "human"
)

// Message is a single unit of conversation history. Messages are
// append-only: once added to a conversation they are never rewritten.
type Message struct {
	ID        string
	Author    string
	Content   string
	ToolCalls []ToolCall
	CreatedAt time.Time
}

// NewMessage builds a message with a generated id and timestamp.
func NewMessage(author, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// WithToolCalls returns a copy of the message with tool call records attached.
func (m Message) WithToolCalls(calls ...ToolCall) Message {
	m.ToolCalls = append([]ToolCall(nil), calls...)
	return m
}

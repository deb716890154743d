package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type conversationIDKey struct{}

// WithConversationID attaches a conversation id to the context.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey{}, id)
}

// ConversationID returns the conversation id if present.
func ConversationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(conversationIDKey{}).(string)
	return id, ok
}

// EnsureConversationID ensures a conversation id exists in the context.
func EnsureConversationID(ctx context.Context) (context.Context, string) {
	if id, ok := ConversationID(ctx); ok {
		return ctx, id
	}
	id := newConversationID()
	return WithConversationID(ctx, id), id
}

func newConversationID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "conv-unknown"
	}
	return "conv-" + hex.EncodeToString(buf)
}

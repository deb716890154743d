package llm

import (
	"context"
	"errors"
)

// MockProvider answers every Chat call with the same canned reply. For
// multi-turn conversations use ScriptedMockProvider instead.
type MockProvider struct {
	Response string
	HandOff  *HandOff
	Err      error
	// ChatFunc, when set, replaces the canned reply entirely.
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return ScriptedReply{Content: m.Response, HandOff: m.HandOff}.response(), nil
}

// FailingMockProvider stands in for an unreachable backend: every Chat
// call fails.
type FailingMockProvider struct {
	Err error
}

func (f *FailingMockProvider) Chat(context.Context, ChatRequest) (*ChatResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, errors.New("mock backend unreachable")
}

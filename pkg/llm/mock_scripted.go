package llm

import (
	"context"
	"errors"
	"sync"
)

// ScriptedReply is one pre-defined backend response for scripted tests.
type ScriptedReply struct {
	Content   string
	ToolCalls []ToolCall
	HandOff   *HandOff
	Err       error
}

// ScriptedMockProvider returns a pre-defined sequence of replies. Useful
// for testing multi-turn routing: each Chat call pops the next reply.
type ScriptedMockProvider struct {
	mu      sync.Mutex
	Replies []ScriptedReply
	// Requests captures every chat request for assertions.
	Requests []ChatRequest
	// CallCount tracks how many times Chat has been called.
	CallCount int
}

// NewScriptedMockProvider creates a provider that replies with the given
// contents in order.
func NewScriptedMockProvider(contents ...string) *ScriptedMockProvider {
	p := &ScriptedMockProvider{}
	for _, c := range contents {
		p.Replies = append(p.Replies, ScriptedReply{Content: c})
	}
	return p
}

// Chat pops the next scripted reply or fails when the script is exhausted.
func (s *ScriptedMockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	s.Requests = append(s.Requests, req)

	if len(s.Replies) == 0 {
		return nil, errors.New("scripted mock: no more replies available")
	}

	reply := s.Replies[0]
	s.Replies = s.Replies[1:]

	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.response(), nil
}

// response materializes the reply as a ChatResponse with nominal token
// usage, so metrics paths see non-zero counts in tests.
func (r ScriptedReply) response() *ChatResponse {
	return &ChatResponse{
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
		HandOff:   r.HandOff,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}
}

// AddReply appends a reply to the script.
func (s *ScriptedMockProvider) AddReply(reply ScriptedReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Replies = append(s.Replies, reply)
}

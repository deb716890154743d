// Package research answers open-ended questions with a dedicated model
// call, kept separate from the conversation so research detours do not
// pollute the calendar context.
package research

import (
	"context"
	"fmt"

	"github.com/VladRad03/Adulter/pkg/llm"
	"github.com/VladRad03/Adulter/pkg/tools"
)

const systemPrompt = "You are a research assistant. Answer the question concisely and factually. " +
	"If the answer depends on information you do not have, say so instead of guessing."

// Service runs research queries against an LLM provider.
type Service struct {
	provider llm.Provider
	model    string
}

// New creates a research service.
func New(provider llm.Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Lookup asks the provider a single question and returns its answer.
func (s *Service) Lookup(ctx context.Context, query string) (string, error) {
	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
	})
	if err != nil {
		return "", fmt.Errorf("research lookup failed: %w", err)
	}
	return resp.Content, nil
}

// LookupParams is the query schema for the research tool.
type LookupParams struct {
	Query string `json:"query" jsonschema_description:"Question to research"`
}

// Specs returns the tool specs this service contributes.
func (s *Service) Specs() []tools.ToolSpec {
	return []tools.ToolSpec{
		{
			Name:        "web-research",
			Description: "Research a question and return a concise factual answer.",
			InputSchema: tools.GenerateSchema[LookupParams](),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				query, _ := args["query"].(string)
				return s.Lookup(ctx, query)
			},
		},
	}
}

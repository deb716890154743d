package llm

import (
	"context"
	"testing"
)

func TestMockProvider(t *testing.T) {
	mock := &MockProvider{Response: "all tasks complete"}
	resp, err := mock.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "schedule my week"}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "all tasks complete" {
		t.Errorf("expected 'all tasks complete', got '%s'", resp.Content)
	}
}

func TestMockProviderHandOff(t *testing.T) {
	mock := &MockProvider{
		Response: "passing this along",
		HandOff:  &HandOff{Kind: HandOffTransfer, Role: "schedule_checker"},
	}
	resp, err := mock.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.HandOff == nil || resp.HandOff.Role != "schedule_checker" {
		t.Errorf("expected transfer hand-off, got %+v", resp.HandOff)
	}
}

func TestScriptedMockProvider(t *testing.T) {
	p := NewScriptedMockProvider("checking calendar", "event created")
	p.AddReply(ScriptedReply{
		HandOff: &HandOff{Kind: HandOffTransfer, Role: "schedule_checker"},
	})

	first, err := p.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("first Chat failed: %v", err)
	}
	if first.Content != "checking calendar" {
		t.Errorf("expected first scripted reply, got %q", first.Content)
	}

	if _, err := p.Chat(context.Background(), ChatRequest{}); err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}

	third, err := p.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("third Chat failed: %v", err)
	}
	if third.HandOff == nil || third.HandOff.Kind != HandOffTransfer || third.HandOff.Role != "schedule_checker" {
		t.Errorf("expected transfer hand-off, got %+v", third.HandOff)
	}

	if _, err := p.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Errorf("expected error once script is exhausted")
	}
	if p.CallCount != 4 {
		t.Errorf("expected 4 calls recorded, got %d", p.CallCount)
	}
}

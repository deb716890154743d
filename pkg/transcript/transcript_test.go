// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

package transcript

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/orchestrator"
)

func sampleResult(id string) *orchestrator.Result {
	call := core.NewToolCall("calendar_agent", "create-calendar-event",
		map[string]any{"summary": "Dentist"})
	call.Status = core.ToolCallStatusOK
	call.Result = "Success! Event created: https://calendar.example/e/1"
	return &orchestrator.Result{
		ConversationID: id,
		Outcome:        orchestrator.OutcomeCompleted,
		Text:           "Done. all tasks complete",
		Rounds:         3,
		Messages: []core.Message{
			core.NewMessage(core.AuthorHuman, "schedule my week"),
			core.NewMessage("calendar_agent", "Done. all tasks complete").WithToolCalls(call),
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Record(ctx, sampleResult("conv-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, sampleResult("conv-2")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ConversationID != "conv-1" || len(got.Messages) != 2 {
		t.Fatalf("unexpected transcript: %+v", got)
	}

	missing, err := s.Get(ctx, "conv-nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v, %v", missing, err)
	}

	recent, err := s.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ConversationID != "conv-2" {
		t.Fatalf("List should return newest first, got %+v", recent)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Record(ctx, sampleResult("conv-sql-1")); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "conv-sql-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("transcript not found after Record")
	}
	if got.Outcome != orchestrator.OutcomeCompleted || got.Rounds != 3 {
		t.Errorf("unexpected transcript header: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Author != core.AuthorHuman {
		t.Errorf("messages not restored in order: %+v", got.Messages)
	}
	calls := got.Messages[1].ToolCalls
	if len(calls) != 1 || calls[0].Tool != "create-calendar-event" {
		t.Fatalf("tool calls not restored: %+v", calls)
	}
	if calls[0].Status != core.ToolCallStatusOK || calls[0].Args["summary"] != "Dentist" {
		t.Errorf("tool call fields lost: %+v", calls[0])
	}

	missing, err := s.Get(ctx, "conv-nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v, %v", missing, err)
	}

	recent, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ConversationID != "conv-sql-1" {
		t.Fatalf("unexpected list: %+v", recent)
	}
}

func TestSQLiteStoreRecordIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	result := sampleResult("conv-dup")
	if err := s.Record(ctx, result); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, result); err != nil {
		t.Fatal(err)
	}
	recent, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("re-recording must not duplicate rows, got %d", len(recent))
	}
}

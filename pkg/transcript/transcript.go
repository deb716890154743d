// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Package transcript persists finished conversations for audit. The
// orchestrator writes one record per conversation; nothing here is on
// the turn loop's hot path.
package transcript

import (
	"context"
	"sync"

	"github.com/VladRad03/Adulter/pkg/orchestrator"
)

// Store reads back persisted conversations.
type Store interface {
	orchestrator.Recorder
	Get(ctx context.Context, conversationID string) (*orchestrator.Result, error)
	List(ctx context.Context, limit int) ([]orchestrator.Result, error)
}

// MemoryStore keeps transcripts in memory. Meant for tests and
// short-lived CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	results []orchestrator.Result
	byID    map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Record implements orchestrator.Recorder.
func (s *MemoryStore) Record(_ context.Context, result *orchestrator.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[result.ConversationID] = len(s.results)
	s.results = append(s.results, *result)
	return nil
}

// Get returns the transcript for a conversation id, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, conversationID string) (*orchestrator.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[conversationID]
	if !ok {
		return nil, nil
	}
	result := s.results[idx]
	return &result, nil
}

// List returns the most recent transcripts, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]orchestrator.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.results)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]orchestrator.Result, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

// Copyright 2026 © The Adulter Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator runs the conversation loop: it routes turns
// between roles, mediates their tool calls, detects completion, and
// bounds the number of rounds.
package orchestrator

import (
	"strings"

	"github.com/VladRad03/Adulter/pkg/core"
	"github.com/VladRad03/Adulter/pkg/roles"
)

// conversationState is the private, per-invocation record of one
// conversation. It is owned by exactly one Interpret call and never
// shared; messages are append-only.
type conversationState struct {
	id       string
	messages []core.Message
	active   *roles.Role
	round    int
	terminal bool
}

func newConversationState(id string, initial *roles.Role, input string) *conversationState {
	s := &conversationState{id: id, active: initial}
	s.append(core.NewMessage(core.AuthorHuman, input))
	return s
}

func (s *conversationState) append(m core.Message) {
	s.messages = append(s.messages, m)
}

// lastNonEmpty returns the most recent message content that is not
// blank. It is the conversation's result on termination.
func (s *conversationState) lastNonEmpty() string {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if content := strings.TrimSpace(s.messages[i].Content); content != "" {
			return content
		}
	}
	return ""
}

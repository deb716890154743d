// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConversationMetrics tracks turn counts, tool dispatches, and conversation
// outcomes for production monitoring.
type ConversationMetrics struct {
	turnCounter     metric.Int64Counter
	toolCounter     metric.Int64Counter
	outcomeCounter  metric.Int64Counter
	roundsHistogram metric.Int64Histogram
}

// NewConversationMetrics creates a metrics tracker with OTEL meters.
func NewConversationMetrics() (*ConversationMetrics, error) {
	meter := otel.Meter("adulter/orchestrator")

	turnCounter, err := meter.Int64Counter(
		"adulter.conversation.turns",
		metric.WithDescription("Completed role turns by role"),
	)
	if err != nil {
		return nil, err
	}

	toolCounter, err := meter.Int64Counter(
		"adulter.tool.calls",
		metric.WithDescription("Tool dispatches by tool name and status"),
	)
	if err != nil {
		return nil, err
	}

	outcomeCounter, err := meter.Int64Counter(
		"adulter.conversation.outcomes",
		metric.WithDescription("Finished conversations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	roundsHistogram, err := meter.Int64Histogram(
		"adulter.conversation.rounds",
		metric.WithDescription("Rounds consumed per conversation"),
	)
	if err != nil {
		return nil, err
	}

	return &ConversationMetrics{
		turnCounter:     turnCounter,
		toolCounter:     toolCounter,
		outcomeCounter:  outcomeCounter,
		roundsHistogram: roundsHistogram,
	}, nil
}

// RecordTurn increments the turn counter for a role.
func (cm *ConversationMetrics) RecordTurn(ctx context.Context, role string) {
	if cm == nil {
		return
	}
	cm.turnCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordToolCall increments the tool dispatch counter.
func (cm *ConversationMetrics) RecordToolCall(ctx context.Context, tool, status string) {
	if cm == nil {
		return
	}
	cm.toolCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

// RecordOutcome records a finished conversation and its round count.
func (cm *ConversationMetrics) RecordOutcome(ctx context.Context, outcome string, rounds int) {
	if cm == nil {
		return
	}
	cm.outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	cm.roundsHistogram.Record(ctx, int64(rounds), metric.WithAttributes(attribute.String("outcome", outcome)))
}

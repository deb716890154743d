// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/VladRad03/Adulter/pkg/errors"
)

func TestWithTimeoutResultReturnsValue(t *testing.T) {
	got, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: time.Second}, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
}

func TestWithTimeoutResultTimesOut(t *testing.T) {
	_, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	if errors.CodeOf(err) != errors.CodeTimeout {
		t.Errorf("expected CodeTimeout, got %v", err)
	}
}

func TestWithTimeoutResultCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := WithTimeoutResult(ctx, TimeoutConfig{Duration: time.Minute}, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if errors.CodeOf(err) != errors.CodeCancelled {
		t.Errorf("expected CodeCancelled, got %v", err)
	}
}

func TestWithTimeoutResultNoBoundary(t *testing.T) {
	got, err := WithTimeoutResult(context.Background(), TimeoutConfig{}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("expected 42 with no boundary, got %d, %v", got, err)
	}
}

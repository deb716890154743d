// SPDX-License-Identifier: Apache-2.0
// Package resilience provides timeout boundaries for the orchestrator's
// two suspension points: reasoning backend calls and collaborator calls.
package resilience

import (
	"context"
	"time"

	"github.com/VladRad03/Adulter/pkg/errors"
)

// TimeoutConfig controls timeout behavior.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the operation. Zero means
	// no boundary beyond the caller's context.
	Duration time.Duration
}

// WithTimeoutResult executes fn with a timeout boundary, returning both
// result and error. Returns errors.CodeTimeout if the deadline is exceeded
// and errors.CodeCancelled if the caller's context was cancelled first.
// No exclusive lock may be held across this call.
func WithTimeoutResult[T any](ctx context.Context, config TimeoutConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Duration)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.Canceled {
			return zero, errors.New(errors.CodeCancelled, "operation cancelled", ctx.Err())
		}
		return zero, errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String())
	case res := <-done:
		return res.value, res.err
	}
}

/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package dbresilience wraps database round trips with a circuit breaker
// and bounded retry, so a string of connectivity failures against a dead
// pool fails fast instead of retrying into it indefinitely.
package dbresilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wagerflow/etlcore/internal/etlmodel"
)

// RetryConfig bounds the retry behavior around a single logical operation.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultRetryConfig matches the teacher's compaction engine defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, RetryDelay: 5 * time.Second}
}

// Breaker wraps one named dependency (e.g. "source-db", "target-db") with a
// gobreaker circuit breaker plus a bounded linear-backoff retry loop
// for transient connectivity errors.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// New creates a Breaker named name. It trips after 5 consecutive failures
// and stays open for 30 seconds before allowing a single trial request.
func New(name string) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](st)}
}

// Do executes fn through the circuit breaker. If the breaker is open,
// fn is not called and gobreaker.ErrOpenState is returned.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// DoWithRetry executes fn through the circuit breaker, retrying up to
// cfg.MaxRetries times with linearly increasing delay whenever fn returns a
// *etlmodel.ConnectivityError or the breaker is open. Any other error is
// returned as is without a retry; exhaustion of retries is returned wrapped
// as a ConnectivityError.
func (b *Breaker) DoWithRetry(ctx context.Context, op string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(cfg.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = b.Do(ctx, fn)
		if lastErr == nil {
			return nil
		}

		var connErr *etlmodel.ConnectivityError
		if !errors.As(lastErr, &connErr) && !errors.Is(lastErr, gobreaker.ErrOpenState) {
			// Not a retryable class of error; surface immediately.
			return lastErr
		}
	}
	return &etlmodel.ConnectivityError{Op: op, Err: lastErr}
}

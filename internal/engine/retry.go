package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryEngine wraps an Engine with exponential backoff on transient
// failures. Only the initial request is retried; once a stream is open it
// belongs to the caller.
type RetryEngine struct {
	inner      Engine
	maxRetries int
	baseDelay  time.Duration
}

func WithRetry(e Engine, maxRetries int) *RetryEngine {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryEngine{inner: e, maxRetries: maxRetries, baseDelay: 500 * time.Millisecond}
}

func (r *RetryEngine) Name() string { return r.inner.Name() }

func (r *RetryEngine) Complete(ctx context.Context, req Request) (<-chan Chunk, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		ch, err := r.inner.Complete(ctx, req)
		if err == nil {
			return ch, nil
		}
		lastErr = err
		if !r.isRetryable(err) || attempt == r.maxRetries {
			break
		}
		if err := r.backoff(ctx, attempt); err != nil {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

func (r *RetryEngine) isRetryable(err error) bool {
	msg := err.Error()
	// Loading models answer 503 for a while; local servers drop connections
	// when restarting.
	for _, s := range []string{"429", "500", "502", "503", "loading", "busy",
		"connection refused", "timeout", "deadline exceeded", "EOF", "reset by peer"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (r *RetryEngine) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(r.baseDelay) * math.Pow(2, float64(attempt)))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

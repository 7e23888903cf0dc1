package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RetryConfig bounds the retry loop around a provider.
type RetryConfig struct {
	// MaxAttempts includes the first attempt. Must be at least 1.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt; each
	// further attempt doubles it.
	InitialBackoff time.Duration

	// Limiter, when non-nil, throttles calls across every client
	// sharing it. Batch runs hand the same limiter to all games.
	Limiter *rate.Limiter
}

// DefaultRetryConfig retries twice after the first failure with a
// one second initial backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
	}
}

// RetryingClient wraps a Client with bounded retry, exponential
// backoff, and an optional shared rate limiter. Only provider
// failures are retried; context cancellation aborts immediately.
type RetryingClient struct {
	inner Client
	cfg   RetryConfig
}

func NewRetryingClient(inner Client, cfg RetryConfig) (*RetryingClient, error) {
	if inner == nil {
		return nil, errors.New("inner client must not be nil")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	return &RetryingClient{inner: inner, cfg: cfg}, nil
}

func (r *RetryingClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	backoff := r.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if r.cfg.Limiter != nil {
			if err := r.cfg.Limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("%w: rate limiter: %w", ErrProviderFailure, err)
			}
		}

		out, err := r.inner.Generate(ctx, prompt, params)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrProviderFailure, ctx.Err())
		}
		if !errors.Is(err, ErrProviderFailure) {
			return "", err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		slog.Debug("provider call failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)
		if backoff > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrProviderFailure, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return "", fmt.Errorf("exhausted %d attempts: %w", r.cfg.MaxAttempts, lastErr)
}

var _ Client = (*RetryingClient)(nil)

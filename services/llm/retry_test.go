package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRetrySucceedsWithinBudget(t *testing.T) {
	inner := NewScriptedClient(
		ScriptedResponse{Err: errors.New("timeout")},
		ScriptedResponse{Err: errors.New("timeout")},
		ScriptedResponse{Text: "ok"},
	)
	client, err := NewRetryingClient(inner, RetryConfig{MaxAttempts: 3})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "p", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.Calls())
}

func TestRetryExhaustsBudget(t *testing.T) {
	inner := NewScriptedClient(
		ScriptedResponse{Err: errors.New("timeout")},
		ScriptedResponse{Err: errors.New("timeout")},
	)
	client, err := NewRetryingClient(inner, RetryConfig{MaxAttempts: 2})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", GenerationParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Equal(t, 2, inner.Calls())
}

func TestRetryStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := Script("never reached")
	client, err := NewRetryingClient(inner, DefaultRetryConfig())
	require.NoError(t, err)

	_, err = client.Generate(ctx, "p", GenerationParams{})
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestRetryWithSharedLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	inner := Script("ok")
	client, err := NewRetryingClient(inner, RetryConfig{MaxAttempts: 1, Limiter: limiter})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "p", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRetryRejectsBadConfig(t *testing.T) {
	_, err := NewRetryingClient(nil, DefaultRetryConfig())
	assert.Error(t, err)

	_, err = NewRetryingClient(Script(), RetryConfig{MaxAttempts: 0})
	assert.Error(t, err)
}

func TestScriptedClientRecordsPrompts(t *testing.T) {
	client := Script("a", "b")

	out, err := client.Generate(context.Background(), "first", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "a", out)

	out, err = client.Generate(context.Background(), "second", GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "b", out)

	_, err = client.Generate(context.Background(), "third", GenerationParams{})
	assert.ErrorIs(t, err, ErrProviderFailure, "script exhausted")

	assert.Equal(t, []string{"first", "second", "third"}, client.Prompts)
}

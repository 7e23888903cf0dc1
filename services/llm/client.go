// Package llm wraps the external completion provider. The engine
// treats provider calls as cancellable, timeout-bounded operations
// whose failures are a distinct error kind, never a crash.
package llm

import (
	"context"
	"errors"
)

// ErrProviderFailure marks a completion call that timed out, failed
// transport, or returned unusable content. Callers match with
// errors.Is and count the failure against their retry budget.
var ErrProviderFailure = errors.New("provider failure")

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client is the standard interface for any completion backend.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

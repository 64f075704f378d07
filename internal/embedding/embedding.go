// Package embedding defines the text vectorization contract shared by the
// client, the provider transports and the cache decorator.
package embedding

import (
	"context"
	"errors"
)

// ErrProviderError signals an embedding provider failure.
var ErrProviderError = errors.New("embedding provider error")

// Embedder turns a text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (Result, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Result carries the embedding vector and token usage through the decorator chain.
type Result struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

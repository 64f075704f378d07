package vectordb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vectordb/internal/embedding"
	openaiEmb "github.com/kailas-cloud/vectordb/internal/transport/openai"
)

// Embedder converts text to a vector embedding.
// Required by QueryText unless the server embeds through a query index.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingStore is the key-value store behind the embedding cache.
// Get must return an error matching ErrCacheMiss for absent keys.
type EmbeddingStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// OpenAIConfig configures an OpenAI-compatible embedding provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty means the OpenAI default
	Model      string
	Dimensions int // 0 keeps the model default
	User       string
	Provider   string // metrics label, defaults to "openai"
}

// NewOpenAIEmbedder creates an Embedder backed by any OpenAI-compatible API.
// The result also implements HealthCheck(ctx) error.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *zap.Logger) Embedder {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &openAIEmbedder{
		model: cfg.Model,
		inner: openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			User:       cfg.User,
			Provider:   provider,
			Logger:     logger,
		}),
	}
}

type openAIEmbedder struct {
	model string
	inner *openaiEmb.Embedder
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	r, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err //nolint:wrapcheck // provider errors already carry context
	}
	return EmbeddingResult{Embedding: r.Embedding, PromptTokens: r.PromptTokens, TotalTokens: r.TotalTokens}, nil
}

func (e *openAIEmbedder) HealthCheck(ctx context.Context) error {
	return e.inner.HealthCheck(ctx) //nolint:wrapcheck // transparent wrapper
}

func (e *openAIEmbedder) Model() string { return e.model }

// embedderNamespace separates cached vectors of different models.
func embedderNamespace(e Embedder) string {
	if m, ok := e.(interface{ Model() string }); ok && m.Model() != "" {
		return m.Model()
	}
	return "default"
}

// embedderAdapter wraps public Embedder to satisfy embedding.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (embedding.Result, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return embedding.Result{}, fmt.Errorf("embed: %w", err)
	}
	return embedding.Result{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck delegates when the wrapped embedder supports it.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(embedding.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent wrapper
	}
	return nil
}

// TextQuery is a query by text rather than by vector.
//
// With QueryIndex set the text is sent as is and the server embeds it.
// Otherwise the client embeds it with the configured Embedder and searches
// QueryField.
type TextQuery struct {
	Table        string
	Text         string
	QueryField   string
	QueryIndex   string
	Response     []string
	Limit        int
	WithDistance bool
	Filter       string
	Facets       []Facet
}

// QueryText runs a text query in the selected database.
func (c *Client) QueryText(ctx context.Context, q TextQuery) (*Response, error) {
	if _, err := c.requireDB(opQueryText); err != nil {
		return nil, err
	}
	if q.Text == "" {
		return nil, fmt.Errorf("%s: %w: text is required", opQueryText, ErrInvalidArgument)
	}

	req := QueryRequest{
		Table:        q.Table,
		QueryField:   q.QueryField,
		Response:     q.Response,
		Limit:        q.Limit,
		WithDistance: q.WithDistance,
		Filter:       q.Filter,
		Facets:       q.Facets,
	}

	if q.QueryIndex != "" {
		req.Query = q.Text
		req.QueryIndex = q.QueryIndex
		return c.query(ctx, opQueryText, req)
	}

	if c.embedder == nil {
		return nil, fmt.Errorf("%s: %w", opQueryText, ErrEmbedderNotConfigured)
	}
	res, err := c.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("vectordb: %s: %w", opQueryText, err)
	}
	req.QueryVector = res.Embedding
	return c.query(ctx, opQueryText, req)
}

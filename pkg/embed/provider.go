// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package embed generates embedding vectors for chunk text.
//
// The Provider interface abstracts the embedding backend. OpenAIProvider
// talks to any OpenAI-compatible embeddings endpoint; MockProvider produces
// deterministic vectors for tests. Clients are constructed per call-site
// with an explicit credential, never from ambient process state.
package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// DefaultDimension is the vector size of DefaultModel.
const DefaultDimension = 1536

// Provider generates embedding vectors for text.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector size this provider produces.
	Dimension() int
}

// RetryConfig controls retry behavior for transient provider failures.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig retries transient failures three times with
// exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
	}
}

// OpenAIProvider generates embeddings via an OpenAI-compatible API.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	retry     RetryConfig
	logger    *slog.Logger
}

// Options configures an OpenAIProvider.
type Options struct {
	// APIKey authenticates every request. Required.
	APIKey string

	// BaseURL overrides the provider endpoint for OpenAI-compatible servers.
	BaseURL string

	// Model is the embedding model name. Defaults to DefaultModel.
	Model string

	// Dimension is the expected vector size. Defaults to DefaultDimension.
	Dimension int
}

// NewOpenAIProvider builds a provider from explicit options. The API key is
// held only by the returned client for the lifetime of the call-site.
func NewOpenAIProvider(opts Options, logger *slog.Logger) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("embedding provider requires an API key")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Dimension <= 0 {
		opts.Dimension = DefaultDimension
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}, nil
}

// SetRetryConfig overrides the retry policy. Useful in tests.
func (p *OpenAIProvider) SetRetryConfig(rc RetryConfig) {
	p.retry = rc
}

// Dimension returns the configured vector size.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Embed requests one embedding per input text. Transient failures (timeouts,
// 429, 5xx) are retried with exponential backoff; permanent failures (bad
// key, bad request) are returned immediately with the provider's message.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	backoff := p.retry.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("embed.retry", "attempt", attempt, "backoff", backoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * p.retry.Multiplier)
			if backoff > p.retry.MaxBackoff {
				backoff = p.retry.MaxBackoff
			}
		}

		var err error
		resp, err = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.model),
			Input: texts,
		})
		if err == nil {
			return p.collect(resp)
		}
		if !isTransient(err) {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("create embeddings after %d retries: %w", p.retry.MaxRetries, lastErr)
}

func (p *OpenAIProvider) collect(resp openai.EmbeddingResponse) ([][]float32, error) {
	vectors := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if p.dimension > 0 && len(datum.Embedding) != p.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", p.dimension, len(datum.Embedding))
		}
		vectors[i] = datum.Embedding
	}
	return vectors, nil
}

// isTransient reports whether a provider error is worth retrying.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// Transport-level failures (connection reset, timeout) arrive as plain
	// errors and are retried.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(Options{}, nil)
	assert.Error(t, err)
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p, err := NewOpenAIProvider(Options{APIKey: "sk-test"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDimension, p.Dimension())
}

// embeddingsResponse builds a minimal OpenAI-shaped embeddings payload.
func embeddingsResponse(dim, count int) map[string]any {
	data := make([]map[string]any, count)
	for i := range data {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = 0.1
		}
		data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
	}
	return map[string]any{"object": "list", "data": data, "model": "test"}
}

func TestOpenAIProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingsResponse(4, 2))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Options{APIKey: "sk-test", BaseURL: server.URL, Dimension: 4}, nil)
	require.NoError(t, err)

	vectors, err := p.Embed(context.Background(), []string{"first chunk", "second chunk"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 4)
}

func TestOpenAIProvider_Embed_DimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingsResponse(3, 1))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Options{APIKey: "sk-test", BaseURL: server.URL, Dimension: 8}, nil)
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), []string{"text"})
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestOpenAIProvider_Embed_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embeddingsResponse(4, 1))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Options{APIKey: "sk-test", BaseURL: server.URL, Dimension: 4}, nil)
	require.NoError(t, err)
	p.SetRetryConfig(RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1})

	vectors, err := p.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIProvider_Embed_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Options{APIKey: "sk-bad", BaseURL: server.URL}, nil)
	require.NoError(t, err)
	p.SetRetryConfig(RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1})

	_, err = p.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "401 must not be retried")
}

func TestOpenAIProvider_Embed_EmptyInput(t *testing.T) {
	p, err := NewOpenAIProvider(Options{APIKey: "sk-test"}, nil)
	require.NoError(t, err)

	vectors, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestMockProvider_Deterministic(t *testing.T) {
	m := NewMockProvider(8)

	a, err := m.Embed(context.Background(), []string{"func main() {}"})
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), []string{"func main() {}"})
	require.NoError(t, err)

	assert.Equal(t, a, b, "same text must embed to the same vector")
}

func TestMockProvider_UnitNorm(t *testing.T) {
	m := NewMockProvider(16)
	vectors, err := m.Embed(context.Background(), []string{"some chunk text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	var norm float64
	for _, x := range vectors[0] {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockProvider_DistinctTexts(t *testing.T) {
	m := NewMockProvider(8)
	vectors, err := m.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.NotEqual(t, vectors[0], vectors[1])
}

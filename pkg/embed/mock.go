// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embed

import (
	"context"
	"math"
)

// MockProvider generates deterministic embeddings for testing.
//
// Vectors are derived from a hash of the input text and normalized to unit
// length. Not semantically meaningful, but stable across runs, which is what
// pipeline and retrieval tests need.
type MockProvider struct {
	dimension int
}

// NewMockProvider creates a mock embedding provider with the given dimension.
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 8
	}
	return &MockProvider{dimension: dimension}
}

// Dimension returns the configured vector size.
func (m *MockProvider) Dimension() int {
	return m.dimension
}

// Embed generates one deterministic unit vector per input text.
func (m *MockProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *MockProvider) vector(text string) []float32 {
	hash := hashString(text)

	v := make([]float32, m.dimension)
	for i := 0; i < m.dimension; i++ {
		val := float32((hash+uint64(i)*7919)%10000) / 10000.0
		v[i] = val*2.0 - 1.0
	}

	var norm float32
	for _, x := range v {
		norm += x * x
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}

// hashString is the djb2 string hash.
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}

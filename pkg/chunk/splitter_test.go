// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 1200, 200, false},
		{"zero overlap", 100, 0, false},
		{"negative overlap clamped", 100, -5, false},
		{"overlap at half size", 100, 50, false},
		{"zero size", 0, 0, true},
		{"overlap above half size", 100, 60, true},
		{"overlap equals size", 100, 100, true},
		{"overlap exceeds size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.size, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplit_ShortContentSingleChunk(t *testing.T) {
	s, err := NewSplitter(1200, 200)
	require.NoError(t, err)

	content := "package main\n\nfunc main() {}\n"
	chunks := s.Split(content, "txt")

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Code)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
}

func TestSplit_EmptyContent(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	assert.Nil(t, s.Split("", "txt"))
	assert.Nil(t, s.Split("   \n\t\n", "txt"))
}

// numberedLines builds n lines of exactly 11 bytes each ("0123456789\n").
func numberedLines(n int) string {
	return strings.Repeat("0123456789\n", n)
}

func TestSplit_SizeBound(t *testing.T) {
	for _, size := range []int{64, 200, 1200} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			s, err := NewSplitter(size, size/6)
			require.NoError(t, err)

			chunks := s.Split(numberedLines(100), "txt")
			require.NotEmpty(t, chunks)
			for i, c := range chunks {
				assert.LessOrEqual(t, len(c.Code), size, "chunk %d exceeds size bound", i)
			}
		})
	}
}

// sharedOverlap returns the longest k where the tail of a equals the head of b.
func sharedOverlap(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for k := max; k > 0; k-- {
		if a[len(a)-k:] == b[:k] {
			return k
		}
	}
	return 0
}

func TestSplit_OverlapProperty(t *testing.T) {
	const (
		size    = 50
		overlap = 10
	)
	s, err := NewSplitter(size, overlap)
	require.NoError(t, err)

	chunks := s.Split(numberedLines(20), "txt")
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		got := sharedOverlap(chunks[i].Code, chunks[i+1].Code)
		assert.GreaterOrEqual(t, got, overlap,
			"chunks %d and %d share only %d bytes", i, i+1, got)
	}
}

func TestSplit_OverlapPropertyAtMaximumOverlap(t *testing.T) {
	const (
		size    = 100
		overlap = 50
	)
	s, err := NewSplitter(size, overlap)
	require.NoError(t, err)

	// Distinct lines longer than half the overlap, so a regressed cut that
	// produces a chunk shorter than the overlap window cannot hide behind
	// repeated content.
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "def name_%02d():%s\n", i, strings.Repeat("#", 39))
	}

	chunks := s.Split(b.String(), "txt")
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Code), size, "chunk %d exceeds size bound", i)
	}
	for i := 0; i < len(chunks)-1; i++ {
		got := sharedOverlap(chunks[i].Code, chunks[i+1].Code)
		assert.GreaterOrEqual(t, got, overlap,
			"chunks %d and %d share only %d bytes", i, i+1, got)
	}
}

func TestSplit_LineNumbers(t *testing.T) {
	s, err := NewSplitter(33, 0)
	require.NoError(t, err)

	content := numberedLines(10)
	chunks := s.Split(content, "txt")
	require.NotEmpty(t, chunks)

	assert.Equal(t, 1, chunks[0].StartLine)
	lines := strings.Split(content, "\n")
	for _, c := range chunks {
		// The chunk's first line content must match the file at StartLine.
		firstLine := strings.SplitN(c.Code, "\n", 2)[0]
		assert.Equal(t, lines[c.StartLine-1], firstLine)
		assert.GreaterOrEqual(t, c.EndLine, c.StartLine)
	}
	assert.Equal(t, 10, chunks[len(chunks)-1].EndLine)
}

func TestSplit_PrefersDeclarationBoundaries(t *testing.T) {
	// 20 two-line functions, 25 bytes each. With size 120 / overlap 20 every
	// cut lands on a "def" line start, so all chunks begin at a declaration.
	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "def f%02d():\n    return %02d\n", i, i)
	}

	s, err := NewSplitter(120, 20)
	require.NoError(t, err)

	chunks := s.Split(b.String(), "txt")
	require.Greater(t, len(chunks), 3)

	for i, c := range chunks {
		assert.True(t, strings.HasPrefix(c.Code, "def f"),
			"chunk %d starts mid-statement: %q", i, c.Code[:10])
	}
}

func TestSplit_HardCutWithoutNewlines(t *testing.T) {
	s, err := NewSplitter(100, 10)
	require.NoError(t, err)

	// A single long line forces hard byte cuts.
	content := strings.Repeat("x", 450)
	chunks := s.Split(content, "txt")
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Code), 100)
		assert.Equal(t, 1, c.StartLine)
	}
}

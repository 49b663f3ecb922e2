// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarationOffsets_Go(t *testing.T) {
	src := `package main

import "fmt"

func add(a, b int) int {
	return a + b
}

func main() {
	fmt.Println(add(1, 2))
}
`
	offsets := declarationOffsets([]byte(src), "go")
	require.NotEmpty(t, offsets)
	assert.True(t, sort.IntsAreSorted(offsets))

	// Both function declarations must be reported as split points.
	assert.Contains(t, offsets, strings.Index(src, "func add"))
	assert.Contains(t, offsets, strings.Index(src, "func main"))
}

func TestDeclarationOffsets_Python(t *testing.T) {
	src := "def first():\n    return 1\n\nclass Widget:\n    pass\n"
	offsets := declarationOffsets([]byte(src), "py")
	require.NotEmpty(t, offsets)

	assert.Contains(t, offsets, 0)
	assert.Contains(t, offsets, strings.Index(src, "class Widget"))
}

func TestDeclarationOffsets_UnsupportedLanguage(t *testing.T) {
	assert.Nil(t, declarationOffsets([]byte("some text"), "md"))
	assert.Nil(t, declarationOffsets([]byte("some text"), ""))
}

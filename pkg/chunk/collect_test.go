// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFile creates a file under root, creating parent directories.
func writeTestFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestCollect_ExcludesDependencyDirectories(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.py", "def main():\n    print('hello')\n")
	writeTestFile(t, root, "README.md", "# Project\n\nDocumentation.\n")
	writeTestFile(t, root, "node_modules/lib.js", "module.exports = {};\n")

	chunks, stats, err := Collect(root, DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesProcessed)
	for _, c := range chunks {
		assert.NotContains(t, c.Filename, "node_modules")
	}
	assert.GreaterOrEqual(t, stats.SkipReasons["excluded"], 1)
}

func TestCollect_ExclusionInvariant(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/app.go", "package app\n")
	writeTestFile(t, root, ".git/config.ini", "[core]\n")
	writeTestFile(t, root, "dist/bundle.js", "var x = 1;\n")
	writeTestFile(t, root, "vendor/dep/dep.go", "package dep\n")
	writeTestFile(t, root, "assets/app.min.js", "var a=1;\n")
	writeTestFile(t, root, "package-lock.json", "{}\n")

	chunks, _, err := Collect(root, DefaultOptions(), nil)
	require.NoError(t, err)

	for _, c := range chunks {
		for _, segment := range []string{"node_modules", ".git", "dist", "vendor"} {
			assert.NotContains(t, c.Filename, segment)
		}
		assert.False(t, strings.HasSuffix(c.Filename, ".min.js"))
		assert.NotEqual(t, "package-lock.json", c.Filename)
	}
	require.Len(t, chunks, 1)
	assert.Equal(t, "src/app.go", chunks[0].Filename)
}

func TestCollect_UnsupportedExtensionsSkipped(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "binary.exe", "not really a binary")
	writeTestFile(t, root, "image.png", "fake png")
	writeTestFile(t, root, "code.go", "package main\n")

	chunks, stats, err := Collect(root, DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 2, stats.SkipReasons["unsupported_extension"])
	require.Len(t, chunks, 1)
	assert.Equal(t, "go", chunks[0].Language)
}

func TestCollect_BinaryContentSkipped(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "data.go")
	require.NoError(t, os.WriteFile(full, []byte{0x00, 0xFF, 0xFE, 'a', 'b'}, 0o644))
	writeTestFile(t, root, "ok.go", "package ok\n")

	chunks, stats, err := Collect(root, DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.SkipReasons["binary"])
	require.Len(t, chunks, 1)
	assert.Equal(t, "ok.go", chunks[0].Filename)
}

func TestCollect_OversizedFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "big.md", strings.Repeat("line of text\n", 100))
	writeTestFile(t, root, "small.md", "# small\n")

	opts := DefaultOptions()
	opts.MaxFileSize = 64

	_, stats, err := Collect(root, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.SkipReasons["too_large"])
}

func TestCollect_ChunkMetadata(t *testing.T) {
	root := t.TempDir()
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("def handler():\n    return None\n")
	}
	writeTestFile(t, root, "pkg/views.py", b.String())

	chunks, _, err := Collect(root, DefaultOptions(), nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1, "long file should produce multiple chunks")

	for _, c := range chunks {
		assert.Equal(t, "pkg/views.py", c.Filename)
		assert.Equal(t, "py", c.Language)
		assert.GreaterOrEqual(t, c.StartLine, 1)
		assert.GreaterOrEqual(t, c.EndLine, c.StartLine)
		assert.LessOrEqual(t, len(c.Code), DefaultOptions().ChunkSize)
		assert.NotEmpty(t, strings.TrimSpace(c.Code))
	}
}

func TestCollect_EmptyDirectory(t *testing.T) {
	chunks, stats, err := Collect(t.TempDir(), DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, stats.FilesProcessed)
}

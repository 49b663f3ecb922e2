// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

// Chunk is a bounded-size slice of a source file, the unit of embedding and
// retrieval. Chunks are immutable once written to the index.
type Chunk struct {
	// Filename is the file path relative to the repository root, always
	// slash-separated. Used for exact-match boosting and citation.
	Filename string

	// Language is the file extension with the leading dot stripped.
	Language string

	// StartLine and EndLine are the 1-based line positions of the chunk's
	// text in the original file.
	StartLine int
	EndLine   int

	// Code is the chunk's raw source text.
	Code string
}

// Options configures file selection and splitting.
type Options struct {
	// ChunkSize is the target chunk size in bytes. Chunks never exceed it.
	ChunkSize int

	// ChunkOverlap is the minimum number of bytes consecutive chunks from
	// the same file share.
	ChunkOverlap int

	// MaxFileSize is the largest file, in bytes, that will be chunked.
	// Larger files are skipped with a logged warning.
	MaxFileSize int64
}

// DefaultOptions returns the chunking defaults: 1200-byte chunks with a
// 200-byte overlap, skipping files over 1 MiB.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    1200,
		ChunkOverlap: 200,
		MaxFileSize:  1 << 20,
	}
}

// Stats summarizes a Collect run.
type Stats struct {
	// FilesProcessed counts files that produced at least one chunk.
	FilesProcessed int

	// SkipReasons counts skipped entries by reason: "excluded",
	// "unsupported_extension", "too_large", "unreadable", "binary", "empty".
	SkipReasons map[string]int
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package chunk turns a repository checkout into retrievable chunks.
//
// The package walks a directory tree, filters files through a supported
// extension allowlist and a dependency/build/VCS denylist, and splits each
// file's text into overlapping, bounded-size chunks along content-aware
// boundaries.
//
// # Pipeline position
//
// Chunking is a pure stage: it performs no network or index I/O, which keeps
// it independently unit-testable. The ingestion pipeline feeds its output to
// the embedding provider and the vector index.
//
// # Splitting strategy
//
// The splitter targets a fixed chunk size in bytes with a configurable
// overlap window between consecutive chunks. Within the tail of each window
// it prefers, in order: a declaration boundary reported by Tree-sitter (for
// Go, Python, JavaScript and TypeScript), a line starting with a
// function/class keyword, a comment line, any newline, and finally a hard
// byte cut. A chunk therefore rarely starts mid-statement while never
// exceeding the configured size.
//
// Line numbers are tracked through the split, so every chunk carries the
// exact 1-based start and end line of its text in the original file.
package chunk

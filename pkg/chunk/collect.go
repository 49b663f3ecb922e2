// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"log/slog"
)

// allowedExtensions is the fixed allowlist of file extensions that are
// chunked and indexed: common source, markup, config and documentation
// formats.
var allowedExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true,
	".tsx": true, ".rs": true, ".java": true, ".rb": true, ".php": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true,
	".cs": true, ".swift": true, ".kt": true, ".scala": true, ".ex": true,
	".exs": true, ".erl": true, ".hs": true, ".lua": true, ".pl": true,
	".r": true, ".sh": true, ".bash": true, ".zsh": true, ".ps1": true,
	".sql": true, ".proto": true, ".graphql": true, ".vue": true,
	".svelte": true, ".md": true, ".rst": true, ".txt": true, ".html": true,
	".css": true, ".scss": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".ini": true, ".cfg": true, ".env": true, ".xml": true,
	".dockerfile": true, ".tf": true, ".gradle": true, ".cmake": true,
}

// excludedSegments is the fixed denylist of path segments. Any file whose
// relative path contains one of these segments is skipped, and matching
// directories are pruned from the walk before their contents are visited.
var excludedSegments = map[string]bool{
	"node_modules": true, ".git": true, ".hg": true, ".svn": true,
	"vendor": true, "dist": true, "build": true, "out": true,
	"target": true, "bin": true, "obj": true, "__pycache__": true,
	".venv": true, "venv": true, ".idea": true, ".vscode": true,
	".next": true, ".nuxt": true, "coverage": true, ".cache": true,
	".terraform": true, "bower_components": true,
}

// excludedFiles lists exact file names that carry no retrievable content,
// lockfiles mostly.
var excludedFiles = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
	"Cargo.lock": true, "Gemfile.lock": true, "composer.lock": true,
	"poetry.lock": true, "go.sum": true,
}

// Collect walks rootPath and returns one Chunk per split window of every
// included file.
//
// Exclusion runs before extension filtering: denylisted directories are
// pruned without being read. Unreadable, binary, oversized and empty files
// are skipped with a logged warning and counted in Stats.SkipReasons; a bad
// file never aborts the walk.
func Collect(rootPath string, opts Options, logger *slog.Logger) ([]Chunk, *Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts = DefaultOptions()
	}

	splitter, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{SkipReasons: make(map[string]int)}
	var chunks []Chunk

	walkErr := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Permission errors and friends: log and keep walking.
			logger.Warn("chunk.walk.error", "path", path, "err", err)
			return nil
		}

		if d.IsDir() {
			if path != rootPath && excludedSegments[d.Name()] {
				stats.SkipReasons["excluded"]++
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if excluded(relPath) {
			stats.SkipReasons["excluded"]++
			return nil
		}

		ext := strings.ToLower(filepath.Ext(relPath))
		if !allowedExtensions[ext] {
			stats.SkipReasons["unsupported_extension"]++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			stats.SkipReasons["unreadable"]++
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			stats.SkipReasons["too_large"]++
			logger.Warn("chunk.walk.skip_large_file", "path", relPath, "size", info.Size(), "limit", opts.MaxFileSize)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			stats.SkipReasons["unreadable"]++
			logger.Warn("chunk.walk.skip_unreadable", "path", relPath, "err", err)
			return nil
		}
		if len(content) == 0 || strings.TrimSpace(string(content)) == "" {
			stats.SkipReasons["empty"]++
			return nil
		}
		if !utf8.Valid(content) || strings.ContainsRune(string(content), 0) {
			stats.SkipReasons["binary"]++
			logger.Warn("chunk.walk.skip_binary", "path", relPath)
			return nil
		}

		language := strings.TrimPrefix(ext, ".")
		fileChunks := splitter.Split(string(content), language)
		for i := range fileChunks {
			fileChunks[i].Filename = relPath
			fileChunks[i].Language = language
		}
		chunks = append(chunks, fileChunks...)
		if len(fileChunks) > 0 {
			stats.FilesProcessed++
		}

		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("walk repository: %w", walkErr)
	}

	logger.Info("chunk.collect.complete",
		"files", stats.FilesProcessed,
		"chunks", len(chunks),
		"skipped", stats.SkipReasons,
	)
	return chunks, stats, nil
}

// excluded reports whether a slash-separated relative path is denylisted:
// either one of its segments matches the directory denylist, the base name
// is a lockfile, or the file is a minified asset.
func excluded(relPath string) bool {
	for _, segment := range strings.Split(relPath, "/") {
		if excludedSegments[segment] {
			return true
		}
	}
	base := filepath.Base(relPath)
	if excludedFiles[base] {
		return true
	}
	if strings.HasSuffix(base, ".min.js") || strings.HasSuffix(base, ".min.css") {
		return true
	}
	return false
}

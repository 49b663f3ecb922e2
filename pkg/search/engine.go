// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package search implements hybrid retrieval over the chunk index.
//
// Every query runs a semantic nearest-neighbor search. When the query names
// a specific file (detected by a Matcher), a second, concurrent lookup
// constrained to matching filenames runs alongside it, so a file the user
// explicitly asked about is never missed by pure semantic ranking. Results
// are merged with filename matches first and deduplicated.
//
// Retrieval failures never propagate: a failed branch degrades to an empty
// result set, because "no context found" is a valid, non-exceptional input
// to the answer composer.
package search

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/kraklabs/cra/pkg/embed"
	"github.com/kraklabs/cra/pkg/index"
)

// FilenameMatchLimit is the fixed number of hits requested from the
// filename lookup, independent of the caller's limit.
const FilenameMatchLimit = 5

// DefaultLimit is the semantic result count used when the caller passes no
// explicit limit.
const DefaultLimit = 10

// Result is the query-time projection of an indexed chunk, stripped of its
// vector.
type Result struct {
	Code     string `json:"code"`
	Filename string `json:"filename"`
	Line     int    `json:"line"`
}

// Index is the slice of the index client the engine depends on.
type Index interface {
	Query(ctx context.Context, vector []float32, limit int) ([]index.Hit, error)
	QueryFilename(ctx context.Context, token string, limit int) ([]index.Hit, error)
}

// Engine performs hybrid retrieval.
type Engine struct {
	index    Index
	embedder embed.Provider
	matcher  Matcher
	logger   *slog.Logger
}

// NewEngine wires an Engine. A nil matcher selects the default
// RegexMatcher.
func NewEngine(idx Index, embedder embed.Provider, matcher Matcher, logger *slog.Logger) *Engine {
	if matcher == nil {
		matcher = NewRegexMatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	searchMetrics.init()
	return &Engine{
		index:    idx,
		embedder: embedder,
		matcher:  matcher,
		logger:   logger,
	}
}

// Search retrieves up to limit semantically similar chunks, boosted by an
// exact filename lookup when the query names a file. It never fails: any
// provider error is logged and absorbed into an empty result set.
func (e *Engine) Search(ctx context.Context, query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	searchMetrics.searches.Inc()
	start := time.Now()
	defer func() {
		searchMetrics.searchDuration.Observe(time.Since(start).Seconds())
	}()

	token, hasFilename := e.matcher.Match(query)

	var (
		wg           sync.WaitGroup
		semanticHits []index.Hit
		filenameHits []index.Hit
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		semanticHits = e.semantic(ctx, query, limit)
	}()

	if hasFilename {
		searchMetrics.filenameLookups.Inc()
		wg.Add(1)
		go func() {
			defer wg.Done()
			filenameHits = e.byFilename(ctx, token)
		}()
	}

	wg.Wait()

	var results []Result
	if hasFilename {
		// Filename matches take priority in the merged ordering; dedup by
		// (filename, startLine) keeps the first occurrence.
		results = merge(filenameHits, semanticHits, limit+FilenameMatchLimit)
	} else {
		results = merge(nil, semanticHits, limit)
	}

	searchMetrics.resultsReturned.Add(float64(len(results)))
	e.logger.Debug("search.complete",
		"query_len", len(query),
		"filename_token", token,
		"results", len(results),
	)
	return results
}

// semantic embeds the query and runs the nearest-neighbor search.
func (e *Engine) semantic(ctx context.Context, query string, limit int) []index.Hit {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		searchMetrics.degraded.Inc()
		e.logger.Error("search.semantic.embed_error", "err", err)
		return nil
	}

	hits, err := e.index.Query(ctx, vectors[0], limit)
	if err != nil {
		searchMetrics.degraded.Inc()
		e.logger.Error("search.semantic.error", "err", err)
		return nil
	}
	return hits
}

// byFilename runs the exact-match filename lookup.
func (e *Engine) byFilename(ctx context.Context, token string) []index.Hit {
	hits, err := e.index.QueryFilename(ctx, token, FilenameMatchLimit)
	if err != nil {
		searchMetrics.degraded.Inc()
		e.logger.Error("search.filename.error", "token", token, "err", err)
		return nil
	}
	return hits
}

// dedupKey is the practical deduplication identity for merged result sets.
// Collisions across distinct chunks are possible and acceptable.
type dedupKey struct {
	filename  string
	startLine int
}

// merge concatenates priority hits before secondary hits, deduplicates by
// (filename, startLine) keeping the first occurrence, and truncates to max.
func merge(priority, secondary []index.Hit, max int) []Result {
	seen := make(map[dedupKey]bool, len(priority)+len(secondary))
	results := make([]Result, 0, max)

	for _, hit := range append(priority, secondary...) {
		key := dedupKey{filename: hit.Filename, startLine: hit.StartLine}
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, Result{
			Code:     hit.Code,
			Filename: hit.Filename,
			Line:     hit.StartLine,
		})
		if len(results) >= max {
			break
		}
	}
	return results
}

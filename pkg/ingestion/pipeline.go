// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ingestion runs the write path end to end: acquire a repository,
// reset the index schema, chunk the source tree, and bulk-load embedded
// chunk records.
//
// One ingestion replaces the whole collection. The pipeline assumes a
// single concurrent ingestion; there is no incremental update path.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/kraklabs/cra/internal/errors"
	"github.com/kraklabs/cra/pkg/chunk"
	"github.com/kraklabs/cra/pkg/embed"
	"github.com/kraklabs/cra/pkg/index"
	"github.com/kraklabs/cra/pkg/repo"
)

// DefaultBatchSize is the number of chunks embedded and upserted per batch.
const DefaultBatchSize = 100

// Store is the slice of the index client the pipeline writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, records []index.Record) error
}

// Options configures a pipeline run.
type Options struct {
	// BatchSize is the number of chunks per embed+upsert batch. Zero
	// selects DefaultBatchSize.
	BatchSize int

	// Chunking controls file selection and splitting. The zero value is
	// replaced with chunk.DefaultOptions.
	Chunking chunk.Options

	// Progress, when non-nil, is called after each batch with the number of
	// chunks written so far and the total.
	Progress func(done, total int)
}

// Result summarizes a completed ingestion.
type Result struct {
	// FilesProcessed counts source files that produced chunks.
	FilesProcessed int

	// ChunksIndexed counts chunk records written to the collection.
	ChunksIndexed int

	// Skipped counts directory entries excluded by the selection rules.
	Skipped int

	// Duration is the wall-clock time of the whole run, cloning included.
	Duration time.Duration
}

// Pipeline wires acquisition, chunking, embedding, and the index store.
type Pipeline struct {
	store    Store
	embedder embed.Provider
	opts     Options
	logger   *slog.Logger
}

// NewPipeline builds a Pipeline.
func NewPipeline(store Store, embedder embed.Provider, opts Options, logger *slog.Logger) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Chunking == (chunk.Options{}) {
		opts.Chunking = chunk.DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ingestMetrics.init()
	return &Pipeline{
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}
}

// Run ingests the repository named by reference (local path or remote git
// URL) into the index. The collection is reset before any write, so a
// failed run can leave it partially populated but never stale-mixed. Cloned
// temporary directories are removed on every path out, success or failure.
func (p *Pipeline) Run(ctx context.Context, reference string) (*Result, error) {
	start := time.Now()
	ingestMetrics.ingestions.Inc()

	checkout, err := repo.Acquire(ctx, reference, p.logger)
	if err != nil {
		ingestMetrics.failures.Inc()
		return nil, errors.NewAcquisitionError(
			"Cannot acquire repository",
			err.Error(),
			"Check the repository URL or local path and your network access",
			err,
		)
	}
	defer checkout.Cleanup(p.logger)

	if err := p.store.EnsureSchema(ctx); err != nil {
		ingestMetrics.failures.Inc()
		return nil, errors.NewIndexError(
			"Cannot provision the vector index",
			err.Error(),
			"Check that the index service is running and reachable",
			err,
		)
	}

	chunks, stats, err := chunk.Collect(checkout.Path, p.opts.Chunking, p.logger)
	if err != nil {
		ingestMetrics.failures.Inc()
		return nil, errors.NewInternalError(
			"Cannot read the repository contents",
			err.Error(),
			"Check filesystem permissions on the repository path",
			err,
		)
	}

	indexed, err := p.load(ctx, chunks)
	if err != nil {
		ingestMetrics.failures.Inc()
		return nil, err
	}

	skipped := 0
	for _, n := range stats.SkipReasons {
		skipped += n
	}

	result := &Result{
		FilesProcessed: stats.FilesProcessed,
		ChunksIndexed:  indexed,
		Skipped:        skipped,
		Duration:       time.Since(start),
	}

	ingestMetrics.filesProcessed.Add(float64(result.FilesProcessed))
	ingestMetrics.chunksIndexed.Add(float64(result.ChunksIndexed))
	ingestMetrics.ingestDuration.Observe(result.Duration.Seconds())

	p.logger.Info("ingest.complete",
		"reference", reference,
		"files", result.FilesProcessed,
		"chunks", result.ChunksIndexed,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

// load embeds and upserts chunks in batches, returning the number of
// records written. A mid-run failure reports how far it got, so the caller
// knows the corpus is incompletely indexed rather than believing success.
func (p *Pipeline) load(ctx context.Context, chunks []chunk.Chunk) (int, error) {
	total := len(chunks)
	written := 0

	for lo := 0; lo < total; lo += p.opts.BatchSize {
		hi := lo + p.opts.BatchSize
		if hi > total {
			hi = total
		}
		batch := chunks[lo:hi]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Code
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return written, errors.NewUpstreamError(
				"Embedding request failed",
				fmt.Sprintf("indexed %d of %d chunks before failure: %v", written, total, err),
				"Check your API key and rate limits, then re-run the ingestion",
				err,
			)
		}
		if len(vectors) != len(batch) {
			return written, errors.NewUpstreamError(
				"Embedding request failed",
				fmt.Sprintf("provider returned %d vectors for %d inputs", len(vectors), len(batch)),
				"Re-run the ingestion; if the mismatch persists, report it to the embedding provider",
				nil,
			)
		}

		records := make([]index.Record, len(batch))
		for i, c := range batch {
			records[i] = index.Record{
				Code:      c.Code,
				Filename:  c.Filename,
				Language:  c.Language,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Vector:    vectors[i],
			}
		}

		if err := p.store.Upsert(ctx, records); err != nil {
			return written, errors.NewIndexError(
				"Cannot write chunk records to the index",
				fmt.Sprintf("indexed %d of %d chunks before failure: %v", written, total, err),
				"Check that the index service is healthy, then re-run the ingestion",
				err,
			)
		}

		written += len(batch)
		p.logger.Debug("ingest.batch", "written", written, "total", total)
		if p.opts.Progress != nil {
			p.opts.Progress(written, total)
		}
	}

	return written, nil
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/cra/internal/errors"
	"github.com/kraklabs/cra/internal/output"
	"github.com/kraklabs/cra/internal/ui"
	"github.com/kraklabs/cra/pkg/chunk"
	"github.com/kraklabs/cra/pkg/embed"
	"github.com/kraklabs/cra/pkg/index"
	"github.com/kraklabs/cra/pkg/ingestion"
)

// runIngest executes the 'ingest' CLI command, loading a repository into
// the vector index.
//
// The reference argument is a local path or a remote git URL; remote
// repositories are shallow-cloned to a temporary directory that is removed
// when ingestion finishes. The target collection is reset first, so every
// ingest fully replaces the previously indexed content.
//
// Flags:
//   - --batch-size: Chunks per embed+upsert batch (default: 100)
//   - --chunk-size: Target chunk size in bytes (overrides config)
//   - --chunk-overlap: Overlap between consecutive chunks (overrides config)
//   - --timeout: Overall ingestion deadline (default: 30m)
//   - --debug: Enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	cra ingest .                              Ingest the current directory
//	cra ingest https://github.com/user/repo   Ingest a remote repository
//	cra ingest . --batch-size 50              Smaller embedding batches
func runIngest(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	batchSize := fs.Int("batch-size", ingestion.DefaultBatchSize, "Chunks per embed+upsert batch")
	chunkSize := fs.Int("chunk-size", 0, "Target chunk size in bytes (0 = config value)")
	chunkOverlap := fs.Int("chunk-overlap", -1, "Overlap between consecutive chunks (-1 = config value)")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall ingestion deadline")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cra ingest <repository> [options]

Ingests a repository into the vector index. The repository is a local
path or a remote git URL (cloned shallowly and cleaned up afterwards).
The collection is reset first: each ingest replaces the previous index.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing repository argument",
			"ingest takes exactly one repository path or URL",
			"Run: cra ingest <path-or-url>",
		), globals.JSON)
	}
	reference := fs.Arg(0)

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load configuration", err.Error(),
			"Run 'cra init' or fix the config file", err,
		), globals.JSON)
	}

	logger := newLogger(*debug)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	embedder, err := embed.NewOpenAIProvider(embed.Options{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Embedding provider is not configured", err.Error(),
			"Set OPENAI_API_KEY or add openai_api_key to .cra/config.yaml", err,
		), globals.JSON)
	}

	store, err := index.NewClient(index.Config{
		URL:        cfg.QdrantURL,
		Collection: cfg.Collection,
		Dimension:  cfg.EmbeddingDimension,
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Vector index is not configured", err.Error(),
			"Check qdrant_url and collection in .cra/config.yaml", err,
		), globals.JSON)
	}

	chunking := chunk.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		MaxFileSize:  chunk.DefaultOptions().MaxFileSize,
	}
	if *chunkSize > 0 {
		chunking.ChunkSize = *chunkSize
	}
	if *chunkOverlap >= 0 {
		chunking.ChunkOverlap = *chunkOverlap
	}

	progress := NewProgressConfig(globals)
	spinner := NewSpinner(progress, "Acquiring and chunking repository")
	var bar *progressbar.ProgressBar

	pipeline := ingestion.NewPipeline(store, embedder, ingestion.Options{
		BatchSize: *batchSize,
		Chunking:  chunking,
		Progress: func(done, total int) {
			// First callback means acquisition and chunking are done.
			if spinner != nil {
				_ = spinner.Finish()
				spinner = nil
			}
			if bar == nil {
				bar = NewProgressBar(progress, int64(total), "Indexing chunks")
			}
			if bar != nil {
				_ = bar.Set(done)
			}
		},
	}, logger)

	if !globals.Quiet {
		ui.Infof("Ingesting %s into collection %q", reference, cfg.Collection)
	}

	result, err := pipeline.Run(ctx, reference)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{
			"files_processed": result.FilesProcessed,
			"chunks_indexed":  result.ChunksIndexed,
			"skipped":         result.Skipped,
			"duration_ms":     result.Duration.Milliseconds(),
		})
		return
	}

	ui.Successf("Indexed %d chunks from %d files in %s",
		result.ChunksIndexed, result.FilesProcessed, result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		fmt.Println(ui.DimText(fmt.Sprintf("Skipped %d entries (excluded dirs, unsupported or oversized files)", result.Skipped)))
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  cra search \"<query>\"    Retrieve matching code chunks")
	fmt.Println("  cra ask \"<question>\"    Get a grounded answer with sources")
}

// newLogger builds the slog text logger every command shares.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// serveMetrics exposes Prometheus metrics on addr for long ingestion runs.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics.http.error", "err", err)
	}
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"log/slog"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cra/internal/errors"
	"github.com/kraklabs/cra/internal/output"
	"github.com/kraklabs/cra/internal/ui"
	"github.com/kraklabs/cra/pkg/embed"
	"github.com/kraklabs/cra/pkg/index"
	"github.com/kraklabs/cra/pkg/search"
)

// runSearch executes the 'search' CLI command, printing the code chunks
// that best match the query. Retrieval failures degrade to an empty result
// list, so this command only exits non-zero for configuration problems.
func runSearch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.IntP("limit", "n", search.DefaultLimit, "Maximum number of results")
	debug := fs.Bool("debug", false, "Enable debug logging")
	timeout := fs.Duration("timeout", 60*time.Second, "Search deadline")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cra search <query> [options]

Retrieves the indexed code chunks most similar to the query. Naming a
file in the query ("how does main.rs handle errors") additionally runs
an exact filename lookup and ranks those chunks first.

Options:
%s`, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing query argument",
			"search takes the query text as its argument",
			"Run: cra search \"how does login work\"",
		), globals.JSON)
	}
	query := strings.Join(fs.Args(), " ")

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load configuration", err.Error(),
			"Run 'cra init' or fix the config file", err,
		), globals.JSON)
	}

	logger := newLogger(*debug)
	engine := buildEngine(cfg, logger, globals)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results := engine.Search(ctx, query, *limit)

	if globals.JSON {
		_ = output.JSON(results)
		return
	}

	if len(results) == 0 {
		ui.Warning("No matching code found. Has the repository been ingested?")
		return
	}

	for i, r := range results {
		if i > 0 {
			fmt.Println()
		}
		ui.Header(fmt.Sprintf("%s (line %d)", r.Filename, r.Line))
		fmt.Println(r.Code)
	}
}

// buildEngine wires the retrieval engine from config. Shared by search and
// ask; exits on configuration errors.
func buildEngine(cfg *Config, logger *slog.Logger, globals GlobalFlags) *search.Engine {
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

	client, err := index.NewClient(index.Config{
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

	return search.NewEngine(client, embedder, nil, logger)
}

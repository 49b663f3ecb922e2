// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/cra/internal/errors"
	"github.com/kraklabs/cra/internal/ui"
	"github.com/kraklabs/cra/pkg/index"
)

// runReset executes the 'reset' CLI command, deleting the vector
// collection entirely. The next ingest recreates it from scratch.
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cra reset [options]

Deletes the vector collection, removing all indexed chunks.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete all indexed chunks in the collection.\n")
		os.Exit(1)
	}

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load configuration", err.Error(),
			"Run 'cra init' or fix the config file", err,
		), globals.JSON)
	}

	logger := newLogger(false)
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := client.Count(ctx)
	if err != nil {
		if index.IsNotFound(err) {
			errors.FatalError(errors.NewNotFoundError(
				"Collection does not exist",
				fmt.Sprintf("no collection %q on %s", cfg.Collection, cfg.QdrantURL),
				"Nothing to reset. Run 'cra ingest <repository>' to create it.",
			), globals.JSON)
		}
		errors.FatalError(errors.NewIndexError(
			"Cannot inspect the collection", err.Error(),
			"Check that the index service is running and reachable", err,
		), globals.JSON)
	}

	fmt.Printf("Resetting collection %q on %s (%d indexed chunks)...\n", cfg.Collection, cfg.QdrantURL, count)

	if err := client.Drop(ctx); err != nil {
		errors.FatalError(errors.NewIndexError(
			"Cannot delete the collection", err.Error(),
			"Check that the index service is running and reachable", err,
		), globals.JSON)
	}

	ui.Success("Reset complete. All indexed chunks have been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  cra ingest <repository>    Reindex a repository")
}

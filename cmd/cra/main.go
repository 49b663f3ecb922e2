// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the CRA CLI for ingesting source repositories
// into a vector index and asking questions about them.
//
// Usage:
//
//	cra init                       Create .cra/config.yaml configuration
//	cra ingest <repo>              Ingest a repository (local path or git URL)
//	cra search <query> [--json]    Retrieve matching code chunks
//	cra ask <question>             Ask a question about the indexed code
//	cra reset --yes                Delete the vector collection (destructive!)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kraklabs/cra/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags holds options shared by every command.
type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	Quiet      bool
	NoColor    bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .cra/config.yaml (default: ./.cra/config.yaml)")
		jsonOut     = flag.Bool("json", false, "Machine-readable JSON output")
		quiet       = flag.Bool("quiet", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)
	flag.BoolVar(quiet, "q", false, "Suppress progress output (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CRA - Code Repository Assistant

CRA ingests a source repository into a vector index and answers
questions about the code using retrieval-augmented generation.
Point it at a local checkout or a remote git URL, then ask away.

Usage:
  cra <command> [options]

Commands:
  init      Create .cra/config.yaml configuration
  ingest    Ingest a repository into the vector index
  search    Retrieve code chunks matching a query
  ask       Ask a question about the indexed repository
  reset     Delete the vector collection (destructive!)

Global Options:
  --config    Path to .cra/config.yaml
  --json      Machine-readable JSON output
  --quiet     Suppress progress output
  --no-color  Disable colored output
  --version   Show version and exit

Examples:
  cra init                                Create configuration interactively
  cra ingest .                            Ingest the current directory
  cra ingest https://github.com/user/repo Ingest a remote repository
  cra search "jwt validation"             Find matching code chunks
  cra ask "how does login work?"          Get a grounded answer with sources
  cra reset --yes                         Wipe the index

Getting Started:
  1. Start Qdrant:             docker run -p 6333:6333 qdrant/qdrant
  2. Export your key:          export OPENAI_API_KEY=sk-...
  3. Ingest a repository:      cra ingest .
  4. Ask a question:           cra ask "what does this project do?"

Environment Variables:
  CRA_OPENAI_API_KEY  API key for embeddings and completions (preferred)
  OPENAI_API_KEY      Fallback API key

For detailed command help: cra <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cra version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		ConfigPath: *configPath,
		JSON:       *jsonOut,
		Quiet:      *quiet || *jsonOut,
		NoColor:    *noColor,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "ingest":
		runIngest(cmdArgs, globals)
	case "search":
		runSearch(cmdArgs, globals)
	case "ask":
		runAsk(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// runInit executes the 'init' CLI command, creating a .cra/config.yaml
// configuration file in the current directory.
//
// Flags:
//   - --force: Overwrite existing configuration
//   - -y: Non-interactive mode, use all defaults
//   - --qdrant-url: Qdrant base URL
//   - --collection: Collection name for chunk records
//   - --embedding-model: Embedding model name
//
// Examples:
//
//	cra init                Interactive setup
//	cra init -y             Use all defaults
//	cra init --qdrant-url http://qdrant.internal:6333
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	nonInteractive := fs.Bool("y", false, "Non-interactive mode (use defaults)")
	qdrantURL := fs.String("qdrant-url", "", "Qdrant base URL")
	collection := fs.String("collection", "", "Collection name for chunk records")
	embeddingModel := fs.String("embedding-model", "", "Embedding model name")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cra init [options]

Creates .cra/config.yaml configuration file.

The OpenAI API key is read from CRA_OPENAI_API_KEY or OPENAI_API_KEY at
runtime and is not written to the file.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := DefaultConfig()
	if *qdrantURL != "" {
		cfg.QdrantURL = *qdrantURL
	}
	if *collection != "" {
		cfg.Collection = *collection
	}
	if *embeddingModel != "" {
		cfg.EmbeddingModel = *embeddingModel
	}

	if !*nonInteractive {
		runInteractiveConfig(bufio.NewReader(os.Stdin), cfg)
	}

	if err := os.MkdirAll(ConfigDir(cwd), 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .cra directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Export your API key:       export OPENAI_API_KEY=sk-...")
	fmt.Println("  2. Ingest a repository:       cra ingest <path-or-url>")
	fmt.Println("  3. Ask a question:            cra ask \"what does this project do?\"")
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("CRA Project Configuration")
	fmt.Println("=========================")
	fmt.Println()

	cfg.QdrantURL = prompt(reader, "Qdrant URL", cfg.QdrantURL)
	cfg.Collection = prompt(reader, "Collection name", cfg.Collection)

	fmt.Println()
	cfg.EmbeddingModel = prompt(reader, "Embedding model", cfg.EmbeddingModel)
	dimStr := prompt(reader, "Embedding dimension", strconv.Itoa(cfg.EmbeddingDimension))
	if dim, err := strconv.Atoi(dimStr); err == nil && dim > 0 {
		cfg.EmbeddingDimension = dim
	}
	fmt.Println()
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue when the user just presses Enter.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .cra/ to the project's .gitignore if one exists and
// the entry is not already present. Failures are silently ignored.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: path built from the working directory
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".cra/" || line == ".cra" || line == "/.cra/" || line == "/.cra" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: path built from the working directory
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# CRA configuration\n.cra/\n")
	fmt.Println("Added .cra/ to .gitignore")
}

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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cra/internal/errors"
	"github.com/kraklabs/cra/internal/output"
	"github.com/kraklabs/cra/internal/ui"
	"github.com/kraklabs/cra/pkg/answer"
)

// runAsk executes the 'ask' CLI command: retrieve context for the question,
// send one completion request, and print the answer with its sources.
func runAsk(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	model := fs.String("model", "", "Completion model (default: config value or "+answer.DefaultChatModel+")")
	debug := fs.Bool("debug", false, "Enable debug logging")
	timeout := fs.Duration("timeout", 2*time.Minute, "Completion deadline")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cra ask <question> [options]

Asks a question about the indexed repository. The answer is grounded in
retrieved code chunks and cites the files it draws from. When nothing
relevant is indexed, the model says so instead of guessing.

Options:
%s`, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing question argument",
			"ask takes the question text as its argument",
			"Run: cra ask \"how does login work?\"",
		), globals.JSON)
	}
	question := strings.Join(fs.Args(), " ")

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load configuration", err.Error(),
			"Run 'cra init' or fix the config file", err,
		), globals.JSON)
	}

	chatModel := cfg.ChatModel
	if *model != "" {
		chatModel = *model
	}

	// The key is checked before any retrieval work happens.
	chat, err := answer.NewOpenAIChat(answer.ChatOptions{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   chatModel,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger := newLogger(*debug)
	engine := buildEngine(cfg, logger, globals)
	composer := answer.NewComposer(engine, chat, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := composer.Ask(ctx, question)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(resp)
		return
	}

	fmt.Println(resp.Answer)

	if len(resp.Context) > 0 {
		fmt.Println()
		ui.Header("Sources")
		for _, r := range resp.Context {
			fmt.Printf("  %s (line %d)\n", r.Filename, r.Line)
		}
	}
}

// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package answer composes grounded answers from retrieved code context.
//
// The composer sits at the end of the query path: it asks the retrieval
// engine for context, formats the retrieved chunks into labeled fenced
// blocks, and sends a single-turn completion request instructing the model
// to answer from that context and cite filenames. When retrieval finds
// nothing, the model is told so explicitly instead of being handed an empty
// string, so it does not guess from silence.
package answer

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/kraklabs/cra/pkg/search"
)

// ContextResults is the number of chunks requested from the retrieval
// engine to build the model's context.
const ContextResults = 10

// EmptyContextPlaceholder replaces the context block when retrieval returns
// nothing.
const EmptyContextPlaceholder = "No relevant code found in the indexed repository."

const systemPrompt = `You are a code assistant answering questions about an indexed source repository.

Answer primarily from the code context provided in the user message. If the answer is not in the context, say so explicitly instead of speculating. Always cite the filename (and line where useful) when referencing code.`

// Retriever is the slice of the search engine the composer depends on.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) []search.Result
}

// Response pairs the model's answer with the exact retrieval results used
// to build its context, so callers can render sources without re-querying.
type Response struct {
	Answer  string          `json:"answer"`
	Context []search.Result `json:"context"`
}

// Composer turns a question into a grounded answer.
type Composer struct {
	retriever Retriever
	chat      ChatClient
	logger    *slog.Logger
}

// NewComposer wires a Composer.
func NewComposer(retriever Retriever, chat ChatClient, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		retriever: retriever,
		chat:      chat,
		logger:    logger,
	}
}

// Ask retrieves context for the question, sends one completion request, and
// returns the answer with its supporting results. An empty index is not an
// error: the model answers from the placeholder context and Context is
// empty.
func (c *Composer) Ask(ctx context.Context, question string) (*Response, error) {
	results := c.retriever.Search(ctx, question, ContextResults)

	contextBlock := formatContext(results)
	userPrompt := fmt.Sprintf("Code context:\n\n%s\n\nQuestion: %s", contextBlock, question)

	c.logger.Debug("answer.ask",
		"question_len", len(question),
		"context_chunks", len(results),
	)

	text, err := c.chat.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []search.Result{}
	}
	return &Response{Answer: text, Context: results}, nil
}

// formatContext renders each result as a fenced block labeled with its
// filename and starting line, blank-line separated.
func formatContext(results []search.Result) string {
	if len(results) == 0 {
		return EmptyContextPlaceholder
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s (line %d):\n```\n%s\n```", r.Filename, r.Line, r.Code)
	}
	return b.String()
}

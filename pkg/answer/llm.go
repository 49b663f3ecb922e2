// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package answer

import (
	"context"
	stderrors "errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kraklabs/cra/internal/errors"
)

// DefaultChatModel is the completion model used when none is configured.
const DefaultChatModel = openai.GPT4oMini

// DefaultTemperature favors deterministic, grounded answers over creative
// variation.
const DefaultTemperature = 0.1

// ChatClient issues a single-turn completion request. The composer depends
// on this interface so tests can substitute a canned model.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatOptions configures an OpenAIChat client.
type ChatOptions struct {
	// APIKey authenticates against the completion endpoint. Required.
	APIKey string

	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	// Empty selects the provider default.
	BaseURL string

	// Model selects the completion model. Empty selects DefaultChatModel.
	Model string

	// Temperature controls sampling. Zero selects DefaultTemperature.
	Temperature float32
}

// OpenAIChat is the production ChatClient, backed by the OpenAI
// chat-completions API.
type OpenAIChat struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIChat builds a completion client. A missing API key fails here,
// before any retrieval or network work happens.
func NewOpenAIChat(opts ChatOptions) (*OpenAIChat, error) {
	if opts.APIKey == "" {
		return nil, errors.NewConfigError(
			"OpenAI API key is not configured",
			"Neither the config file nor the environment provides an API key",
			"Set OPENAI_API_KEY or add openai_api_key to .cra/config.yaml",
			nil,
		)
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultChatModel
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	return &OpenAIChat{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}, nil
}

// Complete sends one system/user message pair and returns the model's text.
// No conversation history is kept; every question stands alone.
func (c *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", upstreamChatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewUpstreamError(
			"Completion request failed",
			"provider returned no choices",
			"Retry the request",
			nil,
		)
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamChatError maps a provider error into the CLI error taxonomy,
// passing the provider's own message through where available. Completion
// errors are never retried here; the caller decides.
func upstreamChatError(err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return errors.NewUpstreamError(
			"Completion request failed",
			fmt.Sprintf("provider returned HTTP %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
			"Check your API key and rate limits, then retry",
			err,
		)
	}
	return errors.NewUpstreamError(
		"Completion request failed",
		err.Error(),
		"Check your network connection and the provider endpoint",
		err,
	)
}

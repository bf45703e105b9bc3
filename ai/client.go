// Package ai provides the language-model client used for PR analysis.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const (
	defaultMaxTokens   = 2048
	defaultTemperature = 0.2
)

// ErrEmptyResponse indicates the model returned no text content.
var ErrEmptyResponse = errors.New("empty response from model")

// Options tunes a single analysis call. Zero values use defaults biased
// toward deterministic, schema-conformant output.
type Options struct {
	MaxTokens   int64
	Temperature float64
}

// Client calls the Anthropic Messages API. The underlying SDK client is
// constructed lazily on first use and reused for the lifetime of the process;
// it is safe for concurrent use after construction.
type Client struct {
	apiKey string
	model  string
	logger *slog.Logger

	initOnce sync.Once
	client   *anthropic.Client
	initErr  error
}

// NewClient creates a Client bound to an API key and model. The key is not
// validated until the first call.
func NewClient(apiKey, model string, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{apiKey: apiKey, model: model, logger: logger}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) sdk() (*anthropic.Client, error) {
	c.initOnce.Do(func() {
		if c.apiKey == "" {
			c.initErr = errors.New("ANTHROPIC_API_KEY is not set")
			return
		}
		c.client = anthropic.NewClient(option.WithAPIKey(c.apiKey))
	})
	return c.client, c.initErr
}

// Analyze sends one synchronous system+user prompt pair to the model and
// returns the raw response text. No streaming, no multi-turn.
func (c *Client) Analyze(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	client, err := c.sdk()
	if err != nil {
		return "", err
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	c.logger.Info("calling model", "model", c.model, "max_tokens", maxTokens)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(c.model)),
		MaxTokens:   anthropic.F(maxTokens),
		Temperature: anthropic.F(temperature),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(systemPrompt),
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("model API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == anthropic.ContentBlockTypeText && block.Text != "" {
			c.logger.Info("model responded",
				"chars", len(block.Text),
				"input_tokens", message.Usage.InputTokens,
				"output_tokens", message.Usage.OutputTokens,
			)
			return block.Text, nil
		}
	}

	return "", ErrEmptyResponse
}

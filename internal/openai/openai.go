package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lehigh-university-libraries/lectern/internal/providers"
)

// OpenAI is a provider for OpenAI-compatible chat completion APIs
type OpenAI struct {
	client openai.Client
}

// New returns a new OpenAI provider. baseURL may be empty for the public API.
// SDK retries are disabled; the caller owns the retry policy.
func New(apiKey, baseURL string, httpClient *http.Client) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{client: openai.NewClient(opts...)}, nil
}

// Generate sends the prompt as a single user message
func (o *OpenAI) Generate(ctx context.Context, config providers.Config) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(config.Prompt),
		},
		Temperature: openai.Float(config.Temperature),
	}
	if config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(config.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// Probe lists models to confirm the key and endpoint work
func (o *OpenAI) Probe(ctx context.Context) error {
	if _, err := o.client.Models.List(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &providers.StatusError{Provider: "openai", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
	}
	return fmt.Errorf("failed to call OpenAI: %w", err)
}

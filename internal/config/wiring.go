package config

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/gemini"
	"github.com/lehigh-university-libraries/lectern/internal/images"
	"github.com/lehigh-university-libraries/lectern/internal/ollama"
	"github.com/lehigh-university-libraries/lectern/internal/openai"
	"github.com/lehigh-university-libraries/lectern/internal/pacing"
	"github.com/lehigh-university-libraries/lectern/internal/pipeline"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/providers"
)

// ModelName returns the configured model or the provider's default.
func (c AIConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o"
	case "gemini":
		return "gemini-1.5-flash"
	default:
		return ai.DefaultConfig().Model
	}
}

// NewProvider builds the configured language model backend.
func (c AIConfig) NewProvider() (providers.Provider, error) {
	switch c.Provider {
	case "ollama":
		return ollama.New(c.BaseURL, &http.Client{}), nil
	case "openai":
		return openai.New(c.key("OPENAI_API_KEY"), c.BaseURL, &http.Client{})
	case "gemini":
		return gemini.New(c.key("GEMINI_API_KEY"))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", c.Provider)
	}
}

func (c AIConfig) key(env string) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(env)
}

// ClientConfig converts the settings for ai.NewClient.
func (c AIConfig) ClientConfig() ai.Config {
	return ai.Config{
		Model:         c.ModelName(),
		ContextWindow: c.ContextWindow,
		Retry: ai.RetryPolicy{
			Attempts:           c.Retry.Attempts,
			TimeoutStep:        c.Retry.TimeoutStep,
			TimeoutBackoffStep: c.Retry.TimeoutBackoffStep,
			StatusRetryDelay:   c.Retry.StatusDelay,
		},
		ProbeTimeout:      c.ProbeTimeout,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}

// NewClient builds the provider and wraps it in a retrying ai.Client.
func (c AIConfig) NewClient(ctx context.Context, obs progress.Observer, opts ...ai.Option) (*ai.Client, error) {
	provider, err := c.NewProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", c.Provider, err)
	}
	opts = append([]ai.Option{ai.WithObserver(obs)}, opts...)
	return ai.NewClient(ctx, provider, c.ClientConfig(), opts...), nil
}

// NewPipeline builds an ingestion pipeline honoring the extraction and
// summary settings.
func (c *Config) NewPipeline(caller ai.Caller, obs progress.Observer) *pipeline.Pipeline {
	p := pipeline.New(caller, obs)
	p.MinTextLength = c.Extraction.MinTextLength
	p.Extractor.MaxPDFPages = c.Extraction.MaxPDFPages
	p.Extractor.MaxEPUBItems = c.Extraction.MaxEPUBItems
	p.Synthesizer.Pacer = pacing.Fixed{Delay: c.Summaries.Delay}
	return p
}

// NewFetcher builds the image service client.
func (c ImagesConfig) NewFetcher() *images.Fetcher {
	f := images.NewFetcher()
	f.HTTPClient = &http.Client{Timeout: c.RequestTimeout}
	f.Endpoint = c.Endpoint
	f.Attempts = c.Attempts
	f.BackoffStep = c.BackoffStep
	return f
}

// NewGenerator builds an illustration generator using caller for cover
// prompts.
func (c ImagesConfig) NewGenerator(caller ai.Caller, obs progress.Observer) *images.Generator {
	g := images.NewGenerator(caller, c.NewFetcher())
	g.Observer = progress.OrNop(obs)
	g.Pacer = pacing.Fixed{Delay: c.ChapterDelay}
	g.CoverTarget = images.Size{Width: c.CoverWidth, Height: c.CoverHeight}
	g.ChapterTarget = images.Size{Width: c.ChapterWidth, Height: c.ChapterHeight}
	g.MaxChapters = c.MaxChapters
	return g
}

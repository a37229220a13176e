// Package ai wraps a language-model provider with the retry, timeout and
// availability behaviour the ingestion pipeline relies on.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/lehigh-university-libraries/lectern/internal/pacing"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/providers"
)

// Options tune a single completion request.
type Options struct {
	MaxTokens     int
	Temperature   float64
	ContextWindow int
}

// DefaultOptions returns the options used when a caller has no preference.
func DefaultOptions() Options {
	return Options{MaxTokens: 1000, Temperature: 0.7, ContextWindow: 2048}
}

// Caller sends a prompt to a language model and returns its raw text.
type Caller interface {
	Call(ctx context.Context, prompt string, opts Options) (string, error)
}

// UnavailableError is returned once every attempt of a call has failed.
type UnavailableError struct {
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("language model unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Config configures a Client.
type Config struct {
	Model             string
	ContextWindow     int
	Retry             RetryPolicy
	ProbeTimeout      time.Duration
	RequestsPerMinute int
}

// DefaultConfig mirrors the defaults of a local Ollama deployment.
func DefaultConfig() Config {
	return Config{
		Model:         "qwen2.5:3b",
		ContextWindow: 2048,
		Retry:         DefaultRetryPolicy(),
		ProbeTimeout:  10 * time.Second,
	}
}

// Client calls a provider under a RetryPolicy.
type Client struct {
	provider  providers.Provider
	cfg       Config
	limiter   pacing.Pacer
	observer  progress.Observer
	available bool
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver routes probe and retry notices to o.
func WithObserver(o progress.Observer) Option {
	return func(c *Client) {
		c.observer = progress.OrNop(o)
	}
}

// WithoutProbe skips the availability probe at construction.
func WithoutProbe() Option {
	return func(c *Client) {
		c.available = true
		c.cfg.ProbeTimeout = -1
	}
}

// NewClient builds a Client and, when the provider supports it, checks that
// the backing service answers. An unreachable service is reported, not fatal.
func NewClient(ctx context.Context, provider providers.Provider, cfg Config, opts ...Option) *Client {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultConfig().ContextWindow
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultConfig().ProbeTimeout
	}

	c := &Client{
		provider: provider,
		cfg:      cfg,
		limiter:  pacing.PerMinute(cfg.RequestsPerMinute),
		observer: progress.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.ProbeTimeout > 0 {
		if err := c.Probe(ctx); err != nil {
			slog.Warn("Language model service not reachable", "model", cfg.Model, "error", err)
			c.observer.OnStage(progress.StageProbe, fmt.Sprintf("language model unreachable: %v", err))
		} else {
			c.observer.OnStage(progress.StageProbe, "language model reachable")
		}
	}

	return c
}

// Probe checks the provider's service. Providers without a probe are assumed up.
func (c *Client) Probe(ctx context.Context) error {
	prober, ok := c.provider.(providers.Prober)
	if !ok {
		c.available = true
		return nil
	}

	timeout := c.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := prober.Probe(probeCtx)
	c.available = err == nil
	return err
}

// Available reports the outcome of the last probe.
func (c *Client) Available() bool {
	return c.available
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Call sends prompt to the provider, retrying per the client's policy.
// The returned text is exactly what the model produced.
func (c *Client) Call(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = c.cfg.ContextWindow
	}

	policy := c.cfg.Retry
	var (
		attempt     int
		lastErr     error
		lastTimeout bool
		text        string
	)

	err := retry.Do(
		func() error {
			attempt++
			if err := c.limiter.Wait(ctx); err != nil {
				lastErr = err
				return retry.Unrecoverable(err)
			}

			attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout(attempt))
			defer cancel()

			out, err := c.provider.Generate(attemptCtx, providers.Config{
				Model:         c.cfg.Model,
				Prompt:        prompt,
				Temperature:   opts.Temperature,
				MaxTokens:     opts.MaxTokens,
				ContextWindow: opts.ContextWindow,
			})
			if err == nil {
				text = out
				return nil
			}

			lastErr = err
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				return retry.Unrecoverable(ctx.Err())
			}
			lastTimeout = isTimeout(err) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(policy.Attempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return policy.Backoff(attempt, lastTimeout)
		}),
		retry.OnRetry(func(_ uint, err error) {
			slog.Warn("Language model call failed", "attempt", attempt, "timeout", lastTimeout, "error", err)
			// retry-go also calls OnRetry after the final attempt
			if attempt < policy.Attempts {
				c.observer.OnStage(progress.StageAIRetry, fmt.Sprintf("attempt %d failed: %v", attempt, err))
			}
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
		}
		return "", &UnavailableError{Attempts: attempt, Err: lastErr}
	}

	return text, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

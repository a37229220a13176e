package providers

import (
	"context"
	"fmt"
)

// Config represents a single completion request to an LLM provider
type Config struct {
	Model         string
	Prompt        string
	Temperature   float64
	MaxTokens     int
	ContextWindow int
}

// Provider defines the interface for an LLM provider
type Provider interface {
	Generate(ctx context.Context, config Config) (string, error)
}

// Prober is implemented by providers that can check whether their
// service is reachable before the first real request.
type Prober interface {
	Probe(ctx context.Context) error
}

// StatusError reports a non-success HTTP status from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d - %s", e.Provider, e.StatusCode, e.Body)
}

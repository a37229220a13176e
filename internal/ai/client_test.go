package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/providers"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    []time.Time
	configs  []providers.Config
	respond  func(ctx context.Context, call int) (string, error)
	probeErr error
}

func (f *fakeProvider) Generate(ctx context.Context, config providers.Config) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.configs = append(f.configs, config)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(ctx, n)
}

type probingProvider struct {
	fakeProvider
}

func (p *probingProvider) Probe(ctx context.Context) error {
	return p.probeErr
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:           3,
		TimeoutStep:        20 * time.Millisecond,
		TimeoutBackoffStep: 30 * time.Millisecond,
		StatusRetryDelay:   time.Millisecond,
	}
}

func TestRetryPolicyDefaults(t *testing.T) {
	p := DefaultRetryPolicy()

	wantTimeouts := []time.Duration{60 * time.Second, 120 * time.Second, 180 * time.Second}
	for i, want := range wantTimeouts {
		if got := p.AttemptTimeout(i + 1); got != want {
			t.Errorf("Expected attempt %d timeout %s, got %s", i+1, want, got)
		}
	}

	tests := []struct {
		name     string
		attempt  int
		timedOut bool
		expected time.Duration
	}{
		{name: "timeout after first attempt", attempt: 1, timedOut: true, expected: 5 * time.Second},
		{name: "timeout after second attempt", attempt: 2, timedOut: true, expected: 10 * time.Second},
		{name: "no wait after last timeout", attempt: 3, timedOut: true, expected: 0},
		{name: "status failure", attempt: 1, expected: 3 * time.Second},
		{name: "status failure second attempt", attempt: 2, expected: 3 * time.Second},
		{name: "no wait after last failure", attempt: 3, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Backoff(tt.attempt, tt.timedOut); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCallPassesOptions(t *testing.T) {
	fp := &fakeProvider{respond: func(context.Context, int) (string, error) { return "ok", nil }}
	c := NewClient(context.Background(), fp, Config{Model: "m", Retry: fastPolicy()}, WithoutProbe())

	text, err := c.Call(context.Background(), "prompt", Options{MaxTokens: 500, Temperature: 0.2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "ok" {
		t.Errorf("Expected ok, got %s", text)
	}

	got := fp.configs[0]
	if got.Model != "m" || got.Prompt != "prompt" || got.MaxTokens != 500 || got.Temperature != 0.2 {
		t.Errorf("Unexpected request: %+v", got)
	}
	if got.ContextWindow != 2048 {
		t.Errorf("Expected default context window 2048, got %d", got.ContextWindow)
	}
}

func TestCallRetriesAfterStatusFailure(t *testing.T) {
	fp := &fakeProvider{respond: func(_ context.Context, call int) (string, error) {
		if call < 3 {
			return "", &providers.StatusError{Provider: "fake", StatusCode: 500}
		}
		return "third time", nil
	}}
	rec := &progress.Recorder{}
	c := NewClient(context.Background(), fp, Config{Model: "m", Retry: fastPolicy()}, WithoutProbe(), WithObserver(rec))

	text, err := c.Call(context.Background(), "p", DefaultOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "third time" {
		t.Errorf("Expected third time, got %s", text)
	}
	if len(fp.calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", len(fp.calls))
	}

	retries := 0
	for _, s := range rec.Stages {
		if s == progress.StageAIRetry {
			retries++
		}
	}
	if retries != 2 {
		t.Errorf("Expected 2 retry notices, got %d", retries)
	}
}

func TestCallExhaustedPublishesRetriesOnly(t *testing.T) {
	fp := &fakeProvider{respond: func(context.Context, int) (string, error) {
		return "", &providers.StatusError{Provider: "fake", StatusCode: 503}
	}}
	rec := &progress.Recorder{}
	c := NewClient(context.Background(), fp, Config{Model: "m", Retry: fastPolicy()}, WithoutProbe(), WithObserver(rec))

	if _, err := c.Call(context.Background(), "p", DefaultOptions()); err == nil {
		t.Fatal("Expected an error")
	}
	if len(fp.calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", len(fp.calls))
	}

	var details []string
	for i, s := range rec.Stages {
		if s == progress.StageAIRetry {
			details = append(details, rec.Details[i])
		}
	}
	if len(details) != 2 {
		t.Fatalf("Expected 2 retry notices for 3 attempts, got %d: %v", len(details), details)
	}
	for _, d := range details {
		if strings.HasPrefix(d, "attempt 3") {
			t.Errorf("Expected no notice after the last attempt, got %q", d)
		}
	}
}

func TestCallTimeoutsExhaustAttempts(t *testing.T) {
	var deadlines []time.Duration
	var mu sync.Mutex
	fp := &fakeProvider{respond: func(ctx context.Context, _ int) (string, error) {
		if d, ok := ctx.Deadline(); ok {
			mu.Lock()
			deadlines = append(deadlines, time.Until(d))
			mu.Unlock()
		}
		<-ctx.Done()
		return "", ctx.Err()
	}}
	policy := fastPolicy()
	c := NewClient(context.Background(), fp, Config{Model: "m", Retry: policy}, WithoutProbe())

	_, err := c.Call(context.Background(), "p", DefaultOptions())

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected UnavailableError, got %v", err)
	}
	if unavailable.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", unavailable.Attempts)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected wrapped deadline error, got %v", err)
	}

	if len(deadlines) != 3 {
		t.Fatalf("Expected 3 deadlines, got %d", len(deadlines))
	}
	for i := 1; i < len(deadlines); i++ {
		if deadlines[i] <= deadlines[i-1] {
			t.Errorf("Expected attempt %d budget to exceed attempt %d: %s vs %s", i+1, i, deadlines[i], deadlines[i-1])
		}
	}

	// attempt 1 budget + 1*backoff before attempt 2, attempt 2 budget + 2*backoff before attempt 3
	gap1 := fp.calls[1].Sub(fp.calls[0])
	gap2 := fp.calls[2].Sub(fp.calls[1])
	if gap1 < policy.AttemptTimeout(1)+policy.TimeoutBackoffStep {
		t.Errorf("Expected first gap >= %s, got %s", policy.AttemptTimeout(1)+policy.TimeoutBackoffStep, gap1)
	}
	if gap2 < policy.AttemptTimeout(2)+2*policy.TimeoutBackoffStep {
		t.Errorf("Expected second gap >= %s, got %s", policy.AttemptTimeout(2)+2*policy.TimeoutBackoffStep, gap2)
	}
}

func TestCallParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fp := &fakeProvider{respond: func(context.Context, int) (string, error) {
		cancel()
		return "", errors.New("connection reset")
	}}
	c := NewClient(context.Background(), fp, Config{Model: "m", Retry: fastPolicy()}, WithoutProbe())

	_, err := c.Call(ctx, "p", DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(fp.calls) != 1 {
		t.Errorf("Expected a single call, got %d", len(fp.calls))
	}
}

func TestNewClientProbe(t *testing.T) {
	tests := []struct {
		name      string
		probeErr  error
		available bool
	}{
		{name: "reachable", available: true},
		{name: "unreachable is not fatal", probeErr: errors.New("connection refused"), available: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := &probingProvider{fakeProvider{
				probeErr: tt.probeErr,
				respond:  func(context.Context, int) (string, error) { return "still works", nil },
			}}
			rec := &progress.Recorder{}
			c := NewClient(context.Background(), pp, Config{Model: "m", Retry: fastPolicy()}, WithObserver(rec))

			if c.Available() != tt.available {
				t.Errorf("Expected available=%v, got %v", tt.available, c.Available())
			}
			if len(rec.Stages) != 1 || rec.Stages[0] != progress.StageProbe {
				t.Errorf("Expected a single probe notice, got %v", rec.Stages)
			}

			text, err := c.Call(context.Background(), "p", DefaultOptions())
			if err != nil || text != "still works" {
				t.Errorf("Expected calls to proceed after probe, got %q, %v", text, err)
			}
		})
	}
}

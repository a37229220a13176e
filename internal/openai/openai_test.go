package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/lectern/internal/providers"
)

func TestNewRequiresKey(t *testing.T) {
	if _, err := New("", "", nil); err == nil {
		t.Errorf("Expected error for missing API key")
	}
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got %s", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"[\"One\"]"}}]}`))
	}))
	defer server.Close()

	o, err := New("test-key", server.URL+"/", server.Client())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text, err := o.Generate(context.Background(), providers.Config{
		Model:       "gpt-4o-mini",
		Prompt:      "list chapters",
		Temperature: 0.2,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != `["One"]` {
		t.Errorf("Expected [\"One\"], got %s", text)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %v", body["model"])
	}
	if body["max_tokens"] != float64(500) {
		t.Errorf("Expected max_tokens 500, got %v", body["max_tokens"])
	}
}

func TestGenerateStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	o, err := New("test-key", server.URL+"/", server.Client())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = o.Generate(context.Background(), providers.Config{Model: "gpt-4o-mini", Prompt: "x"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", statusErr.StatusCode)
	}
}

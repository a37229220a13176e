package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/lectern/internal/ollama"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"LECTERN_AI_PROVIDER", "LECTERN_AI_MODEL", "LECTERN_AI_BASE_URL",
		"CATALOGING_PROVIDER", "OLLAMA_URL", "OLLAMA_HOST", "OLLAMA_MODEL"} {
		t.Setenv(name, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.AI.Provider != "ollama" || cfg.AI.ModelName() != "qwen2.5:3b" {
		t.Errorf("Unexpected AI defaults %+v", cfg.AI)
	}
	if cfg.AI.Retry.Attempts != 3 || cfg.AI.Retry.TimeoutStep != 60*time.Second ||
		cfg.AI.Retry.TimeoutBackoffStep != 5*time.Second || cfg.AI.Retry.StatusDelay != 3*time.Second {
		t.Errorf("Unexpected retry defaults %+v", cfg.AI.Retry)
	}
	if cfg.Extraction.MaxPDFPages != 20 || cfg.Extraction.MaxEPUBItems != 5 || cfg.Extraction.MinTextLength != 100 {
		t.Errorf("Unexpected extraction defaults %+v", cfg.Extraction)
	}
	if cfg.Summaries.Delay != 800*time.Millisecond {
		t.Errorf("Expected 800ms, got %s", cfg.Summaries.Delay)
	}
	if !cfg.Images.Enabled || cfg.Images.CoverWidth != 800 || cfg.Images.CoverHeight != 1200 ||
		cfg.Images.ChapterWidth != 1024 || cfg.Images.MaxChapters != 20 || cfg.Images.ChapterDelay != time.Second {
		t.Errorf("Unexpected image defaults %+v", cfg.Images)
	}
	if cfg.Images.Attempts != 2 || cfg.Images.BackoffStep != 2*time.Second || cfg.Images.RequestTimeout != 30*time.Second {
		t.Errorf("Unexpected image retry defaults %+v", cfg.Images)
	}
	fetcher := cfg.Images.NewFetcher()
	if fetcher.Attempts != 2 || fetcher.BackoffStep != 2*time.Second || fetcher.HTTPClient.Timeout != 30*time.Second {
		t.Errorf("Unexpected fetcher %+v", fetcher)
	}
	if cfg.Output.Dir != "./library" {
		t.Errorf("Expected ./library, got %s", cfg.Output.Dir)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	file := filepath.Join(dir, "custom.yaml")
	yaml := "ai:\n  model: llama3.2\n  retry:\n    attempts: 5\nimages:\n  enabled: false\n  max_chapters: 4\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LECTERN_IMAGES_MAX_CHAPTERS", "7")
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.AI.Model != "llama3.2" || cfg.AI.Retry.Attempts != 5 {
		t.Errorf("Expected file values, got %+v", cfg.AI)
	}
	if cfg.Images.Enabled {
		t.Errorf("Expected images disabled by file")
	}
	if cfg.Images.MaxChapters != 7 {
		t.Errorf("Expected environment to win, got %d", cfg.Images.MaxChapters)
	}
	if cfg.AI.BaseURL != "http://gpu-box:11434" {
		t.Errorf("Expected OLLAMA_URL alias, got %s", cfg.AI.BaseURL)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	t.Setenv("LECTERN_AI_PROVIDER", "watson")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "unsupported provider") {
		t.Errorf("Expected unsupported provider error, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	p, err := AIConfig{Provider: "ollama"}.NewProvider()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := p.(*ollama.Ollama); !ok {
		t.Errorf("Expected an Ollama provider, got %T", p)
	}

	if _, err := (AIConfig{Provider: "openai"}).NewProvider(); err == nil {
		t.Errorf("Expected an error without an OpenAI key")
	}
	if _, err := (AIConfig{Provider: "gemini", APIKey: "k"}).NewProvider(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestModelName(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	tests := []struct {
		cfg      AIConfig
		expected string
	}{
		{AIConfig{Provider: "ollama"}, "qwen2.5:3b"},
		{AIConfig{Provider: "openai"}, "gpt-4o"},
		{AIConfig{Provider: "gemini"}, "gemini-1.5-flash"},
		{AIConfig{Provider: "openai", Model: "gpt-4o-mini"}, "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if result := tt.cfg.ModelName(); result != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, result)
		}
	}
}

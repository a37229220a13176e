// Package config loads lectern settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of recognized options.
type Config struct {
	AI         AIConfig         `mapstructure:"ai"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Summaries  SummariesConfig  `mapstructure:"summaries"`
	Images     ImagesConfig     `mapstructure:"images"`
	Output     OutputConfig     `mapstructure:"output"`
}

// AIConfig selects and tunes the language model backend.
type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	ContextWindow     int           `mapstructure:"context_window"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	Retry             RetryConfig   `mapstructure:"retry"`
}

// RetryConfig is the language model retry schedule.
type RetryConfig struct {
	Attempts           int           `mapstructure:"attempts"`
	TimeoutStep        time.Duration `mapstructure:"timeout_step"`
	TimeoutBackoffStep time.Duration `mapstructure:"timeout_backoff_step"`
	StatusDelay        time.Duration `mapstructure:"status_delay"`
}

type ExtractionConfig struct {
	MaxPDFPages   int `mapstructure:"max_pdf_pages"`
	MaxEPUBItems  int `mapstructure:"max_epub_items"`
	MinTextLength int `mapstructure:"min_text_length"`
}

type SummariesConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// ImagesConfig controls cover and chapter illustration generation.
type ImagesConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	CoverWidth     int           `mapstructure:"cover_width"`
	CoverHeight    int           `mapstructure:"cover_height"`
	ChapterWidth   int           `mapstructure:"chapter_width"`
	ChapterHeight  int           `mapstructure:"chapter_height"`
	MaxChapters    int           `mapstructure:"max_chapters"`
	Attempts       int           `mapstructure:"attempts"`
	BackoffStep    time.Duration `mapstructure:"backoff_step"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ChapterDelay   time.Duration `mapstructure:"chapter_delay"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

var defaults = map[string]any{
	"ai.provider":                   "ollama",
	"ai.model":                      "",
	"ai.base_url":                   "",
	"ai.api_key":                    "",
	"ai.context_window":             2048,
	"ai.requests_per_minute":        0,
	"ai.probe_timeout":              "10s",
	"ai.retry.attempts":             3,
	"ai.retry.timeout_step":         "60s",
	"ai.retry.timeout_backoff_step": "5s",
	"ai.retry.status_delay":         "3s",
	"extraction.max_pdf_pages":      20,
	"extraction.max_epub_items":     5,
	"extraction.min_text_length":    100,
	"summaries.delay":               "800ms",
	"images.enabled":                true,
	"images.endpoint":               "https://image.pollinations.ai/prompt",
	"images.cover_width":            800,
	"images.cover_height":           1200,
	"images.chapter_width":          1024,
	"images.chapter_height":         1024,
	"images.max_chapters":           20,
	"images.attempts":               2,
	"images.backoff_step":           "2s",
	"images.request_timeout":        "30s",
	"images.chapter_delay":          "1s",
	"output.dir":                    "./library",
}

// Legacy environment variables, checked after the LECTERN_ names.
var aliases = map[string][]string{
	"ai.provider": {"LECTERN_AI_PROVIDER", "CATALOGING_PROVIDER"},
	"ai.base_url": {"LECTERN_AI_BASE_URL", "OLLAMA_URL", "OLLAMA_HOST"},
	"ai.model":    {"LECTERN_AI_MODEL", "OLLAMA_MODEL"},
}

// Load reads configuration. cfgFile may be empty, in which case
// lectern.yaml is looked for in the working directory and $HOME/.lectern;
// a missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("lectern")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.lectern")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported provider: %s", c.AI.Provider)
	}
	if c.AI.Retry.Attempts < 1 {
		return fmt.Errorf("ai.retry.attempts must be at least 1, got %d", c.AI.Retry.Attempts)
	}
	if c.Images.CoverWidth <= 0 || c.Images.CoverHeight <= 0 || c.Images.ChapterWidth <= 0 || c.Images.ChapterHeight <= 0 {
		return fmt.Errorf("image sizes must be positive")
	}
	if c.Images.MaxChapters < 0 {
		return fmt.Errorf("images.max_chapters must not be negative, got %d", c.Images.MaxChapters)
	}
	return nil
}

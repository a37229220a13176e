package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/models"
)

type fakeCaller struct {
	respond func(prompt string, call int) (string, error)
	prompts []string
	opts    []ai.Options
}

func (f *fakeCaller) Call(_ context.Context, prompt string, opts ai.Options) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.respond(prompt, len(f.prompts))
}

func constant(response string, err error) *fakeCaller {
	return &fakeCaller{respond: func(string, int) (string, error) { return response, err }}
}

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return nil
}

func newTestSynthesizer(caller ai.Caller) (*Synthesizer, *countingPacer) {
	s := NewSynthesizer(caller)
	pacer := &countingPacer{}
	s.Pacer = pacer
	return s, pacer
}

func TestSynthesize(t *testing.T) {
	chapters := models.ChapterList{"Prologue", "Arrival"}
	defaults := DefaultMetadata(chapters)

	tests := []struct {
		name     string
		caller   *fakeCaller
		expected models.BookMetadata
	}{
		{
			name: "valid fenced response",
			caller: constant("```json\n{\"title\": \"Dune\", \"author\": \"Frank Herbert\", \"genre\": \"Science Fiction\","+
				" \"description\": \"Spice. Sand.\", \"language\": \"English\"}\n```", nil),
			expected: models.BookMetadata{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Description: "Spice. Sand.", Language: "English"},
		},
		{
			name:     "missing author is rejected wholesale",
			caller:   constant(`{"title": "Dune", "genre": "Science Fiction", "description": "Spice.", "language": "English"}`, nil),
			expected: defaults,
		},
		{
			name:     "non-string value is rejected",
			caller:   constant(`{"title": "Dune", "author": 42, "genre": "SF", "description": "Spice.", "language": "English"}`, nil),
			expected: defaults,
		},
		{
			name:     "no JSON at all",
			caller:   constant("I am unable to determine the metadata.", nil),
			expected: defaults,
		},
		{
			name:     "model unavailable",
			caller:   constant("", &ai.UnavailableError{Attempts: 3, Err: errors.New("timeout")}),
			expected: defaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSynthesizer(tt.caller)
			result := s.Synthesize(context.Background(), "Some book text", chapters)
			if result != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestSynthesizePrompt(t *testing.T) {
	caller := constant("{}", nil)
	s, _ := newTestSynthesizer(caller)

	chapters := models.ChapterList{"One", "Two", "Three", "Four", "Five", "Six"}
	s.Synthesize(context.Background(), strings.Repeat("b", 6000), chapters)

	prompt := caller.prompts[0]
	if !strings.Contains(prompt, "- Five") || strings.Contains(prompt, "- Six") {
		t.Errorf("Expected the first five chapters in the prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, strings.Repeat("b", 5001)) || !strings.Contains(prompt, strings.Repeat("b", 5000)) {
		t.Errorf("Expected exactly the first 5000 characters of text in the prompt")
	}
	if caller.opts[0].MaxTokens != 500 || caller.opts[0].Temperature != 0.3 {
		t.Errorf("Unexpected options: %+v", caller.opts[0])
	}

	caller = constant("{}", nil)
	s, _ = newTestSynthesizer(caller)
	s.Synthesize(context.Background(), "text", nil)
	if !strings.Contains(caller.prompts[0], "Opening chapters:\nNone") {
		t.Errorf("Expected None for an empty chapter list:\n%s", caller.prompts[0])
	}
}

func TestDefaultMetadata(t *testing.T) {
	if got := DefaultMetadata(nil).Title; got != "Unknown Title" {
		t.Errorf("Expected Unknown Title, got %s", got)
	}
	got := DefaultMetadata(models.ChapterList{"First"})
	expected := models.BookMetadata{
		Title:       "First",
		Author:      "Unknown Author",
		Genre:       "Fiction",
		Description: "No description available",
		Language:    "English",
	}
	if got != expected {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func paragraph(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = "rain"
	}
	return "The " + strings.Join(parts, " ") + "."
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "meta commentary line dropped",
			input:    "Sure, here is chapter context: The old house creaked as rain fell steadily through the broken shutters and cold wind howled.",
			expected: "",
		},
		{
			name:     "surrounding quotes trimmed",
			input:    "“The lantern guttered as Mara climbed the final stair of the tower.”",
			expected: "The lantern guttered as Mara climbed the final stair of the tower.",
		},
		{
			name:     "short and non-letter lines dropped",
			input:    "Too short.\n- A bullet point line that is long enough to count\nThe ship left harbour before the sun had fully risen.",
			expected: "The ship left harbour before the sun had fully risen.",
		},
		{
			name:     "lines joined with spaces",
			input:    "The ship left harbour before the sun had risen.\n\nBy noon the coast was a thin grey line behind them.",
			expected: "The ship left harbour before the sun had risen. By noon the coast was a thin grey line behind them.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := CleanSummary(tt.input); result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	good := paragraph(70)
	caller := &fakeCaller{respond: func(prompt string, call int) (string, error) {
		switch call {
		case 1:
			return good, nil
		case 2:
			return "Sure, here is chapter context: The old house creaked as rain fell steadily through the broken shutters and cold wind howled.", nil
		default:
			return "", errors.New("connection refused")
		}
	}}
	s, pacer := newTestSynthesizer(caller)

	chapters := models.ChapterList{"The Storm", "The House", "The End"}
	summaries := s.Summarize(context.Background(), "book text", chapters)

	if len(summaries) != 3 {
		t.Fatalf("Expected 3 summaries, got %d", len(summaries))
	}
	if summaries[1] != good {
		t.Errorf("Expected accepted summary, got %q", summaries[1])
	}
	if summaries[2] != "The events of the house unfolded with quiet inevitability." {
		t.Errorf("Expected low quality filler, got %q", summaries[2])
	}
	if summaries[3] != "And then, in the end, everything changed." {
		t.Errorf("Expected failure filler, got %q", summaries[3])
	}
	if pacer.waits != 2 {
		t.Errorf("Expected 2 pauses between 3 chapters, got %d", pacer.waits)
	}
	if caller.opts[0].MaxTokens != 400 || caller.opts[0].Temperature != 0.88 {
		t.Errorf("Unexpected options: %+v", caller.opts[0])
	}
	if !strings.Contains(caller.prompts[1], "The House") {
		t.Errorf("Expected chapter title in prompt")
	}
}

func TestSummarizeLimits(t *testing.T) {
	caller := constant(paragraph(80), nil)
	s, _ := newTestSynthesizer(caller)

	chapters := make(models.ChapterList, 40)
	for i := range chapters {
		chapters[i] = fmt.Sprintf("Part %d", i+1)
	}

	summaries := s.Summarize(context.Background(), strings.Repeat("c", 12000), chapters)
	if len(summaries) != MaxSummaries {
		t.Errorf("Expected %d summaries, got %d", MaxSummaries, len(summaries))
	}
	if _, ok := summaries[31]; ok {
		t.Errorf("Expected no summary for chapter 31")
	}
	if strings.Contains(caller.prompts[0], strings.Repeat("c", 10001)) {
		t.Errorf("Expected context limited to 10000 characters")
	}

	if got := s.Summarize(context.Background(), "text", nil); len(got) != 0 {
		t.Errorf("Expected no summaries for no chapters, got %d", len(got))
	}
}

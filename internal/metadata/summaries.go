package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/textutil"
)

// Lines mentioning any of these are the model talking about the task.
var metaMarkers = []string{"could you", "context", "summary", "here is", "chapter", "retell"}

// Summarize writes a paragraph for each of the first 30 chapters.
// Every chapter gets an entry; failures become filler sentences.
func (s *Synthesizer) Summarize(ctx context.Context, text string, chapters models.ChapterList) models.ChapterSummaries {
	summaries := make(models.ChapterSummaries)
	if len(chapters) == 0 {
		return summaries
	}

	obs := progress.OrNop(s.Observer)
	chapters = chapters[:min(len(chapters), MaxSummaries)]
	bookContext := textutil.FirstRunes(text, summaryTextLength)

	for i, title := range chapters {
		idx := i + 1
		if i > 0 && s.Pacer != nil {
			if err := s.Pacer.Wait(ctx); err != nil {
				slog.Debug("Summary pacing interrupted", "error", err)
			}
		}
		obs.OnStage(progress.StageSummaries, fmt.Sprintf("chapter %d/%d: %s", idx, len(chapters), textutil.FirstRunes(title, 65)))

		summaries[idx] = s.summarizeChapter(ctx, bookContext, title)
	}

	return summaries
}

func (s *Synthesizer) summarizeChapter(ctx context.Context, bookContext, title string) string {
	if s.AI == nil {
		return FailureFiller(title)
	}

	response, err := s.AI.Call(ctx, buildSummaryPrompt(bookContext, title), ai.Options{MaxTokens: 400, Temperature: 0.88})
	if err != nil {
		slog.Warn("Chapter summary failed", "chapter", title, "error", err)
		return FailureFiller(title)
	}

	cleaned := CleanSummary(response)
	if words := len(strings.Fields(cleaned)); words < MinSummaryWords {
		slog.Debug("Chapter summary too short, using filler", "chapter", title, "words", words)
		return LowQualityFiller(title)
	}
	return cleaned
}

// CleanSummary strips quotes and meta-commentary from a model response.
// Only lines longer than 30 characters that start with a letter survive.
func CleanSummary(response string) string {
	text := strings.Trim(strings.TrimSpace(response), "\"'„“”")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || hasMetaMarker(line) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		if textutil.Len(line) > 30 && unicode.IsLetter(first) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

func hasMetaMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range metaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// LowQualityFiller stands in for a summary the model wrote too thinly.
func LowQualityFiller(title string) string {
	return fmt.Sprintf("The events of %s unfolded with quiet inevitability.", strings.ToLower(title))
}

// FailureFiller stands in for a summary the model could not be asked for.
func FailureFiller(title string) string {
	return fmt.Sprintf("And then, in %s, everything changed.", strings.ToLower(title))
}

func buildSummaryPrompt(bookContext, title string) string {
	return `You are continuing a book in the author's own voice.

The book so far:
"""` + bookContext + `"""

Next section title: ` + title + `

Write a single flowing paragraph of 80 to 110 words describing what happens in this section.
Match the book's tone and style. Start straight away with the scene or the action.
Do not mention the words "chapter" or "summary" and do not explain what you are doing.

Paragraph:`
}

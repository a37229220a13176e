// Package metadata asks the language model for a book's bibliographic
// record and chapter summaries, falling back to fixed text when it fails.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/lenient"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/pacing"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/textutil"
)

const (
	metadataTextLength = 5000
	previewChapters    = 5
	summaryTextLength  = 10000
	// MaxSummaries is the number of leading chapters that get a summary.
	MaxSummaries = 30
	// MinSummaryWords is the shortest cleaned summary that is kept.
	MinSummaryWords = 60
)

// Synthesizer derives metadata and summaries through an ai.Caller.
type Synthesizer struct {
	AI       ai.Caller
	Pacer    pacing.Pacer
	Observer progress.Observer
}

// NewSynthesizer returns a Synthesizer pausing 800ms between summary calls.
func NewSynthesizer(caller ai.Caller) *Synthesizer {
	return &Synthesizer{
		AI:       caller,
		Pacer:    pacing.Fixed{Delay: 800 * time.Millisecond},
		Observer: progress.Nop{},
	}
}

// DefaultMetadata is the record used whenever the model's answer is unusable.
func DefaultMetadata(chapters models.ChapterList) models.BookMetadata {
	title := "Unknown Title"
	if len(chapters) > 0 {
		title = chapters[0]
	}
	return models.BookMetadata{
		Title:       title,
		Author:      "Unknown Author",
		Genre:       "Fiction",
		Description: "No description available",
		Language:    "English",
	}
}

// Synthesize returns the book's metadata. A response missing any of the
// five fields is discarded entirely in favour of DefaultMetadata.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, chapters models.ChapterList) models.BookMetadata {
	obs := progress.OrNop(s.Observer)
	obs.OnStage(progress.StageMetadata, "asking language model for book metadata")

	if s.AI == nil {
		return DefaultMetadata(chapters)
	}

	response, err := s.AI.Call(ctx, buildMetadataPrompt(textutil.FirstRunes(text, metadataTextLength), chapters),
		ai.Options{MaxTokens: 500, Temperature: 0.3})
	if err != nil {
		slog.Warn("Metadata extraction failed, using defaults", "error", err)
		obs.OnStage(progress.StageMetadata, "language model failed, using default metadata")
		return DefaultMetadata(chapters)
	}

	meta, err := ParseMetadata(response)
	if err != nil {
		slog.Warn("Invalid metadata response, using defaults", "error", err)
		obs.OnStage(progress.StageMetadata, "invalid metadata response, using default metadata")
		return DefaultMetadata(chapters)
	}

	slog.Info("Extracted metadata", "title", meta.Title, "author", meta.Author)
	return meta
}

// ParseMetadata pulls a complete metadata record out of a model response.
func ParseMetadata(response string) (models.BookMetadata, error) {
	raw, err := lenient.RawObject(response)
	if err != nil {
		return models.BookMetadata{}, err
	}
	if err := validateMetadata(raw); err != nil {
		return models.BookMetadata{}, err
	}

	var meta models.BookMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return models.BookMetadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}

func buildMetadataPrompt(excerpt string, chapters models.ChapterList) string {
	preview := "None"
	if len(chapters) > 0 {
		lines := make([]string, 0, previewChapters)
		for _, ch := range chapters[:min(len(chapters), previewChapters)] {
			lines = append(lines, "- "+ch)
		}
		preview = strings.Join(lines, "\n")
	}

	return `Read this excerpt from the start of a book and identify its metadata.

Excerpt:
` + excerpt + `

Opening chapters:
` + preview + `

Reply with a single JSON object and nothing else, using exactly these keys:
{
  "title": "the book's title",
  "author": "the author's name",
  "genre": "the main genre",
  "description": "a two sentence description",
  "language": "the language the book is written in"
}`
}

// Package pipeline runs a book through extraction, chapter discovery,
// metadata synthesis and summarization.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/chapters"
	"github.com/lehigh-university-libraries/lectern/internal/extract"
	"github.com/lehigh-university-libraries/lectern/internal/metadata"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/textutil"
)

// DefaultMinTextLength is the shortest extracted text worth processing.
const DefaultMinTextLength = 100

// UnsupportedFormatError is returned for files that are neither PDF nor EPUB.
type UnsupportedFormatError struct {
	Path      string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s", e.Extension, e.Path)
}

// InsufficientContentError is returned when the extracted text is too short.
type InsufficientContentError struct {
	Path   string
	Length int
	Min    int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("insufficient text in %s: got %d characters, need at least %d", e.Path, e.Length, e.Min)
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	Extractor     *extract.Extractor
	Locator       *chapters.Locator
	Synthesizer   *metadata.Synthesizer
	Observer      progress.Observer
	MinTextLength int
}

// New builds a Pipeline whose stages share caller and observer.
func New(caller ai.Caller, obs progress.Observer) *Pipeline {
	obs = progress.OrNop(obs)

	extractor := extract.NewExtractor()
	extractor.Observer = obs
	locator := chapters.NewLocator(caller)
	locator.Observer = obs
	synthesizer := metadata.NewSynthesizer(caller)
	synthesizer.Observer = obs

	return &Pipeline{
		Extractor:     extractor,
		Locator:       locator,
		Synthesizer:   synthesizer,
		Observer:      obs,
		MinTextLength: DefaultMinTextLength,
	}
}

// ProcessBook extracts and analyses the book at path. Only an unsupported
// format or unreadable text fails the call; later stages fall back to
// defaults.
func (p *Pipeline) ProcessBook(ctx context.Context, path string, summarize bool) (*models.ProcessingResult, error) {
	obs := progress.OrNop(p.Observer)

	format, ok := extract.FormatFromPath(path)
	if !ok {
		return nil, &UnsupportedFormatError{Path: path, Extension: strings.ToLower(filepath.Ext(path))}
	}
	doc := extract.Document{Path: path, Format: format}

	slog.Info("Processing book", "path", path, "format", format)
	text, err := p.Extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if n := textutil.Len(text); n < p.MinTextLength {
		return nil, &InsufficientContentError{Path: path, Length: n, Min: p.MinTextLength}
	}
	obs.OnStage(progress.StageExtract, fmt.Sprintf("extracted %d characters", textutil.Len(text)))

	chapterList := p.Locator.Locate(ctx, doc, text)
	meta := p.Synthesizer.Synthesize(ctx, text, chapterList)

	summaries := models.ChapterSummaries{}
	if summarize {
		obs.OnStage(progress.StageSummaries, fmt.Sprintf("summarizing %d chapters", min(len(chapterList), metadata.MaxSummaries)))
		summaries = p.Synthesizer.Summarize(ctx, text, chapterList)
	}

	result := &models.ProcessingResult{
		Title:            meta.Title,
		Author:           meta.Author,
		Genre:            meta.Genre,
		Description:      meta.Description,
		Language:         meta.Language,
		Chapters:         chapterList,
		TotalChapters:    len(chapterList),
		ChapterSummaries: summaries,
	}

	obs.OnStage(progress.StageComplete, fmt.Sprintf("processed %q with %d chapters", result.Title, result.TotalChapters))
	return result, nil
}

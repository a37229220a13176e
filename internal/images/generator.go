// Package images turns book metadata and chapter summaries into cover art
// and chapter illustrations.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/pacing"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
)

// Rendering models understood by the image service.
const (
	CoverModel   = "flux"
	ChapterModel = "turbo"
)

// Illustration is one generated image. Data is nil when the service
// produced nothing; Reason then says why.
type Illustration struct {
	ChapterNumber int
	Prompt        string
	Data          []byte
	Width         int
	Height        int
	Reason        string
}

// OK reports whether the illustration carries image data.
func (i Illustration) OK() bool {
	return len(i.Data) > 0
}

// Batch is the result of illustrating a whole book.
type Batch struct {
	Cover    Illustration
	Chapters []Illustration
}

// Generator builds prompts, fetches images and normalizes them.
type Generator struct {
	AI       ai.Caller
	Source   Source
	Pacer    pacing.Pacer
	Observer progress.Observer

	// Request sizes are what the service renders; targets are the boxes
	// the result is shrunk to fit.
	CoverRequest   Size
	CoverTarget    Size
	ChapterRequest Size
	ChapterTarget  Size
	MaxChapters    int
}

// NewGenerator returns a Generator with the default sizes and a one second
// pause between chapter illustrations.
func NewGenerator(caller ai.Caller, source Source) *Generator {
	return &Generator{
		AI:             caller,
		Source:         source,
		Pacer:          pacing.Fixed{Delay: time.Second},
		Observer:       progress.Nop{},
		CoverRequest:   Size{Width: 512, Height: 768},
		CoverTarget:    Size{Width: 800, Height: 1200},
		ChapterRequest: Size{Width: 512, Height: 512},
		ChapterTarget:  Size{Width: 1024, Height: 1024},
		MaxChapters:    20,
	}
}

// GenerateCover renders cover art for the book. A service failure yields
// an Illustration without data and a nil error; undecodable bytes yield a
// ProcessingError.
func (g *Generator) GenerateCover(ctx context.Context, meta models.BookMetadata) (Illustration, error) {
	prompt := g.CoverPrompt(ctx, meta)
	slog.Info("Generating cover", "title", meta.Title)
	return g.render(ctx, prompt, g.CoverRequest, g.CoverTarget, CoverModel)
}

// GenerateIllustration renders one chapter illustration with the same
// failure semantics as GenerateCover.
func (g *Generator) GenerateIllustration(ctx context.Context, ch models.ChapterData, book models.BookContext) (Illustration, error) {
	prompt := ChapterPrompt(ch, book)
	slog.Info("Generating chapter illustration", "chapter", ch.Number, "title", ch.Title)
	ill, err := g.render(ctx, prompt, g.ChapterRequest, g.ChapterTarget, ChapterModel)
	ill.ChapterNumber = ch.Number
	return ill, err
}

// GenerateAll renders the cover and up to MaxChapters chapter
// illustrations, one at a time. Failures are recorded on the affected
// Illustration and the batch carries on.
func (g *Generator) GenerateAll(ctx context.Context, meta models.BookMetadata, chapters []models.ChapterData) Batch {
	obs := progress.OrNop(g.Observer)
	var batch Batch

	obs.OnStage(progress.StageImages, "generating cover")
	cover, err := g.GenerateCover(ctx, meta)
	if err != nil {
		slog.Error("Cover generation failed", "error", err)
		cover.Reason = err.Error()
	}
	batch.Cover = cover

	book := models.BookContext{Title: meta.Title, Genre: meta.Genre}
	if g.MaxChapters >= 0 && len(chapters) > g.MaxChapters {
		chapters = chapters[:g.MaxChapters]
	}

	for i, ch := range chapters {
		if i > 0 && g.Pacer != nil {
			if err := g.Pacer.Wait(ctx); err != nil {
				slog.Warn("Illustration batch cancelled", "error", err)
				break
			}
		}

		obs.OnStage(progress.StageImages, fmt.Sprintf("illustrating chapter %d of %d", i+1, len(chapters)))
		ill, err := g.GenerateIllustration(ctx, ch, book)
		if err != nil {
			slog.Error("Chapter illustration failed", "chapter", ch.Number, "error", err)
			ill.Reason = err.Error()
		}
		batch.Chapters = append(batch.Chapters, ill)
	}

	return batch
}

func (g *Generator) render(ctx context.Context, prompt string, request, target Size, model string) (Illustration, error) {
	ill := Illustration{Prompt: prompt}
	if g.Source == nil {
		ill.Reason = ErrNoImage.Error()
		return ill, nil
	}

	raw, err := g.Source.Fetch(ctx, prompt, request.Width, request.Height, model)
	if err != nil {
		if !errors.Is(err, ErrNoImage) {
			err = fmt.Errorf("%w: %v", ErrNoImage, err)
		}
		slog.Warn("No image returned", "model", model, "error", err)
		ill.Reason = err.Error()
		return ill, nil
	}

	data, size, err := Normalize(raw, target)
	if err != nil {
		var perr *ProcessingError
		if errors.As(err, &perr) {
			perr.Prompt = prompt
		}
		return ill, err
	}

	ill.Data = data
	ill.Width = size.Width
	ill.Height = size.Height
	return ill, nil
}

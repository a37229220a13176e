package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/config"
	"github.com/lehigh-university-libraries/lectern/internal/extract"
	"github.com/lehigh-university-libraries/lectern/internal/genre"
	"github.com/lehigh-university-libraries/lectern/internal/images"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/pipeline"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/storage"
)

// ingestOptions are the per-run choices of process and batch.
type ingestOptions struct {
	summaries bool
	images    bool
	free      bool
}

// ingester holds everything needed to take a book from file to library.
type ingester struct {
	cfg       *config.Config
	client    *ai.Client
	pipeline  *pipeline.Pipeline
	generator *images.Generator
	library   *storage.Library
}

func newIngester(ctx context.Context, cfg *config.Config) (*ingester, error) {
	obs := progress.Slog{}

	client, err := cfg.AI.NewClient(ctx, obs)
	if err != nil {
		return nil, err
	}

	library, err := storage.Open(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	return &ingester{
		cfg:       cfg,
		client:    client,
		pipeline:  cfg.NewPipeline(client, obs),
		generator: cfg.Images.NewGenerator(client, obs),
		library:   library,
	}, nil
}

// ingest processes one book, stores it and optionally illustrates it.
func (in *ingester) ingest(ctx context.Context, path string, opts ingestOptions) (*models.BookRecord, error) {
	result, err := in.pipeline.ProcessBook(ctx, path, opts.summaries)
	if err != nil {
		return nil, err
	}

	format, _ := extract.FormatFromPath(path)
	record := &models.BookRecord{
		SourcePath: path,
		Format:     string(format),
		GenreKey:   string(genre.Normalize(result.Genre)),
		IsFree:     opts.free,
		Result:     *result,
		Provider:   in.cfg.AI.Provider,
		Model:      in.client.Model(),
	}
	if err := in.library.Create(record); err != nil {
		return nil, fmt.Errorf("failed to save book record: %w", err)
	}
	slog.Info("Saved book", "id", record.ID, "title", result.Title, "chapters", result.TotalChapters)

	if opts.images {
		if err := in.illustrate(ctx, record); err != nil {
			return record, err
		}
	}
	return record, nil
}

// reprocess re-reads the source of a stored book and replaces its
// metadata. Chapters, summaries and images are kept.
func (in *ingester) reprocess(ctx context.Context, record *models.BookRecord) error {
	result, err := in.pipeline.ProcessBook(ctx, record.SourcePath, false)
	if err != nil {
		return err
	}

	record.Result.Title = result.Title
	record.Result.Author = result.Author
	record.Result.Genre = result.Genre
	record.Result.Description = result.Description
	record.Result.Language = result.Language
	record.GenreKey = string(genre.Normalize(result.Genre))
	record.Provider = in.cfg.AI.Provider
	record.Model = in.client.Model()

	if err := in.library.Set(record); err != nil {
		return fmt.Errorf("failed to save book record: %w", err)
	}
	slog.Info("Reprocessed book metadata", "id", record.ID, "title", result.Title)
	return nil
}

// illustrate generates and stores a cover and chapter illustrations.
func (in *ingester) illustrate(ctx context.Context, record *models.BookRecord) error {
	if !in.cfg.Images.Enabled {
		slog.Info("Image generation disabled, skipping illustrations", "id", record.ID)
		return nil
	}

	batch := in.generator.GenerateAll(ctx, record.Result.Metadata(), record.Result.ChapterData())
	if err := in.library.SaveIllustrations(record, batch); err != nil {
		return fmt.Errorf("failed to save illustrations: %w", err)
	}

	slog.Info("Saved illustrations", "id", record.ID, "cover", record.Cover != nil,
		"chapters", len(record.Illustrations), "requested", len(batch.Chapters))
	return nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s (supported: yaml, json)", format)
	}
}

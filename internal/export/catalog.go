// Package export writes the library catalog as Parquet or JSONL.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/lectern/internal/models"
)

// CatalogRow is one processed book in the exported catalog
type CatalogRow struct {
	ID            string   `json:"id" parquet:"id"`
	Title         string   `json:"title" parquet:"title"`
	Author        string   `json:"author" parquet:"author"`
	Genre         string   `json:"genre" parquet:"genre"`
	GenreKey      string   `json:"genre_key" parquet:"genre_key"`
	Language      string   `json:"language" parquet:"language"`
	Description   string   `json:"description" parquet:"description"`
	Format        string   `json:"format" parquet:"format"`
	SourcePath    string   `json:"source_path" parquet:"source_path"`
	Chapters      []string `json:"chapters" parquet:"chapters"`
	TotalChapters int64    `json:"total_chapters" parquet:"total_chapters"`
	Summaries     int64    `json:"summaries" parquet:"summaries"`
	HasCover      bool     `json:"has_cover" parquet:"has_cover"`
	Illustrations int64    `json:"illustrations" parquet:"illustrations"`
	IsFree        bool     `json:"is_free" parquet:"is_free"`
	Provider      string   `json:"provider" parquet:"provider"`
	Model         string   `json:"model" parquet:"model"`
	ProcessedAt   string   `json:"processed_at" parquet:"processed_at"` // RFC 3339
}

// Row flattens a book record into a catalog row.
func Row(record *models.BookRecord) CatalogRow {
	r := record.Result
	return CatalogRow{
		ID:            record.ID,
		Title:         r.Title,
		Author:        r.Author,
		Genre:         r.Genre,
		GenreKey:      record.GenreKey,
		Language:      r.Language,
		Description:   r.Description,
		Format:        record.Format,
		SourcePath:    record.SourcePath,
		Chapters:      append([]string(nil), r.Chapters...),
		TotalChapters: int64(r.TotalChapters),
		Summaries:     int64(len(r.ChapterSummaries)),
		HasCover:      record.Cover != nil,
		Illustrations: int64(len(record.Illustrations)),
		IsFree:        record.IsFree,
		Provider:      record.Provider,
		Model:         record.Model,
		ProcessedAt:   record.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

// WriteCatalog writes records to path; the extension picks the format.
func WriteCatalog(path string, records []*models.BookRecord) error {
	rows := make([]CatalogRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, Row(record))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".parquet" && ext != ".jsonl" && ext != ".json" {
		return fmt.Errorf("unsupported catalog format: %s (supported: .parquet, .jsonl)", ext)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}

	if ext == ".parquet" {
		err = writeParquet(file, rows)
	} else {
		err = writeJSONL(file, rows)
	}
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close catalog file: %w", closeErr)
	}
	if err != nil {
		return err
	}

	slog.Info("Wrote catalog", "path", path, "rows", len(rows))
	return nil
}

func writeParquet(w io.Writer, rows []CatalogRow) error {
	writer := parquet.NewGenericWriter[CatalogRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

func writeJSONL(w io.Writer, rows []CatalogRow) error {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write JSON row: %w", err)
		}
	}
	return buf.Flush()
}

// ReadCatalog loads a catalog written by WriteCatalog.
func ReadCatalog(path string) ([]CatalogRow, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return readParquet(path)
	case ".jsonl", ".json":
		return readJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func readParquet(path string) ([]CatalogRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet catalog opened", "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[CatalogRow](pf)
	defer reader.Close()

	var records []CatalogRow
	rows := make([]CatalogRow, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}

func readJSONL(path string) ([]CatalogRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	var records []CatalogRow
	dec := json.NewDecoder(file)
	for {
		var row CatalogRow
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse catalog row %d: %w", len(records)+1, err)
		}
		records = append(records, row)
	}
	return records, nil
}

// Package storage keeps processed books and their images on disk, one
// directory per book.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/lectern/internal/images"
	"github.com/lehigh-university-libraries/lectern/internal/models"
)

const (
	recordFile     = "book.yaml"
	coverFile      = "cover.jpg"
	chapterPattern = "chapter_*.jpg"
)

// ErrNotFound is returned for unknown record IDs.
var ErrNotFound = errors.New("book record not found")

// Library is a directory of book records with an in-memory index.
type Library struct {
	root    string
	records map[string]*models.BookRecord
	mu      sync.RWMutex
}

// Open loads every record found under root, creating root if needed.
func Open(root string) (*Library, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	l := &Library{
		root:    root,
		records: make(map[string]*models.BookRecord),
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read library directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		record, err := readRecord(filepath.Join(root, entry.Name(), recordFile))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("Skipping unreadable book record", "dir", entry.Name(), "error", err)
			}
			continue
		}
		l.records[record.ID] = record
	}

	slog.Debug("Opened library", "root", root, "records", len(l.records))
	return l, nil
}

// Root is the library directory.
func (l *Library) Root() string {
	return l.root
}

// Dir is the directory holding a record and its images.
func (l *Library) Dir(id string) string {
	return filepath.Join(l.root, id)
}

// Create assigns a new ID to record and stores it.
func (l *Library) Create(record *models.BookRecord) error {
	record.ID = uuid.New().String()
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now().UTC()
	}
	return l.Set(record)
}

// Get returns the record with the given ID.
func (l *Library) Get(id string) (*models.BookRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, exists := l.records[id]
	return record, exists
}

// Set writes record to disk and indexes it.
func (l *Library) Set(record *models.BookRecord) error {
	if record.ID == "" {
		return fmt.Errorf("failed to save book record: missing id")
	}

	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal book record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	dir := l.Dir(record.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, recordFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write book record: %w", err)
	}
	l.records[record.ID] = record
	return nil
}

// GetAll returns every record, oldest first.
func (l *Library) GetAll() []*models.BookRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.BookRecord, 0, len(l.records))
	for _, record := range l.records {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProcessedAt.Equal(result[j].ProcessedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ProcessedAt.Before(result[j].ProcessedAt)
	})
	return result
}

// Delete removes a record and its images.
func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[id]; !exists {
		return ErrNotFound
	}
	if err := os.RemoveAll(l.Dir(id)); err != nil {
		return fmt.Errorf("failed to delete record directory: %w", err)
	}
	delete(l.records, id)
	return nil
}

// SaveIllustrations writes the images of batch next to the record, replaces
// the record's cover and illustration list and saves it. Illustrations
// without data are left out and chapter images from earlier runs are removed.
// The record is only changed once every image is on disk.
func (l *Library) SaveIllustrations(record *models.BookRecord, batch images.Batch) error {
	dir := l.Dir(record.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	stale, err := filepath.Glob(filepath.Join(dir, chapterPattern))
	if err != nil {
		return fmt.Errorf("failed to list chapter images: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove old chapter image: %w", err)
		}
	}

	var cover *models.ImageItem
	if batch.Cover.OK() {
		item, err := writeImage(dir, coverFile, batch.Cover)
		if err != nil {
			return err
		}
		cover = &item
	}

	var illustrations []models.ImageItem
	for _, ill := range batch.Chapters {
		if !ill.OK() {
			slog.Debug("No illustration to save", "chapter", ill.ChapterNumber, "reason", ill.Reason)
			continue
		}
		item, err := writeImage(dir, chapterFile(ill.ChapterNumber), ill)
		if err != nil {
			return err
		}
		item.ChapterNumber = ill.ChapterNumber
		illustrations = append(illustrations, item)
	}

	record.Cover = cover
	record.Illustrations = illustrations
	return l.Set(record)
}

func chapterFile(number int) string {
	return fmt.Sprintf("chapter_%02d.jpg", number)
}

func writeImage(dir, name string, ill images.Illustration) (models.ImageItem, error) {
	if err := os.WriteFile(filepath.Join(dir, name), ill.Data, 0o644); err != nil {
		return models.ImageItem{}, fmt.Errorf("failed to write image %s: %w", name, err)
	}
	return models.ImageItem{
		ImagePath:   name,
		Prompt:      ill.Prompt,
		ImageWidth:  ill.Width,
		ImageHeight: ill.Height,
	}, nil
}

func readRecord(path string) (*models.BookRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record models.BookRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if record.ID == "" {
		return nil, fmt.Errorf("record %s has no id", path)
	}
	return &record, nil
}

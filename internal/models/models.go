package models

import "time"

// ChapterList is the ordered list of chapter titles of a book
type ChapterList []string

// ChapterSummaries maps a 1-based chapter index to its summary paragraph
type ChapterSummaries map[int]string

// BookMetadata holds the bibliographic fields synthesized for a book
type BookMetadata struct {
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Genre       string `json:"genre" yaml:"genre"`
	Description string `json:"description" yaml:"description"`
	Language    string `json:"language" yaml:"language"`
}

// ProcessingResult is the outcome of ingesting one book
type ProcessingResult struct {
	Title            string           `json:"title" yaml:"title"`
	Author           string           `json:"author" yaml:"author"`
	Genre            string           `json:"genre" yaml:"genre"`
	Description      string           `json:"description" yaml:"description"`
	Language         string           `json:"language" yaml:"language"`
	Chapters         ChapterList      `json:"chapters" yaml:"chapters"`
	TotalChapters    int              `json:"total_chapters" yaml:"total_chapters"`
	ChapterSummaries ChapterSummaries `json:"chapter_summaries" yaml:"chapter_summaries"`
}

// Metadata returns the bibliographic part of the result
func (r *ProcessingResult) Metadata() BookMetadata {
	return BookMetadata{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Description: r.Description,
		Language:    r.Language,
	}
}

// ChapterData describes a single chapter handed to the illustration pipeline
type ChapterData struct {
	Number  int    `json:"number" yaml:"number"`
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// ChapterData returns the chapters of the result with their summaries, numbered from 1
func (r *ProcessingResult) ChapterData() []ChapterData {
	chapters := make([]ChapterData, 0, len(r.Chapters))
	for i, title := range r.Chapters {
		chapters = append(chapters, ChapterData{
			Number:  i + 1,
			Title:   title,
			Summary: r.ChapterSummaries[i+1],
		})
	}
	return chapters
}

// BookContext is the book-level context for chapter illustrations
type BookContext struct {
	Title string `json:"title" yaml:"title"`
	Genre string `json:"genre" yaml:"genre"`
}

// BookRecord is a processed book as kept in the library
type BookRecord struct {
	ID            string           `json:"id" yaml:"id"`
	SourcePath    string           `json:"source_path" yaml:"source_path"`
	Format        string           `json:"format" yaml:"format"`
	GenreKey      string           `json:"genre_key" yaml:"genre_key"`
	IsFree        bool             `json:"is_free" yaml:"is_free"`
	Result        ProcessingResult `json:"result" yaml:"result"`
	Cover         *ImageItem       `json:"cover,omitempty" yaml:"cover,omitempty"`
	Illustrations []ImageItem      `json:"illustrations,omitempty" yaml:"illustrations,omitempty"`
	Provider      string           `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model         string           `json:"model,omitempty" yaml:"model,omitempty"`
	ProcessedAt   time.Time        `json:"processed_at" yaml:"processed_at"`
}

// ImageItem represents a generated image stored next to a book record
type ImageItem struct {
	ChapterNumber int    `json:"chapter_number,omitempty" yaml:"chapter_number,omitempty"`
	ImagePath     string `json:"image_path" yaml:"image_path"`
	Prompt        string `json:"prompt" yaml:"prompt"`
	ImageWidth    int    `json:"image_width" yaml:"image_width"`
	ImageHeight   int    `json:"image_height" yaml:"image_height"`
}

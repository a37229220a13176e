// Package extract pulls plain text out of PDF and EPUB books.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported book container format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
)

// FormatFromPath infers the format from the file extension, ignoring case.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "pdf":
		return FormatPDF, true
	case "epub":
		return FormatEPUB, true
	default:
		return "", false
	}
}

// Document is a book file waiting to be processed.
type Document struct {
	Path   string
	Format Format
}

// ExtractionError means no usable text could be read from a document.
type ExtractionError struct {
	Path   string
	Format Format
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to extract text from %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to extract text from %s: %s", e.Path, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

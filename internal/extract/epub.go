package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/simp-lee/epub"
)

func (e *Extractor) extractEPUB(ctx context.Context, path string) (string, error) {
	book, err := epub.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatEPUB, Reason: "unreadable EPUB", Err: err}
	}
	defer book.Close()

	limit := e.MaxEPUBItems
	if limit <= 0 {
		limit = 5
	}

	var parts []string
	for _, ch := range book.ContentChapters() {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Path: path, Format: FormatEPUB, Reason: "cancelled", Err: err}
		}

		text, err := ch.TextContent()
		if err != nil {
			slog.Debug("Skipping unreadable EPUB document", "href", ch.Href, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		parts = append(parts, text)
		if len(parts) >= limit {
			break
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return "", &ExtractionError{Path: path, Format: FormatEPUB, Reason: "no readable text in EPUB documents"}
	}
	return text, nil
}

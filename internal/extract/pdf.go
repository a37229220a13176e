package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	rpdf "rsc.io/pdf"

	"github.com/lehigh-university-libraries/lectern/internal/progress"
)

func (e *Extractor) extractPDF(ctx context.Context, path string, obs progress.Observer) (string, error) {
	if total, err := pageCount(path); err != nil {
		slog.Debug("Could not count PDF pages", "path", path, "error", err)
	} else {
		obs.OnStage(progress.StageExtract, fmt.Sprintf("PDF has %d pages", total))
	}

	pages, err := readPDFPages(ctx, path, e.maxPDFPages())
	if err != nil {
		return "", &ExtractionError{Path: path, Format: FormatPDF, Reason: "unreadable PDF", Err: err}
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text == "" {
		return "", &ExtractionError{Path: path, Format: FormatPDF, Reason: "no text layer found (scanned or image-only PDF)"}
	}
	return text, nil
}

func (e *Extractor) maxPDFPages() int {
	if e.MaxPDFPages <= 0 {
		return 20
	}
	return e.MaxPDFPages
}

func pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// readPDFPages returns the non-empty text of the first maxPages pages.
// rsc.io/pdf panics on some malformed files, so panics become errors.
func readPDFPages(ctx context.Context, path string, maxPages int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	reader, err := rpdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF reader: %w", err)
	}

	n := min(reader.NumPage(), maxPages)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := strings.TrimSpace(pageText(page.Content().Text))
		if text != "" {
			pages = append(pages, text)
		}
	}

	return pages, nil
}

// pageText lays positioned glyphs out as lines. A baseline change starts a
// new line and a horizontal gap wider than a fifth of the font size is a space.
func pageText(glyphs []rpdf.Text) string {
	var b strings.Builder
	var prev *rpdf.Text
	var last byte

	for i := range glyphs {
		g := &glyphs[i]
		if g.S == "" {
			continue
		}
		if prev != nil {
			tolerance := math.Max(prev.FontSize, g.FontSize) * 0.5
			if tolerance == 0 {
				tolerance = 1
			}
			gap := g.X - (prev.X + prev.W)
			switch {
			case math.Abs(g.Y-prev.Y) > tolerance:
				b.WriteByte('\n')
			case gap > math.Max(prev.FontSize*0.2, 1) && last != ' ' && last != '\n' && g.S != " ":
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		last = g.S[len(g.S)-1]
		prev = g
	}

	return b.String()
}

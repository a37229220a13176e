package extract

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/lectern/internal/progress"
)

// Extractor reads the leading text of a book.
type Extractor struct {
	MaxPDFPages  int
	MaxEPUBItems int
	Observer     progress.Observer
}

// NewExtractor returns an Extractor reading at most 20 PDF pages or 5 EPUB documents.
func NewExtractor() *Extractor {
	return &Extractor{
		MaxPDFPages:  20,
		MaxEPUBItems: 5,
		Observer:     progress.Nop{},
	}
}

// Extract returns the document's text. The result is never blank;
// a document without text yields an *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, doc Document) (string, error) {
	obs := progress.OrNop(e.Observer)

	switch doc.Format {
	case FormatPDF:
		obs.OnStage(progress.StageExtract, "reading PDF pages")
		return e.extractPDF(ctx, doc.Path, obs)
	case FormatEPUB:
		obs.OnStage(progress.StageExtract, "reading EPUB documents")
		return e.extractEPUB(ctx, doc.Path)
	default:
		return "", &ExtractionError{Path: doc.Path, Format: doc.Format, Reason: fmt.Sprintf("unsupported format %q", doc.Format)}
	}
}

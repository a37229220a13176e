// Package chapters finds a book's chapter titles, falling back from the
// EPUB table of contents to headings, then to the language model.
package chapters

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/simp-lee/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/extract"
	"github.com/lehigh-university-libraries/lectern/internal/lenient"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/progress"
	"github.com/lehigh-university-libraries/lectern/internal/textutil"
)

const (
	MaxChapters    = 50
	MaxTitleLength = 200
	// Characters of book text shown to the model.
	promptTextLength = 8000
)

// Placeholder is returned when nothing else yields a chapter.
var Placeholder = models.ChapterList{"Chapter 1"}

// Locator derives a chapter list for a document.
type Locator struct {
	AI       ai.Caller
	Observer progress.Observer
}

// NewLocator returns a Locator that falls back to caller; caller may be nil.
func NewLocator(caller ai.Caller) *Locator {
	return &Locator{AI: caller, Observer: progress.Nop{}}
}

// Locate returns between 1 and 50 chapter titles. It never fails.
func (l *Locator) Locate(ctx context.Context, doc extract.Document, text string) models.ChapterList {
	obs := progress.OrNop(l.Observer)

	if doc.Format == extract.FormatEPUB {
		if titles := Normalize(fromTOC(doc.Path)); len(titles) > 0 {
			obs.OnStage(progress.StageChapters, fmt.Sprintf("found %d chapters in table of contents", len(titles)))
			return titles
		}
		if titles := Normalize(fromHeadings(doc.Path)); len(titles) > 0 {
			obs.OnStage(progress.StageChapters, fmt.Sprintf("found %d chapters from headings", len(titles)))
			return titles
		}
	}

	if l.AI != nil {
		if titles := Normalize(l.fromAI(ctx, text)); len(titles) > 0 {
			obs.OnStage(progress.StageChapters, fmt.Sprintf("language model found %d chapters", len(titles)))
			return titles
		}
	}

	obs.OnStage(progress.StageChapters, "no chapters found, using placeholder")
	return append(models.ChapterList(nil), Placeholder...)
}

// Normalize trims titles, drops empty or overlong ones and caps the list.
func Normalize(titles []string) models.ChapterList {
	out := make(models.ChapterList, 0, min(len(titles), MaxChapters))
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" || textutil.Len(title) >= MaxTitleLength {
			continue
		}
		out = append(out, title)
		if len(out) == MaxChapters {
			break
		}
	}
	return out
}

func fromTOC(path string) []string {
	book, err := epub.Open(path)
	if err != nil {
		slog.Debug("Could not open EPUB for table of contents", "path", path, "error", err)
		return nil
	}
	defer book.Close()

	var titles []string
	for _, item := range book.TOC() {
		titles = append(titles, item.Title)
	}
	return titles
}

func fromHeadings(path string) []string {
	book, err := epub.Open(path)
	if err != nil {
		slog.Debug("Could not open EPUB for heading scan", "path", path, "error", err)
		return nil
	}
	defer book.Close()

	docs, err := manifestDocuments(book)
	if err != nil {
		slog.Debug("Could not read EPUB manifest, scanning the spine", "path", path, "error", err)
		docs = nil
		for _, ch := range book.Chapters() {
			docs = append(docs, ch.Href)
		}
	}

	var titles []string
	for _, href := range docs {
		data, err := book.ReadFile(href)
		if err != nil {
			slog.Debug("Skipping unreadable EPUB document", "href", href, "error", err)
			continue
		}
		titles = append(titles, headings(data)...)
	}
	return titles
}

// headings returns the text of every h1 and h2 element in document order.
func headings(data []byte) []string {
	var (
		titles []string
		depth  int
		buf    strings.Builder
	)

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return titles
		case html.StartTagToken:
			if isHeading(z) {
				depth++
			}
		case html.EndTagToken:
			if isHeading(z) && depth > 0 {
				depth--
				if depth == 0 {
					titles = append(titles, textutil.CollapseSpace(buf.String()))
					buf.Reset()
				}
			}
		case html.TextToken:
			if depth > 0 {
				buf.Write(z.Text())
				buf.WriteByte(' ')
			}
		}
	}
}

func isHeading(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	a := atom.Lookup(name)
	return a == atom.H1 || a == atom.H2
}

func (l *Locator) fromAI(ctx context.Context, text string) []string {
	prompt := buildPrompt(textutil.FirstRunes(text, promptTextLength))

	response, err := l.AI.Call(ctx, prompt, ai.Options{MaxTokens: 500, Temperature: 0.2})
	if err != nil {
		slog.Warn("Chapter detection by language model failed", "error", err)
		return nil
	}

	arr, err := lenient.ExtractArray(response)
	if err != nil {
		slog.Warn("Could not parse chapter list from model response", "error", err)
		return nil
	}
	return lenient.Strings(arr)
}

func buildPrompt(text string) string {
	return `Analyze the beginning of this book and list its chapter titles in order.

Respond with ONLY a JSON array of strings, one per chapter, for example:
["Chapter 1: The Beginning", "Chapter 2: The Journey"]

If the text has no explicit chapters, propose sensible titles for its main sections.

Book text:
` + text + `

JSON array:`
}

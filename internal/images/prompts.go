package images

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/lectern/internal/ai"
	"github.com/lehigh-university-libraries/lectern/internal/genre"
	"github.com/lehigh-university-libraries/lectern/internal/models"
	"github.com/lehigh-university-libraries/lectern/internal/textutil"
)

const (
	MinPromptLength = 20
	MaxPromptLength = 1000
)

// Phrases models tend to wrap around the description we asked for.
var boilerplate = []string{
	"I hope this prompts meet your requirements",
	"I hope this meets your requirements",
	"Here is the prompt:",
	"Here's the description:",
	"The book title",
	"is prominently displayed",
	"Insert ",
	"Create ",
}

var themeWords = []string{
	"witch", "magic", "forest", "castle", "dragon", "vampire", "detective",
	"murder", "love", "war", "space", "robot", "alien", "ghost", "zombie",
	"princess", "knight", "pirate", "ocean", "mountain", "city", "desert",
}

var (
	bracketed      = regexp.MustCompile(`\[[^\]]*\]?`)
	spaceBeforeEnd = regexp.MustCompile(`\s+([.,;:!?])`)
	repeatedEnd    = regexp.MustCompile(`([.,;:!?])[.,;:!?]+`)
)

// SanitizePrompt removes bracketed notes, boilerplate and quotes from a
// model-written image description and collapses whitespace.
func SanitizePrompt(raw string) string {
	s := bracketed.ReplaceAllString(raw, " ")
	for _, phrase := range boilerplate {
		s = strings.ReplaceAll(s, phrase, " ")
	}
	s = strings.NewReplacer(`"`, "", "'", "", "[", "", "]", "", "“", "", "”", "").Replace(s)
	s = textutil.CollapseSpace(s)
	s = spaceBeforeEnd.ReplaceAllString(s, "$1")
	s = repeatedEnd.ReplaceAllString(s, "$1")
	return strings.TrimLeft(s, " .,;:!?")
}

// acceptable reports whether a sanitized prompt is usable as is.
func acceptable(prompt string) bool {
	n := textutil.Len(prompt)
	return n >= MinPromptLength && n <= MaxPromptLength
}

// CoverPrompt asks the model for a visual description of the cover and
// falls back to FallbackCoverPrompt when the answer is unusable.
func (g *Generator) CoverPrompt(ctx context.Context, meta models.BookMetadata) string {
	if g.AI != nil {
		response, err := g.AI.Call(ctx, buildCoverRequest(meta), ai.Options{MaxTokens: 200, Temperature: 0.8})
		if err != nil {
			slog.Warn("Cover prompt generation failed, using fallback", "error", err)
		} else if prompt := SanitizePrompt(response); acceptable(prompt) {
			return prompt
		} else {
			slog.Debug("Cover prompt out of bounds, using fallback", "length", textutil.Len(prompt))
		}
	}
	return FallbackCoverPrompt(meta)
}

// FallbackCoverPrompt builds a cover prompt from the genre style table and
// up to three theme words found in the description.
func FallbackCoverPrompt(meta models.BookMetadata) string {
	genreName := strings.TrimSpace(meta.Genre)
	if genreName == "" {
		genreName = "Fiction"
	}
	style := genre.CoverStyle(genre.Normalize(genreName))

	theme := ""
	if keywords := ThemeKeywords(meta.Description); len(keywords) > 0 {
		theme = "featuring " + strings.Join(keywords, ", ") + ", "
	}

	return fmt.Sprintf("Professional book cover for %s genre, %s%s, cinematic composition, atmospheric lighting, "+
		"detailed artwork, compelling visual storytelling, no text or words, symbolic imagery", genreName, theme, style)
}

// ThemeKeywords returns up to three theme words found in the first 150
// characters of description, in keyword-list order.
func ThemeKeywords(description string) []string {
	lower := strings.ToLower(textutil.FirstRunes(description, 150))
	var found []string
	for _, word := range themeWords {
		if strings.Contains(lower, word) {
			found = append(found, word)
			if len(found) == 3 {
				break
			}
		}
	}
	return found
}

// ChapterPrompt builds an illustration prompt for a chapter from its
// summary, or from its title when the summary is too short.
func ChapterPrompt(ch models.ChapterData, book models.BookContext) string {
	key := genre.Normalize(book.Genre)

	if summary := strings.TrimSpace(ch.Summary); textutil.Len(summary) > 15 {
		clean := strings.Trim(summary, " \"'[]")
		return fmt.Sprintf("%s, %s, detailed scene, cinematic composition, professional artwork, no text or words",
			clean, genre.IllustrationStyle(key))
	}

	style := genre.SceneStyle(key)
	if title := cleanChapterTitle(ch.Title, ch.Number); title != "" {
		return fmt.Sprintf("%s, %s, atmospheric scene, detailed composition, professional artwork, no text", title, style)
	}
	return fmt.Sprintf("Chapter %d scene, %s, compelling visual narrative, professional artwork", ch.Number, style)
}

func cleanChapterTitle(title string, number int) string {
	s := strings.ToLower(title)
	for _, remove := range []string{"chapter", strconv.Itoa(number), ":", "-", "."} {
		s = strings.ReplaceAll(s, remove, " ")
	}
	return textutil.CollapseSpace(s)
}

func buildCoverRequest(meta models.BookMetadata) string {
	return fmt.Sprintf(`Describe the artwork for a book cover so an image generator can paint it.

Book: %s
Author: %s
Genre: %s
About: %s

Answer with two or three sentences describing only what is visible in the picture.
Do not give instructions, do not mention the title or author (the image has no text),
do not add notes in brackets and do not add closing remarks.

Example: A misty forest at twilight with ancient oak trees and drifting fog, shadows between moonlit branches, dark fantasy atmosphere, painted cover art

Description:`, orUnknown(meta.Title), orUnknown(meta.Author), orUnknown(meta.Genre), textutil.FirstRunes(meta.Description, 200))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

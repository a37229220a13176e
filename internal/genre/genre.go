// Package genre maps free-text genres to a fixed set of keys and the
// visual styles used for each.
package genre

import "strings"

// Key is a normalized genre.
type Key string

const (
	Fiction        Key = "fiction"
	NonFiction     Key = "non_fiction"
	Mystery        Key = "mystery"
	ScienceFiction Key = "science_fiction"
	Fantasy        Key = "fantasy"
	Romance        Key = "romance"
	Thriller       Key = "thriller"
	Biography      Key = "biography"
	SelfHelp       Key = "self_help"
	History        Key = "history"
	Horror         Key = "horror"
	Other          Key = "other"
)

// keywords are checked in order; more specific phrases come before the
// general ones they contain ("science fiction" before "fiction").
var keywords = []struct {
	word string
	key  Key
}{
	{"non-fiction", NonFiction},
	{"nonfiction", NonFiction},
	{"non fiction", NonFiction},
	{"science fiction", ScienceFiction},
	{"sci-fi", ScienceFiction},
	{"scifi", ScienceFiction},
	{"self-help", SelfHelp},
	{"self help", SelfHelp},
	{"autobiography", Biography},
	{"biography", Biography},
	{"memoir", Biography},
	{"historical", History},
	{"history", History},
	{"mystery", Mystery},
	{"detective", Mystery},
	{"fantasy", Fantasy},
	{"romance", Romance},
	{"thriller", Thriller},
	{"suspense", Thriller},
	{"horror", Horror},
	{"literary fiction", Fiction},
	{"fiction", Fiction},
}

// Normalize maps a free-text genre such as "Sci-Fi Thriller" to a Key.
func Normalize(raw string) Key {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return Other
	}
	if k := Key(strings.ReplaceAll(lower, " ", "_")); IsKnown(k) {
		return k
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw.word) {
			return kw.key
		}
	}
	return Other
}

// IsKnown reports whether k is one of the defined keys.
func IsKnown(k Key) bool {
	_, ok := coverStyles[k]
	return ok
}

var coverStyles = map[Key]string{
	Fiction:        "literary novel cover with artistic composition, emotional depth, modern design",
	NonFiction:     "professional non-fiction book cover, clean typography space, authoritative design",
	Mystery:        "dark mysterious atmosphere with noir elements, shadows and intrigue, detective thriller style",
	ScienceFiction: "futuristic sci-fi landscape with cosmic elements, advanced technology, space atmosphere",
	Fantasy:        "epic fantasy scene with magical elements, mystical creatures, enchanted forest or castle",
	Romance:        "romantic atmosphere with warm lighting, emotional connection, soft dreamy aesthetic",
	Thriller:       "intense dramatic composition with high contrast, suspenseful mood, dark thriller aesthetic",
	Biography:      "historical portrait style with period details, documentary aesthetic, realistic composition",
	SelfHelp:       "uplifting inspirational design with positive energy, modern minimalist aesthetic, bright colors",
	History:        "historical accuracy with period appropriate details, vintage photograph style, documentary feel",
	Horror:         "dark horror atmosphere with eerie Gothic elements, supernatural mood, scary aesthetic",
	Other:          "professional artistic book cover, compelling visual narrative, high quality design",
}

var illustrationStyles = map[Key]string{
	Fiction:        "artistic book illustration, literary narrative style",
	NonFiction:     "documentary illustration, informative visual style",
	Mystery:        "noir illustration with mysterious shadows and atmosphere",
	ScienceFiction: "sci-fi concept art, futuristic detailed scene",
	Fantasy:        "fantasy art with magical atmosphere, epic composition",
	Romance:        "romantic illustration, emotional soft lighting",
	Thriller:       "dramatic intense illustration, high contrast suspense",
	Biography:      "historical illustration, realistic portrait style",
	SelfHelp:       "modern uplifting illustration, positive clean design",
	History:        "period-accurate historical illustration",
	Horror:         "dark horror art, eerie Gothic atmosphere",
	Other:          "professional book illustration",
}

var sceneStyles = map[Key]string{
	Fiction:        "artistic book illustration",
	NonFiction:     "informative documentary scene",
	Mystery:        "noir detective scene",
	ScienceFiction: "futuristic sci-fi scene",
	Fantasy:        "epic fantasy illustration",
	Romance:        "romantic scene",
	Thriller:       "intense dramatic scene",
	Biography:      "historical scene",
	SelfHelp:       "uplifting inspirational scene",
	History:        "period historical scene",
	Horror:         "dark horror scene",
	Other:          "book illustration",
}

// CoverStyle describes the look of a cover for the genre.
func CoverStyle(k Key) string {
	return lookup(coverStyles, k)
}

// IllustrationStyle describes the look of a summary-based chapter illustration.
func IllustrationStyle(k Key) string {
	return lookup(illustrationStyles, k)
}

// SceneStyle describes the look of a title-based chapter illustration.
func SceneStyle(k Key) string {
	return lookup(sceneStyles, k)
}

func lookup(table map[Key]string, k Key) string {
	if s, ok := table[k]; ok {
		return s
	}
	return table[Other]
}

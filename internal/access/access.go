// Package access decides which chapters a reader may open.
package access

// PreviewChapters is how many leading chapters of a premium book free-tier
// readers may open.
const PreviewChapters = 2

// Reader describes who is asking.
type Reader struct {
	Authenticated bool
	HasProfile    bool
	Premium       bool
}

// Tier names the reader's subscription level.
func (r Reader) Tier() string {
	switch {
	case !r.Authenticated || !r.HasProfile:
		return "anonymous"
	case r.Premium:
		return "premium"
	default:
		return "free"
	}
}

// CanAccessChapter reports whether reader may open chapter (1-based) of a
// book. Anonymous readers and readers without a profile only get free
// books. Premium readers get everything. Free-tier readers get free books
// and the first PreviewChapters chapters of premium ones.
func CanAccessChapter(reader Reader, bookIsFree bool, chapter int) bool {
	if !reader.Authenticated || !reader.HasProfile {
		return bookIsFree
	}
	if reader.Premium || bookIsFree {
		return true
	}
	return chapter >= 1 && chapter <= PreviewChapters
}

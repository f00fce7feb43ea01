// Package dedup drops content that was already seen (exact identity) or whose topic was
// covered recently (fuzzy keyword similarity against topic history).
package dedup

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/outlierlabs/digest-curator/internal/models"
)

// identityNamespace seeds the name-based UUIDs used as identity hashes. Never change it:
// persisted seen sets would stop matching.
var identityNamespace = uuid.MustParse("6f1c1e0a-4b7d-5c53-9a8e-2f0d6b1c9e47")

// HashSet is a set of identity hashes
type HashSet map[string]struct{}

// Has reports membership
func (s HashSet) Has(hash string) bool {
	_, ok := s[hash]
	return ok
}

// Add inserts hash
func (s HashSet) Add(hash string) {
	s[hash] = struct{}{}
}

// IdentityKey returns "source:chosen_id". The id is resolved as explicit id, then
// video/post alias, then topic slug plus date for search-style sources, then URL, then title.
func IdentityKey(item models.ContentItem) string {
	return item.Source + ":" + chosenID(item)
}

// IdentityHash returns a stable 128-bit digest of the item's identity
func IdentityHash(item models.ContentItem) string {
	return uuid.NewSHA1(identityNamespace, []byte(IdentityKey(item))).String()
}

// IsDuplicate reports whether item's identity is in seen
func IsDuplicate(item models.ContentItem, seen HashSet) bool {
	return seen.Has(IdentityHash(item))
}

// FilterDuplicates drops items already in seen and collapses repeated identities within
// items (first occurrence wins). seen is never modified. Dropped copies carry FilteredReason.
func FilterDuplicates(items []models.ContentItem, seen HashSet) (kept, dropped []models.ContentItem) {
	inRun := make(HashSet)

	for _, item := range items {
		hash := IdentityHash(item)
		switch {
		case seen.Has(hash):
			item.FilteredReason = "seen in a previous run"
			dropped = append(dropped, item)
		case inRun.Has(hash):
			item.FilteredReason = "duplicate within this run"
			dropped = append(dropped, item)
		default:
			inRun.Add(hash)
			kept = append(kept, item)
		}
	}

	return kept, dropped
}

func chosenID(item models.ContentItem) string {
	switch {
	case item.ID != "":
		return item.ID
	case item.VideoID != "":
		return item.VideoID
	case item.PostID != "":
		return item.PostID
	}

	if isSearchStyle(item.Source) {
		slug := item.TopicSlug
		if slug == "" {
			slug = Slugify(item.Title)
		}
		return slug + ":" + item.PublishedAt.UTC().Format("2006-01-02")
	}

	if item.URL != "" {
		return item.URL
	}
	return item.Title
}

func isSearchStyle(source string) bool {
	return source == models.SourceSearch || source == models.SourcePerplexity
}

// Slugify lowercases text and joins its alphanumeric runs with dashes
func Slugify(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

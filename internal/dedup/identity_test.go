package dedup

import (
	"testing"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityHash_Stability(t *testing.T) {
	item := models.ContentItem{Source: "reddit", ID: "abc"}

	first := IdentityHash(item)
	assert.Equal(t, first, IdentityHash(item))
	assert.Len(t, first, 36, "128-bit digest rendered as a UUID")

	assert.NotEqual(t, first, IdentityHash(models.ContentItem{Source: "youtube", ID: "abc"}))
	assert.Equal(t, first, IdentityHash(models.ContentItem{Source: "reddit", PostID: "abc"}))
}

func TestIdentityKey_Resolution(t *testing.T) {
	published := time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		item     models.ContentItem
		expected string
	}{
		{
			name:     "Explicit id wins over aliases",
			item:     models.ContentItem{Source: "youtube", ID: "x1", VideoID: "v1", PostID: "p1"},
			expected: "youtube:x1",
		},
		{
			name:     "Video alias before post alias",
			item:     models.ContentItem{Source: "youtube", VideoID: "v1", PostID: "p1"},
			expected: "youtube:v1",
		},
		{
			name:     "Post alias",
			item:     models.ContentItem{Source: "reddit", PostID: "p1", URL: "https://reddit.com/p1"},
			expected: "reddit:p1",
		},
		{
			name:     "Search result uses topic slug and date",
			item:     models.ContentItem{Source: "search", TopicSlug: "tiktok-shop-fees", PublishedAt: published},
			expected: "search:tiktok-shop-fees:2026-03-02",
		},
		{
			name:     "Search result slugifies the title when no slug",
			item:     models.ContentItem{Source: "perplexity", Title: "TikTok Shop: new fees!", PublishedAt: published},
			expected: "perplexity:tiktok-shop-new-fees:2026-03-02",
		},
		{
			name:     "URL surrogate",
			item:     models.ContentItem{Source: "twitter", URL: "https://x.com/i/status/1", Title: "t"},
			expected: "twitter:https://x.com/i/status/1",
		},
		{
			name:     "Title surrogate",
			item:     models.ContentItem{Source: "tiktok", Title: "Unboxing"},
			expected: "tiktok:Unboxing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IdentityKey(tt.item))
		})
	}
}

func TestFilterDuplicates(t *testing.T) {
	seenItem := models.ContentItem{Source: "reddit", ID: "old"}
	seen := HashSet{}
	seen.Add(IdentityHash(seenItem))

	pool := []models.ContentItem{
		{Source: "reddit", ID: "new1", Title: "first"},
		{Source: "reddit", ID: "old", Title: "seen before"},
		{Source: "reddit", PostID: "new1", Title: "same identity via alias"},
		{Source: "youtube", ID: "new1", Title: "same id other source"},
	}

	kept, dropped := FilterDuplicates(pool, seen)

	require.Len(t, kept, 2)
	assert.Equal(t, "first", kept[0].Title)
	assert.Equal(t, "same id other source", kept[1].Title)

	require.Len(t, dropped, 2)
	assert.Equal(t, "seen in a previous run", dropped[0].FilteredReason)
	assert.Equal(t, "duplicate within this run", dropped[1].FilteredReason)

	assert.Len(t, seen, 1, "seen set must not be mutated")
	assert.Empty(t, pool[1].FilteredReason, "input must not be mutated")
	assert.True(t, IsDuplicate(seenItem, seen))
	assert.False(t, IsDuplicate(pool[0], seen))
}

func TestFilterDuplicates_Idempotent(t *testing.T) {
	seen := HashSet{}
	seen.Add(IdentityHash(models.ContentItem{Source: "twitter", ID: "1"}))

	pool := []models.ContentItem{
		{Source: "twitter", ID: "1"},
		{Source: "twitter", ID: "2"},
		{Source: "twitter", ID: "2"},
		{Source: "tiktok", ID: "3"},
	}

	first, _ := FilterDuplicates(pool, seen)
	second, _ := FilterDuplicates(pool, seen)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "how-i-hit-10k-mrr", Slugify("How I hit $10k MRR"))
	assert.Equal(t, "", Slugify("!!!"))
}

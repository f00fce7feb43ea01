package history

import (
	"context"
	"testing"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*BlobStore)(nil)
)

var issueOneAt = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"blob":   NewBlobStore(storage.NewMemoryStorage()),
	}
}

func topics(texts []string, issue int, at time.Time) []models.TopicHistoryEntry {
	entries := make([]models.TopicHistoryEntry, 0, len(texts))
	for _, text := range texts {
		entries = append(entries, models.TopicHistoryEntry{
			TopicText:   text,
			IssueNumber: issue,
			Keywords:    []string{"kw"},
			Category:    "email",
			RecordedAt:  at,
		})
	}
	return entries
}

func topicTexts(entries []models.TopicHistoryEntry) []string {
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.TopicText)
	}
	return texts
}

func TestStore_AppendAndRecent(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx, topics([]string{"issue two a", "issue two b"}, 2, issueOneAt.AddDate(0, 0, 7))...))
			require.NoError(t, store.Append(ctx, topics([]string{"issue one"}, 1, issueOneAt)...))
			require.NoError(t, store.Append(ctx))

			all, err := store.Recent(ctx, time.Time{})
			require.NoError(t, err)
			assert.Equal(t, []string{"issue one", "issue two a", "issue two b"}, topicTexts(all))

			for _, entry := range all {
				assert.NotEmpty(t, entry.ID)
				assert.Equal(t, []string{"kw"}, entry.Keywords)
				assert.Equal(t, "email", entry.Category)
			}
			assert.True(t, all[0].RecordedAt.Equal(issueOneAt))

			recent, err := store.Recent(ctx, issueOneAt.AddDate(0, 0, 1))
			require.NoError(t, err)
			assert.Equal(t, []string{"issue two a", "issue two b"}, topicTexts(recent))
		})
	}
}

func TestStore_LatestIssue(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			latest, err := store.LatestIssue(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, latest)

			require.NoError(t, store.Append(ctx, topics([]string{"a"}, 7, issueOneAt)...))
			require.NoError(t, store.Append(ctx, topics([]string{"b"}, 3, issueOneAt)...))

			latest, err = store.LatestIssue(ctx)
			require.NoError(t, err)
			assert.Equal(t, 7, latest)
		})
	}
}

func TestStore_Compact(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			old := topics([]string{"old a"}, 1, issueOneAt)
			old = append(old, topics([]string{"old b"}, 1, issueOneAt)...)
			require.NoError(t, store.Append(ctx, old...))

			mixed := topics([]string{"stale"}, 2, issueOneAt.AddDate(0, 0, 1))
			mixed = append(mixed, topics([]string{"fresh"}, 2, issueOneAt.AddDate(0, 0, 30))...)
			require.NoError(t, store.Append(ctx, mixed...))

			removed, err := store.Compact(ctx, issueOneAt.AddDate(0, 0, 14))
			require.NoError(t, err)
			assert.Equal(t, 3, removed)

			remaining, err := store.Recent(ctx, time.Time{})
			require.NoError(t, err)
			assert.Equal(t, []string{"fresh"}, topicTexts(remaining))

			removed, err = store.Compact(ctx, issueOneAt.AddDate(0, 0, 14))
			require.NoError(t, err)
			assert.Equal(t, 0, removed)
		})
	}
}

func TestBlobStore_SkipsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Store("history/garbage.json", []byte("not json")))

	store := NewBlobStore(mem)
	require.NoError(t, store.Append(ctx, topics([]string{"kept"}, 4, issueOneAt)...))

	entries, err := store.Recent(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, topicTexts(entries))

	names, err := mem.List("history/")
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Contains(t, names[0], "history/20260105T090000Z-issue-0004-")
}

func TestBlobStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewBlobStore(storage.NewMemoryStorage())
	assert.ErrorIs(t, store.Append(ctx, topics([]string{"x"}, 1, issueOneAt)...), context.Canceled)
}

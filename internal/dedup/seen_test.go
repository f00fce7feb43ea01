package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(filename string, data []byte) error {
	args := m.Called(filename, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(filename string) ([]byte, error) {
	args := m.Called(filename)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) List(prefix string) ([]string, error) {
	args := m.Called(prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(filename string) error {
	args := m.Called(filename)
	return args.Error(0)
}

var seenNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func storeSnapshot(t *testing.T, store storage.StorageInterface, name string, items []models.ContentItem) {
	t.Helper()
	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, store.Store(name, data))
}

func seededStore(t *testing.T) *storage.MemoryStorage {
	store := storage.NewMemoryStorage()

	storeSnapshot(t, store, "content/reddit/2026-02-25.json", []models.ContentItem{
		{Source: "reddit", ID: "recent"},
	})
	storeSnapshot(t, store, "content/reddit/2025-12-01.json", []models.ContentItem{
		{Source: "reddit", ID: "expired"},
	})
	storeSnapshot(t, store, "content/reddit/legacy.json", []models.ContentItem{
		{Source: "reddit", ID: "legacy-recent", PublishedAt: seenNow.AddDate(0, 0, -3)},
		{Source: "reddit", ID: "legacy-old", PublishedAt: seenNow.AddDate(0, -6, 0)},
		{Source: "reddit", ID: "legacy-undated"},
	})
	storeSnapshot(t, store, "content/youtube/2026-03-01.json", []models.ContentItem{
		{VideoID: "vid1"},
	})
	require.NoError(t, store.Store("content/reddit/2026-03-01.json", []byte("{not json")))

	return store
}

func TestLoadSeenHashes(t *testing.T) {
	store := seededStore(t)
	cfg := DefaultConfig()

	seen, err := LoadSeenHashes(context.Background(), store, []string{"reddit", "youtube"}, cfg, seenNow)
	require.NoError(t, err)

	assert.True(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "recent"}, seen))
	assert.True(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "legacy-recent"}, seen))
	assert.True(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "legacy-undated"}, seen), "undated records fail open")
	assert.True(t, IsDuplicate(models.ContentItem{Source: "youtube", ID: "vid1"}, seen), "source inferred from snapshot path")

	assert.False(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "expired"}, seen))
	assert.False(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "legacy-old"}, seen))
	assert.Len(t, seen, 4)
}

func TestLoadSeenHashes_ExcludeUndated(t *testing.T) {
	store := seededStore(t)
	cfg := DefaultConfig()
	cfg.IncludeUndatedRecords = false

	seen, err := LoadSeenHashes(context.Background(), store, []string{"reddit"}, cfg, seenNow)
	require.NoError(t, err)

	assert.False(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "legacy-undated"}, seen))
	assert.True(t, IsDuplicate(models.ContentItem{Source: "reddit", ID: "legacy-recent"}, seen))
}

func TestLoadSeenHashes_StorageFailuresAreNotFatal(t *testing.T) {
	store := &MockStorage{}
	store.On("List", "content/reddit/").Return([]string{}, errors.New("throttled"))
	store.On("List", "content/twitter/").Return([]string{"content/twitter/2026-03-01.json"}, nil)
	store.On("Retrieve", "content/twitter/2026-03-01.json").Return([]byte(nil), errors.New("blob gone"))

	seen, err := LoadSeenHashes(context.Background(), store, []string{"reddit", "twitter"}, DefaultConfig(), seenNow)
	require.NoError(t, err)
	assert.Empty(t, seen)
	store.AssertExpectations(t)
}

func TestLoadSeenHashes_Cancelled(t *testing.T) {
	store := seededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadSeenHashes(ctx, store, []string{"reddit"}, DefaultConfig(), seenNow)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "content/tiktok/2026-03-02.json", SnapshotName("tiktok", seenNow))
}

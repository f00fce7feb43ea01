package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/sirupsen/logrus"
)

const historyPrefix = "history/"

// BlobStore keeps topic history as JSON documents in blob storage, one document per Append
type BlobStore struct {
	storage storage.StorageInterface
	mu      sync.Mutex
}

// NewBlobStore creates a history store on top of the given storage
func NewBlobStore(store storage.StorageInterface) *BlobStore {
	return &BlobStore{storage: store}
}

// Append writes entries as a single document named after the batch's recording time
func (b *BlobStore) Append(ctx context.Context, entries ...models.TopicHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]models.TopicHistoryEntry, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		batch[i] = entry
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history entries: %w", err)
	}

	name := fmt.Sprintf("%s%s-issue-%04d-%s.json",
		historyPrefix,
		batch[0].RecordedAt.UTC().Format("20060102T150405Z"),
		batch[0].IssueNumber,
		uuid.NewString()[:8],
	)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.storage.Store(name, data); err != nil {
		return fmt.Errorf("failed to store history document %s: %w", name, err)
	}

	logrus.Infof("Recorded %d topic history entries in %s", len(batch), name)
	return nil
}

// Recent returns entries recorded at or after since, oldest first
func (b *BlobStore) Recent(ctx context.Context, since time.Time) ([]models.TopicHistoryEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	var entries []models.TopicHistoryEntry
	for _, doc := range docs {
		for _, entry := range doc.entries {
			if !entry.RecordedAt.Before(since) {
				entries = append(entries, entry)
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	return entries, nil
}

// LatestIssue returns the highest recorded issue number, or 0 when empty
func (b *BlobStore) LatestIssue(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(ctx)
	if err != nil {
		return 0, err
	}

	latest := 0
	for _, doc := range docs {
		for _, entry := range doc.entries {
			if entry.IssueNumber > latest {
				latest = entry.IssueNumber
			}
		}
	}
	return latest, nil
}

// Compact removes entries recorded before the cutoff, rewriting or deleting documents as needed
func (b *BlobStore) Compact(ctx context.Context, before time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	docs, err := b.load(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range docs {
		var kept []models.TopicHistoryEntry
		for _, entry := range doc.entries {
			if entry.RecordedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}

		switch {
		case len(kept) == len(doc.entries):
			continue
		case len(kept) == 0:
			if err := b.storage.Delete(doc.name); err != nil {
				return removed, fmt.Errorf("failed to delete history document %s: %w", doc.name, err)
			}
		default:
			data, err := json.MarshalIndent(kept, "", "  ")
			if err != nil {
				return removed, fmt.Errorf("failed to marshal history entries: %w", err)
			}
			if err := b.storage.Store(doc.name, data); err != nil {
				return removed, fmt.Errorf("failed to rewrite history document %s: %w", doc.name, err)
			}
		}
	}

	logrus.Infof("Compacted topic history: removed %d entries recorded before %s", removed, before.Format("2006-01-02"))
	return removed, nil
}

// Close is a no-op; the underlying storage owns its connections
func (b *BlobStore) Close() error {
	return nil
}

type document struct {
	name    string
	entries []models.TopicHistoryEntry
}

func (b *BlobStore) load(ctx context.Context) ([]document, error) {
	names, err := b.storage.List(historyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list history documents: %w", err)
	}
	sort.Strings(names)

	docs := make([]document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := b.storage.Retrieve(name)
		if err != nil {
			logrus.Warnf("Skipping unreadable history document %s: %v", name, err)
			continue
		}

		var entries []models.TopicHistoryEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			logrus.Warnf("Skipping malformed history document %s: %v", name, err)
			continue
		}
		docs = append(docs, document{name: name, entries: entries})
	}
	return docs, nil
}

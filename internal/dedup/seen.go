package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var filenameDate = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// SnapshotPrefix is where a source's content snapshots live
func SnapshotPrefix(source string) string {
	return fmt.Sprintf("content/%s/", source)
}

// SnapshotName names the snapshot of a source's content for one day
func SnapshotName(source string, day time.Time) string {
	return SnapshotPrefix(source) + day.UTC().Format("2006-01-02") + ".json"
}

// LoadSeenHashes hashes every stored content record of the given sources that falls inside
// the trailing window. Membership comes from the snapshot filename date, else the record's
// PublishedAt; records with neither are included when cfg.IncludeUndatedRecords is set.
// Unreadable snapshots are logged and skipped. Only context cancellation is returned as an error.
func LoadSeenHashes(ctx context.Context, store storage.StorageInterface, sources []string, cfg Config, now time.Time) (HashSet, error) {
	cutoff := now.AddDate(0, 0, -7*cfg.SeenWeeksBack)

	var mu sync.Mutex
	seen := make(HashSet)

	g, ctx := errgroup.WithContext(ctx)
	for _, source := range sources {
		g.Go(func() error {
			hashes, err := loadSourceHashes(ctx, store, source, cutoff, cfg.IncludeUndatedRecords)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			for hash := range hashes {
				seen.Add(hash)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logrus.Infof("Loaded %d seen content hashes from %d sources (cutoff %s)", len(seen), len(sources), cutoff.Format("2006-01-02"))
	return seen, nil
}

func loadSourceHashes(ctx context.Context, store storage.StorageInterface, source string, cutoff time.Time, includeUndated bool) (HashSet, error) {
	hashes := make(HashSet)

	names, err := store.List(SnapshotPrefix(source))
	if err != nil {
		logrus.Warnf("Failed to list content snapshots for %s: %v", source, err)
		return hashes, nil
	}

	cutoffDay := cutoff.UTC().Format("2006-01-02")

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileDated := false
		if match := filenameDate.FindString(name); match != "" {
			if _, err := time.Parse("2006-01-02", match); err == nil {
				if match < cutoffDay {
					continue
				}
				fileDated = true
			}
		}

		data, err := store.Retrieve(name)
		if err != nil {
			logrus.Warnf("Skipping unreadable content snapshot %s: %v", name, err)
			continue
		}

		var items []models.ContentItem
		if err := json.Unmarshal(data, &items); err != nil {
			logrus.Warnf("Skipping malformed content snapshot %s: %v", name, err)
			continue
		}

		for _, item := range items {
			if item.Source == "" {
				item.Source = source
			}
			if !fileDated && !recordInWindow(item, cutoff, includeUndated) {
				continue
			}
			hashes.Add(IdentityHash(item))
		}
	}

	return hashes, nil
}

func recordInWindow(item models.ContentItem, cutoff time.Time, includeUndated bool) bool {
	if item.PublishedAt.IsZero() {
		return includeUndated
	}
	return !item.PublishedAt.Before(cutoff)
}

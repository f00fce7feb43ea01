// Package history persists the topics covered by finalized newsletter issues.
package history

import (
	"context"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
)

// Store defines the interface for topic history persistence.
// Entries are append-only; Recent returns them in recording order.
type Store interface {
	Append(ctx context.Context, entries ...models.TopicHistoryEntry) error
	Recent(ctx context.Context, since time.Time) ([]models.TopicHistoryEntry, error)
	LatestIssue(ctx context.Context) (int, error)
	Compact(ctx context.Context, before time.Time) (int, error)
	Close() error
}

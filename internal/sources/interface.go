package sources

import (
	"context"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
)

const userAgent = "Digest-Curator/1.0"

// Source interface defines the contract for all content sources
type Source interface {
	GetName() string
	FetchContent(ctx context.Context, topics []string, since time.Duration) ([]models.ContentItem, error)
	IsEnabled() bool
}

// deduplicate keeps the first item per source-local id
func deduplicate(items []models.ContentItem) []models.ContentItem {
	seen := make(map[string]bool)
	var unique []models.ContentItem

	for _, item := range items {
		key := item.Source + ":" + item.ID
		if !seen[key] {
			seen[key] = true
			unique = append(unique, item)
		}
	}

	return unique
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

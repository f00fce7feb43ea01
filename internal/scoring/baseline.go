package scoring

import (
	"errors"
	"strings"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// BaselineKey groups items that share a local baseline (same source and community)
func BaselineKey(item models.ContentItem) string {
	return item.Source + "/" + strings.ToLower(item.Community)
}

// PrimaryMetric returns the counter the source's formula divides by its baseline
func PrimaryMetric(item models.ContentItem) float64 {
	m := item.Metrics
	switch item.Source {
	case models.SourceReddit:
		return float64(nonNegative(m.Upvotes))
	case models.SourceTwitter:
		return float64(TwitterEngagement(m))
	case models.SourceTikTok:
		return float64(nonNegative(m.Plays))
	case models.SourceYouTube:
		return float64(nonNegative(m.Views))
	case models.SourceAmazon:
		return 0
	default:
		return float64(SearchEngagement(m))
	}
}

// ComputeBaselines averages the primary metric per baseline group.
// Groups averaging zero get no entry, so their items fail scoring instead of dividing by zero.
func ComputeBaselines(items []models.ContentItem) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, item := range items {
		if item.Source == models.SourceAmazon {
			continue
		}
		key := BaselineKey(item)
		sums[key] += PrimaryMetric(item)
		counts[key]++
	}

	baselines := make(map[string]float64, len(sums))
	for key, sum := range sums {
		if avg := sum / float64(counts[key]); avg > 0 {
			baselines[key] = avg
		}
	}
	return baselines
}

// ScoreAll scores every item against its group baseline and returns scored copies.
// Items with an invalid baseline are logged and left out; the count of skipped items is returned.
func (s *Scorer) ScoreAll(items []models.ContentItem, baselines map[string]float64, now time.Time) ([]models.ContentItem, int) {
	scored := make([]models.ContentItem, 0, len(items))
	skipped := 0

	for _, item := range items {
		score, err := s.Score(item, baselines[BaselineKey(item)], now)
		if err != nil {
			if errors.Is(err, ErrInvalidBaseline) {
				logrus.Warnf("Skipping %s item %q: %v", item.Source, item.Title, err)
			} else {
				logrus.Errorf("Failed to score %s item %q: %v", item.Source, item.Title, err)
			}
			skipped++
			continue
		}

		item.OutlierScore = score
		scored = append(scored, item)
	}

	return scored, skipped
}

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// FeedSource reads pre-scraped content from a JSON feed endpoint. TikTok, Amazon movers & shakers
// and web search results all arrive this way, already shaped as content items.
type FeedSource struct {
	name    string
	feedURL string
	client  *resty.Client
}

type feedResponse struct {
	Items []models.ContentItem `json:"items"`
}

// NewFeedSource creates a feed-backed source reporting itself as name
func NewFeedSource(name, feedURL string) *FeedSource {
	return &FeedSource{
		name:    name,
		feedURL: feedURL,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
	}
}

func (f *FeedSource) GetName() string {
	return f.name
}

func (f *FeedSource) IsEnabled() bool {
	return f.feedURL != ""
}

func (f *FeedSource) FetchContent(ctx context.Context, topics []string, since time.Duration) ([]models.ContentItem, error) {
	if !f.IsEnabled() {
		logrus.Debugf("%s feed disabled - no feed URL", f.name)
		return nil, nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("topics", strings.Join(topics, ",")).
		SetQueryParam("since", time.Now().Add(-since).UTC().Format(time.RFC3339)).
		Get(f.feedURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%s feed returned status %d", f.name, resp.StatusCode())
	}

	var feed feedResponse
	if err := json.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("failed to parse %s feed: %w", f.name, err)
	}

	cutoff := time.Now().Add(-since)
	var items []models.ContentItem

	for _, item := range feed.Items {
		if item.Source == "" {
			item.Source = f.name
		}
		if item.Source != f.name {
			logrus.Debugf("Dropping %s item from %s feed", item.Source, f.name)
			continue
		}
		// Undated feed items are kept; the scorer treats them as not recent
		if !item.PublishedAt.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}

	logrus.Infof("Found %d items in %s feed", len(items), f.name)
	return items, nil
}

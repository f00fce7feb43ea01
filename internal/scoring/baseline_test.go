package scoring

import (
	"testing"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBaselines(t *testing.T) {
	items := []models.ContentItem{
		{Source: models.SourceReddit, Community: "ecommerce", Metrics: models.EngagementMetrics{Upvotes: 100}},
		{Source: models.SourceReddit, Community: "Ecommerce", Metrics: models.EngagementMetrics{Upvotes: 300}},
		{Source: models.SourceReddit, Community: "shopify", Metrics: models.EngagementMetrics{Upvotes: 0}},
		{Source: models.SourceTwitter, Community: "founder", Metrics: models.EngagementMetrics{Likes: 90, Retweets: 10}},
		{Source: models.SourceAmazon, Metrics: models.EngagementMetrics{SalesRank: "#1"}},
	}

	baselines := ComputeBaselines(items)

	assert.Len(t, baselines, 2)
	assert.InDelta(t, 200.0, baselines["reddit/ecommerce"], 1e-9)
	assert.InDelta(t, 100.0, baselines["twitter/founder"], 1e-9)
	_, ok := baselines["reddit/shopify"]
	assert.False(t, ok, "all-zero group must not produce a baseline")
}

func TestScorer_ScoreAll(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	items := []models.ContentItem{
		{Source: models.SourceReddit, ID: "a", Community: "ecommerce", PublishedAt: daysAgo(30), Metrics: models.EngagementMetrics{Upvotes: 100}},
		{Source: models.SourceReddit, ID: "b", Community: "ecommerce", PublishedAt: daysAgo(30), Metrics: models.EngagementMetrics{Upvotes: 300}},
		{Source: models.SourceReddit, ID: "c", Community: "shopify", PublishedAt: daysAgo(30)},
		{Source: models.SourceAmazon, ID: "B0001", Metrics: models.EngagementMetrics{SalesRank: "#1", RankChange: "+1000%"}},
	}

	scored, skipped := scorer.ScoreAll(items, ComputeBaselines(items), refNow)

	assert.Equal(t, 1, skipped)
	require.Len(t, scored, 3)
	assert.Equal(t, "a", scored[0].ID)
	assert.InDelta(t, 0.5, scored[0].OutlierScore, 1e-9)
	assert.InDelta(t, 1.5, scored[1].OutlierScore, 1e-9)
	assert.InDelta(t, 7.3, scored[2].OutlierScore, 1e-9)

	assert.Zero(t, items[0].OutlierScore, "input items must not be mutated")
}

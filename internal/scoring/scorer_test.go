package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return refNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func TestScorer_RecencyBoost(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name     string
		age      float64
		expected float64
	}{
		{name: "Brand new", age: 0, expected: 1.3},
		{name: "Half window", age: 3.5, expected: 1.15},
		{name: "End of window", age: 7, expected: 1.0},
		{name: "Older than window", age: 30, expected: 1.0},
		{name: "Future clock skew", age: -2, expected: 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, scorer.RecencyBoost(daysAgo(tt.age), refNow), 1e-9)
		})
	}
}

func TestScorer_RecencyBoostBoundsAndMonotonic(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	previous := scorer.RecencyBoost(refNow, refNow)
	for hours := 0; hours <= 24*10; hours += 3 {
		boost := scorer.RecencyBoost(refNow.Add(-time.Duration(hours)*time.Hour), refNow)
		assert.GreaterOrEqual(t, boost, 1.0)
		assert.LessOrEqual(t, boost, 1.3)
		assert.LessOrEqual(t, boost, previous, "boost must not increase with age (%dh)", hours)
		previous = boost
	}
}

func TestScorer_ContentModifier(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{name: "No cues", text: "How to 10x your ROAS", expected: 1.0},
		{name: "Money only", text: "Our revenue doubled", expected: 1.3},
		{name: "Time only", text: "Set it up in minutes", expected: 1.2},
		{name: "Secrecy only", text: "The strategy nobody talks about", expected: 1.2},
		{name: "Controversy only", text: "Unpopular opinion: bundles are overrated", expected: 1.15},
		{name: "Money and time stack", text: "I made $10k in 30 days", expected: 1.5},
		{name: "Case insensitive", text: "SECRET PROFIT", expected: 1.5},
		{name: "All four categories", text: "Hot take: the secret to $1M is going fast", expected: 1.85},
		{name: "Repeated cue counts once", text: "money money money", expected: 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, scorer.ContentModifier(tt.text), 1e-9)
		})
	}
}

func TestScorer_ModifierKeywordMembership(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	assert.Equal(t, []string{"money"}, scorer.ModifierCategories("monthly mrr update"))
	assert.Equal(t, []string{"time"}, scorer.ModifierCategories("launched overnight"))
	assert.Equal(t, []string{"secrecy"}, scorer.ModifierCategories("an insider playbook"))
	assert.Equal(t, []string{"controversy"}, scorer.ModifierCategories("this is a scam"))
	assert.Empty(t, scorer.ModifierCategories("plain title"))
}

func TestScorer_InvalidBaseline(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	item := models.ContentItem{
		Source:      models.SourceReddit,
		PublishedAt: refNow,
		Metrics:     models.EngagementMetrics{Upvotes: 100},
	}

	for _, baseline := range []float64{0, -5} {
		_, err := scorer.Score(item, baseline, refNow)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidBaseline))

		var baselineErr *InvalidBaselineError
		require.True(t, errors.As(err, &baselineErr))
		assert.Equal(t, "reddit", baselineErr.Source)
		assert.Equal(t, baseline, baselineErr.Baseline)
	}

	score, err := scorer.Score(item, 100, refNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, score, 1e-9)
}

func TestScorer_RedditScenario(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	item := models.ContentItem{
		Source:      models.SourceReddit,
		ID:          "r1",
		Title:       "How to 10x your ROAS",
		PublishedAt: refNow,
		Metrics:     models.EngagementMetrics{Upvotes: 500},
	}

	score, err := scorer.Score(item, 100, refNow)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, score, 1e-9)
}

func TestScorer_NegativeCountersFloorAtZero(t *testing.T) {
	scorer := NewScorer(DefaultConfig())
	item := models.ContentItem{
		Source:      models.SourceReddit,
		PublishedAt: refNow,
		Metrics:     models.EngagementMetrics{Upvotes: -50},
	}

	score, err := scorer.Score(item, 100, refNow)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScorer_Twitter(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name     string
		metrics  models.EngagementMetrics
		expected float64
	}{
		{
			name:     "Quote boost inactive below 30 percent",
			metrics:  models.EngagementMetrics{Likes: 1000, Retweets: 100, Quotes: 10, Replies: 50},
			expected: 1.16,
		},
		{
			name:     "Quote boost active above 30 percent",
			metrics:  models.EngagementMetrics{Retweets: 100, Quotes: 40},
			expected: 1.4 * 1.3 / 10,
		},
		{
			name:     "Quarter of retweets does not boost",
			metrics:  models.EngagementMetrics{Retweets: 100, Quotes: 25},
			expected: 0.125,
		},
		{
			name:     "Quotes without retweets boost",
			metrics:  models.EngagementMetrics{Quotes: 5, Likes: 95},
			expected: 0.1 * 1.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseline := 1000.0
			item := models.ContentItem{
				Source:      models.SourceTwitter,
				PublishedAt: daysAgo(30),
				Metrics:     tt.metrics,
			}
			score, err := scorer.Score(item, baseline, refNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestScorer_TikTokCommerceBoost(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name     string
		item     models.ContentItem
		expected float64
	}{
		{
			name:     "Plain video ignores keyword modifiers",
			item:     models.ContentItem{Title: "The secret $ hack", Metrics: models.EngagementMetrics{Plays: 2000}},
			expected: 2.0,
		},
		{
			name:     "Seller flag",
			item:     models.ContentItem{Metrics: models.EngagementMetrics{Plays: 2000, IsSeller: true}},
			expected: 3.0,
		},
		{
			name:     "Sponsored flag",
			item:     models.ContentItem{Metrics: models.EngagementMetrics{Plays: 2000, IsSponsored: true}},
			expected: 3.0,
		},
		{
			name:     "Commerce keyword in description",
			item:     models.ContentItem{Summary: "Use code SPRING10 at checkout", Metrics: models.EngagementMetrics{Plays: 2000}},
			expected: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.Source = models.SourceTikTok
			tt.item.PublishedAt = daysAgo(10)
			score, err := scorer.Score(tt.item, 1000, refNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestScorer_Amazon(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	tests := []struct {
		name       string
		rank       string
		rankChange string
		expected   float64
	}{
		{name: "Top mover", rank: "#1", rankChange: "+1000%", expected: 7.3},
		{name: "Thousands separator", rank: "#10", rankChange: "+1,234%", expected: 8.9},
		{name: "Mid table", rank: "10", rankChange: "+50%", expected: 0.6},
		{name: "Unparsable rank is worst in category", rank: "n/a", rankChange: "+100%", expected: 0.7},
		{name: "Rank beyond category is worst", rank: "#250", rankChange: "", expected: 0},
		{name: "Negative velocity floors at zero", rank: "#100", rankChange: "-30%", expected: 0},
		{name: "Unparsable change is zero", rank: "#1", rankChange: "lots", expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := models.ContentItem{
				Source:  models.SourceAmazon,
				Metrics: models.EngagementMetrics{SalesRank: tt.rank, RankChange: tt.rankChange},
			}
			score, err := scorer.Score(item, 0, refNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestScorer_StretchSourceDiscount(t *testing.T) {
	scorer := NewScorer(DefaultConfig())

	search := models.ContentItem{
		Source:      models.SourceSearch,
		PublishedAt: daysAgo(30),
		Metrics:     models.EngagementMetrics{Views: 60, Likes: 30, Comments: 10},
	}
	score, err := scorer.Score(search, 100, refNow)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 1e-9)

	youtube := models.ContentItem{
		Source:      models.SourceYouTube,
		PublishedAt: daysAgo(30),
		Metrics:     models.EngagementMetrics{Views: 100},
	}
	score, err = scorer.Score(youtube, 100, refNow)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScorer_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRecencyBoost = 2.0
	cfg.DecayDays = 2
	cfg.Modifiers = []Modifier{{Category: "launch", Weight: 0.5, Keywords: []string{"launch"}}}
	scorer := NewScorer(cfg)

	assert.InDelta(t, 1.5, scorer.RecencyBoost(daysAgo(1), refNow), 1e-9)
	assert.InDelta(t, 1.5, scorer.ContentModifier("Product launch recap"), 1e-9)
	assert.InDelta(t, 1.0, scorer.ContentModifier("I made $10k"), 1e-9)
}

func TestScorer_RecencyBoostWithoutDecayWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayDays = 0
	scorer := NewScorer(cfg)

	assert.InDelta(t, 1.3, scorer.RecencyBoost(refNow, refNow), 1e-9, "age zero always gets the maximum")
	assert.InDelta(t, 1.3, scorer.RecencyBoost(daysAgo(-1), refNow), 1e-9)
	assert.InDelta(t, 1.0, scorer.RecencyBoost(daysAgo(0.5), refNow), 1e-9)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 3.0, parseNumber("#3", 100))
	assert.Equal(t, 1234.0, parseNumber("+1,234%", 0))
	assert.Equal(t, -12.5, parseNumber("-12.5%", 0))
	assert.Equal(t, 100.0, parseNumber("", 100))
	assert.Equal(t, 0.0, parseNumber("unknown", 0))
}

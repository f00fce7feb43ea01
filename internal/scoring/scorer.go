// Package scoring turns raw engagement counters into a comparable outlier score.
//
// A score of k means "k times the local baseline" for that source; scores are only comparable
// within one run.
package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/rules"
)

// Scorer computes outlier scores. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	config    Config
	modifiers []modifier
	stretch   map[string]bool
}

type modifier struct {
	category string
	weight   float64
	matcher  *rules.Matcher
}

// NewScorer creates a scorer for the given policy
func NewScorer(cfg Config) *Scorer {
	s := &Scorer{
		config:  cfg,
		stretch: make(map[string]bool),
	}

	for _, m := range cfg.Modifiers {
		s.modifiers = append(s.modifiers, modifier{
			category: m.Category,
			weight:   m.Weight,
			matcher:  rules.RuleSet{{Label: m.Category, Keywords: m.Keywords}}.Compile(),
		})
	}

	for _, src := range cfg.StretchSources {
		s.stretch[strings.ToLower(src)] = true
	}

	return s
}

// Score dispatches to the source-specific formula and applies the stretch-source discount.
// Amazon items are scored from rank signals alone and ignore baseline.
func (s *Scorer) Score(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	var (
		score float64
		err   error
	)

	switch item.Source {
	case models.SourceReddit:
		score, err = s.ScoreReddit(item, baseline, now)
	case models.SourceTwitter:
		score, err = s.ScoreTwitter(item, baseline, now)
	case models.SourceTikTok:
		score, err = s.ScoreTikTok(item, baseline, now)
	case models.SourceYouTube:
		score, err = s.ScoreYouTube(item, baseline, now)
	case models.SourceAmazon:
		score = s.ScoreAmazon(item)
	default:
		score, err = s.ScoreSearch(item, baseline, now)
	}

	if err != nil {
		return 0, err
	}

	if s.stretch[item.Source] {
		score *= s.config.StretchDiscount
	}

	return score, nil
}

// ScoreReddit scores by upvotes
func (s *Scorer) ScoreReddit(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	if err := validateBaseline(item.Source, baseline); err != nil {
		return 0, err
	}
	ratio := ratio(item.Metrics.Upvotes, baseline)
	return ratio * s.RecencyBoost(item.PublishedAt, now) * s.ContentModifier(item.Text()), nil
}

// ScoreTwitter scores by total engagement with a boost when quotes outpace retweets
func (s *Scorer) ScoreTwitter(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	if err := validateBaseline(item.Source, baseline); err != nil {
		return 0, err
	}

	m := item.Metrics
	score := ratio(TwitterEngagement(m), baseline) * s.RecencyBoost(item.PublishedAt, now) * s.ContentModifier(item.Text())
	if s.quoteBoostActive(m) {
		score *= s.config.QuoteBoost
	}
	return score, nil
}

// ScoreTikTok scores by play count. Commerce videos get a flat boost instead of keyword modifiers.
func (s *Scorer) ScoreTikTok(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	if err := validateBaseline(item.Source, baseline); err != nil {
		return 0, err
	}

	score := ratio(item.Metrics.Plays, baseline) * s.RecencyBoost(item.PublishedAt, now)
	if s.IsCommerce(item) {
		score *= s.config.CommerceBoost
	}
	return score, nil
}

// ScoreYouTube scores by view count
func (s *Scorer) ScoreYouTube(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	if err := validateBaseline(item.Source, baseline); err != nil {
		return 0, err
	}
	return ratio(item.Metrics.Views, baseline) * s.RecencyBoost(item.PublishedAt, now) * s.ContentModifier(item.Text()), nil
}

// ScoreSearch scores search-style results by whatever engagement they carry
func (s *Scorer) ScoreSearch(item models.ContentItem, baseline float64, now time.Time) (float64, error) {
	if err := validateBaseline(item.Source, baseline); err != nil {
		return 0, err
	}
	return ratio(SearchEngagement(item.Metrics), baseline) * s.RecencyBoost(item.PublishedAt, now) * s.ContentModifier(item.Text()), nil
}

// ScoreAmazon blends rank position and rank velocity, rounded to one decimal.
// There is no recency or keyword term: both signals are point-in-time.
func (s *Scorer) ScoreAmazon(item models.ContentItem) float64 {
	size := float64(s.config.AmazonCategorySize)
	if size <= 0 {
		size = 100
	}

	position := parseNumber(item.Metrics.SalesRank, size)
	if position < 1 || position > size {
		position = size
	}
	positionScore := (size - position) / size * s.config.AmazonPositionWeight

	velocity := math.Max(parseNumber(item.Metrics.RankChange, 0), 0)
	velocityScore := velocity / 100 * s.config.AmazonVelocityWeight

	return math.Round((positionScore+velocityScore)*10) / 10
}

// RecencyBoost decays linearly from MaxRecencyBoost at age zero to 1.0 at DecayDays.
// Future timestamps get the maximum boost.
func (s *Scorer) RecencyBoost(published, now time.Time) float64 {
	maxBoost := s.config.MaxRecencyBoost
	ageDays := now.Sub(published).Hours() / 24
	if ageDays <= 0 {
		return maxBoost
	}
	if s.config.DecayDays <= 0 {
		return 1.0
	}
	return maxBoost - (maxBoost-1)*math.Min(ageDays, s.config.DecayDays)/s.config.DecayDays
}

// ContentModifier returns 1.0 plus the weight of every modifier category text hits
func (s *Scorer) ContentModifier(text string) float64 {
	sum := 0.0
	for _, m := range s.modifiers {
		if m.matcher.Any(text) {
			sum += m.weight
		}
	}
	return 1.0 + sum
}

// ModifierCategories lists the modifier categories text hits, in table order
func (s *Scorer) ModifierCategories(text string) []string {
	var categories []string
	for _, m := range s.modifiers {
		if m.matcher.Any(text) {
			categories = append(categories, m.category)
		}
	}
	return categories
}

// IsCommerce reports whether a TikTok video shows commerce indicators
func (s *Scorer) IsCommerce(item models.ContentItem) bool {
	if item.Metrics.IsSeller || item.Metrics.IsSponsored {
		return true
	}
	return rules.ContainsAny(item.Summary, s.config.CommerceKeywords)
}

func (s *Scorer) quoteBoostActive(m models.EngagementMetrics) bool {
	quotes := math.Max(float64(m.Quotes), 0)
	retweets := math.Max(float64(m.Retweets), 0)
	return quotes > 0 && quotes > s.config.QuoteRatioThreshold*retweets
}

// TwitterEngagement sums likes, retweets, quotes and replies
func TwitterEngagement(m models.EngagementMetrics) int64 {
	return nonNegative(m.Likes) + nonNegative(m.Retweets) + nonNegative(m.Quotes) + nonNegative(m.Replies)
}

// SearchEngagement sums views, likes and comments
func SearchEngagement(m models.EngagementMetrics) int64 {
	return nonNegative(m.Views) + nonNegative(m.Likes) + nonNegative(m.Comments)
}

func validateBaseline(source string, baseline float64) error {
	if baseline <= 0 || math.IsNaN(baseline) {
		return &InvalidBaselineError{Source: source, Baseline: baseline}
	}
	return nil
}

func ratio(metric int64, baseline float64) float64 {
	return float64(nonNegative(metric)) / baseline
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// parseNumber strips "#", "+", "," and "%" before parsing; unparsable input yields fallback
func parseNumber(raw string, fallback float64) float64 {
	cleaned := strings.NewReplacer("#", "", "+", "", ",", "", "%", "", " ", "").Replace(raw)
	if cleaned == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

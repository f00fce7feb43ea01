// Package selection assigns scored content to the three newsletter slots.
package selection

import (
	"sort"
	"strings"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/rules"
	"github.com/sirupsen/logrus"
)

// Selector fills the tactical, narrative and quote slots from a scored pool
type Selector struct {
	config    Config
	tactical  *rules.Matcher
	narrative *rules.Matcher
	quotable  *rules.Matcher
}

// NewSelector creates a selector for the given tables
func NewSelector(cfg Config) *Selector {
	if cfg.MinSources <= 0 {
		cfg.MinSources = 2
	}
	return &Selector{
		config:    cfg,
		tactical:  cfg.Tactical.Compile(),
		narrative: cfg.Narrative.Compile(),
		quotable:  cfg.Quotable.Compile(),
	}
}

// IsTactical reports whether the item reads as actionable advice
func (s *Selector) IsTactical(item models.ContentItem) bool {
	return s.tactical.Any(item.Text())
}

// IsNarrative reports whether the item reads as a story, case study or lesson
func (s *Selector) IsNarrative(item models.ContentItem) bool {
	return s.narrative.Any(item.Text())
}

// IsQuotable reports whether the item has a short title or quote-worthy signals
func (s *Selector) IsQuotable(item models.ContentItem) bool {
	words := len(strings.Fields(item.Title))
	if words > 0 && words <= s.config.QuoteMaxTitleWords {
		return true
	}
	return s.quotable.Any(item.Text())
}

// Select assigns slots. The pool is not modified; slots point at copies.
// The quote slot may reuse an item already assigned to another slot.
func (s *Selector) Select(pool []models.ContentItem) models.ContentSelection {
	var selection models.ContentSelection
	if len(pool) == 0 {
		selection.SourcesUsed = []string{}
		return selection
	}

	sorted := make([]models.ContentItem, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OutlierScore > sorted[j].OutlierScore
	})

	consumed := make([]bool, len(sorted))
	take := func(i int) *models.ContentItem {
		consumed[i] = true
		item := sorted[i]
		return &item
	}

	// Tactical
	if i := s.find(sorted, consumed, func(item models.ContentItem) bool { return s.IsTactical(item) }); i >= 0 {
		selection.Tactical = take(i)
	} else if i := s.find(sorted, consumed, nil); i >= 0 {
		selection.Tactical = take(i)
	}

	tacticalSource := ""
	if selection.Tactical != nil {
		tacticalSource = selection.Tactical.Source
	}

	// Narrative: diverse narrative, then any narrative, then any item flagged for reframing
	if i := s.find(sorted, consumed, func(item models.ContentItem) bool {
		return item.Source != tacticalSource && s.IsNarrative(item)
	}); i >= 0 {
		selection.Narrative = take(i)
	} else if i := s.find(sorted, consumed, func(item models.ContentItem) bool { return s.IsNarrative(item) }); i >= 0 {
		selection.Narrative = take(i)
	} else if i := s.find(sorted, consumed, nil); i >= 0 {
		selection.Narrative = take(i)
		selection.Narrative.DifferentAngleNeeded = true
	}

	// Quote ignores the consumed set
	quote := sorted[0]
	for _, item := range sorted {
		if s.IsQuotable(item) {
			quote = item
			break
		}
	}
	selection.Quote = &quote

	selection.SourcesUsed = sourcesUsed(selection)

	if len(selection.SourcesUsed) < s.config.MinSources && len(pool) > 1 {
		if i := s.find(sorted, consumed, func(item models.ContentItem) bool {
			return item.Source != tacticalSource
		}); i >= 0 {
			replacement := take(i)
			replacement.DifferentAngleNeeded = !s.IsNarrative(*replacement)
			logrus.Debugf("Replacing narrative slot with %s item for source diversity", replacement.Source)
			selection.Narrative = replacement
			selection.SourcesUsed = sourcesUsed(selection)
		}
	}

	return selection
}

// find returns the index of the first unconsumed item matching pred, or -1. A nil pred matches anything.
func (s *Selector) find(sorted []models.ContentItem, consumed []bool, pred func(models.ContentItem) bool) int {
	for i, item := range sorted {
		if consumed[i] {
			continue
		}
		if pred == nil || pred(item) {
			return i
		}
	}
	return -1
}

func sourcesUsed(selection models.ContentSelection) []string {
	sources := []string{}
	seen := make(map[string]bool)
	for _, item := range selection.Slots() {
		if item.Source == "" || seen[item.Source] {
			continue
		}
		seen[item.Source] = true
		sources = append(sources, item.Source)
	}
	return sources
}

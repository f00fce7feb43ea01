package dedup

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/outlierlabs/digest-curator/internal/models"
)

// TopicMatcher detects content whose topic was covered recently.
// Similarity is keyword Jaccard plus a flat bonus when both texts fall in the same category.
type TopicMatcher struct {
	config     Config
	stopWords  map[string]struct{}
	categories []category
}

type category struct {
	name    string
	words   map[string]struct{}
	phrases []string
}

// TopicMatch explains why an item was considered covered
type TopicMatch struct {
	Entry      models.TopicHistoryEntry
	Similarity float64
}

// NewTopicMatcher creates a matcher for the given policy
func NewTopicMatcher(cfg Config) *TopicMatcher {
	m := &TopicMatcher{
		config:    cfg,
		stopWords: make(map[string]struct{}, len(cfg.StopWords)),
	}

	for _, w := range cfg.StopWords {
		m.stopWords[strings.ToLower(w)] = struct{}{}
	}

	for _, c := range cfg.Categories {
		cat := category{name: c.Name, words: make(map[string]struct{})}
		for _, syn := range c.Synonyms {
			syn = strings.ToLower(strings.TrimSpace(syn))
			if syn == "" {
				continue
			}
			if len(tokenize(syn)) > 1 {
				cat.phrases = append(cat.phrases, strings.Join(tokenize(syn), " "))
			} else {
				cat.words[syn] = struct{}{}
			}
		}
		m.categories = append(m.categories, cat)
	}

	return m
}

// Keywords returns the sorted, unique significant words of text
func (m *TopicMatcher) Keywords(text string) []string {
	set := m.keywordSet(text)
	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

// Category returns the first category whose synonyms appear in text, or ""
func (m *TopicMatcher) Category(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}
	padded := " " + strings.Join(tokens, " ") + " "

	for _, c := range m.categories {
		for w := range c.words {
			if _, ok := tokenSet[w]; ok {
				return c.name
			}
		}
		for _, p := range c.phrases {
			if strings.Contains(padded, " "+p+" ") {
				return c.name
			}
		}
	}
	return ""
}

// Similarity scores two texts in [0, 1]. It is symmetric.
func (m *TopicMatcher) Similarity(a, b string) float64 {
	return m.similarity(m.keywordSet(a), m.keywordSet(b), m.Category(a), m.Category(b))
}

// CheckTopicCovered compares text with history entries recorded inside the lookback window
// and returns the first entry at or above the threshold, in history order.
func (m *TopicMatcher) CheckTopicCovered(text string, history []models.TopicHistoryEntry, now time.Time) (bool, *TopicMatch) {
	cutoff := now.AddDate(0, 0, -7*m.config.LookbackWeeks)
	keywords := m.keywordSet(text)
	cat := m.Category(text)

	for _, entry := range history {
		if entry.RecordedAt.Before(cutoff) {
			continue
		}

		entryKeywords := make(map[string]struct{}, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			entryKeywords[strings.ToLower(kw)] = struct{}{}
		}
		if len(entryKeywords) == 0 {
			entryKeywords = m.keywordSet(entry.TopicText)
		}

		entryCategory := entry.Category
		if entryCategory == "" {
			entryCategory = m.Category(entry.TopicText)
		}

		if sim := m.similarity(keywords, entryKeywords, cat, entryCategory); sim >= m.config.SimilarityThreshold {
			return true, &TopicMatch{Entry: entry, Similarity: sim}
		}
	}

	return false, nil
}

// FilterCovered drops items whose topic is covered by history. Dropped copies carry FilteredReason.
func (m *TopicMatcher) FilterCovered(items []models.ContentItem, history []models.TopicHistoryEntry, now time.Time) (kept, dropped []models.ContentItem) {
	for _, item := range items {
		covered, match := m.CheckTopicCovered(item.Text(), history, now)
		if !covered {
			kept = append(kept, item)
			continue
		}
		item.FilteredReason = fmt.Sprintf("topic covered in issue %d: %s (similarity %.2f)", match.Entry.IssueNumber, match.Entry.TopicText, match.Similarity)
		dropped = append(dropped, item)
	}
	return kept, dropped
}

// NewEntry builds the history record for a finalized topic
func (m *TopicMatcher) NewEntry(topic string, issue int, recordedAt time.Time) models.TopicHistoryEntry {
	return models.TopicHistoryEntry{
		TopicText:   topic,
		IssueNumber: issue,
		Keywords:    m.Keywords(topic),
		Category:    m.Category(topic),
		RecordedAt:  recordedAt,
	}
}

// NewItemEntry records a selected item. The topic text is its title while keywords and category
// come from the same title plus summary text that FilterCovered compares against.
func (m *TopicMatcher) NewItemEntry(item models.ContentItem, issue int, recordedAt time.Time) models.TopicHistoryEntry {
	topic := item.Title
	if topic == "" {
		topic = item.Summary
	}

	text := item.Text()
	return models.TopicHistoryEntry{
		TopicText:   topic,
		IssueNumber: issue,
		Keywords:    m.Keywords(text),
		Category:    m.Category(text),
		RecordedAt:  recordedAt,
	}
}

func (m *TopicMatcher) similarity(a, b map[string]struct{}, catA, catB string) float64 {
	score := jaccard(a, b)
	if catA != "" && catA == catB {
		score += m.config.CategoryBonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func (m *TopicMatcher) keywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) < m.config.MinTokenLength {
			continue
		}
		if _, stop := m.stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

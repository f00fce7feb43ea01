package models

import "time"

// Known content sources
const (
	SourceReddit     = "reddit"
	SourceYouTube    = "youtube"
	SourceTwitter    = "twitter"
	SourceTikTok     = "tiktok"
	SourceAmazon     = "amazon"
	SourcePerplexity = "perplexity"
	SourceSearch     = "search"
)

// ContentItem represents one piece of source content flowing through the pipeline
type ContentItem struct {
	Source      string    `json:"source"`
	ID          string    `json:"id,omitempty"`
	PostID      string    `json:"post_id,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	TopicSlug   string    `json:"topic_slug,omitempty"` // search-style sources without an id
	Community   string    `json:"community,omitempty"`  // subreddit, hashtag, channel or account
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	Metrics EngagementMetrics `json:"metrics"`

	OutlierScore float64     `json:"outlier_score"`
	Virality     *Annotation `json:"virality,omitempty"`

	// Informational only; set when the deduplicator or selector explains a decision.
	FilteredReason       string `json:"_filtered_reason,omitempty"`
	DifferentAngleNeeded bool   `json:"_different_angle_needed,omitempty"`
}

// EngagementMetrics holds the raw platform counters. Missing counters are zero.
type EngagementMetrics struct {
	Upvotes  int64 `json:"upvotes,omitempty"`
	Comments int64 `json:"comments,omitempty"`
	Views    int64 `json:"views,omitempty"`
	Plays    int64 `json:"plays,omitempty"`
	Likes    int64 `json:"likes,omitempty"`
	Retweets int64 `json:"retweets,omitempty"`
	Quotes   int64 `json:"quotes,omitempty"`
	Replies  int64 `json:"replies,omitempty"`

	// Amazon movers & shakers values arrive string encoded ("#3", "+1,234%").
	SalesRank  string `json:"sales_rank,omitempty"`
	RankChange string `json:"rank_change,omitempty"`

	IsSeller    bool `json:"is_seller,omitempty"`
	IsSponsored bool `json:"is_sponsored,omitempty"`
}

// Text returns the analysed text of an item: title followed by summary
func (c ContentItem) Text() string {
	if c.Summary == "" {
		return c.Title
	}
	if c.Title == "" {
		return c.Summary
	}
	return c.Title + " " + c.Summary
}

// TopicHistoryEntry is a topic covered by a finalized newsletter issue. Entries are never mutated.
type TopicHistoryEntry struct {
	ID          string    `json:"id"`
	TopicText   string    `json:"topic_text"`
	IssueNumber int       `json:"issue_number"`
	Keywords    []string  `json:"keywords"`
	Category    string    `json:"category,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ContentSelection assigns at most one item to each newsletter slot
type ContentSelection struct {
	Quote       *ContentItem `json:"slot_quote"`
	Tactical    *ContentItem `json:"slot_tactical"`
	Narrative   *ContentItem `json:"slot_narrative"`
	SourcesUsed []string     `json:"sources_used"`
}

// Slots returns the filled slots in quote, tactical, narrative order
func (s ContentSelection) Slots() []*ContentItem {
	var slots []*ContentItem
	for _, item := range []*ContentItem{s.Quote, s.Tactical, s.Narrative} {
		if item != nil {
			slots = append(slots, item)
		}
	}
	return slots
}

// Annotation is the structured virality metadata attached to an item
type Annotation struct {
	HookType          string             `json:"hook_type"`
	AttentionElements []string           `json:"attention_elements"`
	EmotionalTriggers []EmotionalTrigger `json:"emotional_triggers"`
	Confidence        string             `json:"confidence"`
	ReplicationNotes  string             `json:"replication_notes"`
}

// EmotionalTrigger is one detected emotional lever with the keywords that evidenced it
type EmotionalTrigger struct {
	Name      string   `json:"name"`
	Evidence  []string `json:"evidence"`
	Intensity string   `json:"intensity"` // "low", "medium", "high"
}

// Digest is what gets delivered after a curation run
type Digest struct {
	GeneratedAt time.Time         `json:"generated_at"`
	IssueNumber int               `json:"issue_number"`
	PoolSize    int               `json:"pool_size"`
	Selection   ContentSelection  `json:"selection"`
	Sections    map[string]string `json:"sections,omitempty"` // drafted prose keyed by slot name
	Summary     map[string]int    `json:"summary"`            // items per source in the pool
}

package dedup

// Category maps a broad topic bucket to the words and phrases that signal it
type Category struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// Config holds the deduplication policy
type Config struct {
	// Exact dedup
	SeenWeeksBack         int  `yaml:"seen_weeks_back"`
	IncludeUndatedRecords bool `yaml:"include_undated_records"`

	// Topic dedup
	SimilarityThreshold float64    `yaml:"similarity_threshold"`
	CategoryBonus       float64    `yaml:"category_bonus"`
	LookbackWeeks       int        `yaml:"lookback_weeks"`
	MinTokenLength      int        `yaml:"min_token_length"`
	StopWords           []string   `yaml:"stop_words"`
	Categories          []Category `yaml:"categories"`
}

// DefaultConfig returns the production deduplication policy
func DefaultConfig() Config {
	return Config{
		SeenWeeksBack:         4,
		IncludeUndatedRecords: true,
		SimilarityThreshold:   0.4,
		CategoryBonus:         0.2,
		LookbackWeeks:         6,
		MinTokenLength:        3,
		StopWords: []string{
			"the", "and", "for", "your", "you", "with", "that", "this", "from", "are", "was", "were",
			"how", "what", "why", "who", "when", "will", "can", "our", "his", "her", "they", "them",
			"have", "has", "had", "into", "about", "just", "get", "got", "not", "but", "all", "any",
			"out", "more", "most", "than", "then", "its", "these", "those", "there", "here", "been",
			"being", "did", "does", "doing", "over", "under", "very", "much", "some", "such", "only",
			"own", "same", "too", "should", "would", "could", "which", "while", "their", "my",
		},
		Categories: []Category{
			{Name: "email", Synonyms: []string{"email", "emails", "newsletter", "klaviyo", "inbox", "subject line", "welcome flow"}},
			{Name: "ads", Synonyms: []string{"ads", "roas", "cpm", "cpc", "ctr", "ad spend", "facebook ads", "meta ads", "creative testing"}},
			{Name: "ugc", Synonyms: []string{"ugc", "creator", "creators", "influencer", "influencers", "user-generated"}},
			{Name: "retention", Synonyms: []string{"retention", "churn", "repeat purchase", "loyalty", "ltv", "subscription", "subscriptions"}},
			{Name: "social_dm", Synonyms: []string{"dm", "dms", "direct message", "instagram", "outreach"}},
			{Name: "seo", Synonyms: []string{"seo", "google search", "keywords", "backlinks", "organic traffic"}},
			{Name: "pricing", Synonyms: []string{"pricing", "price", "discount", "bundle", "bundles", "aov"}},
		},
	}
}

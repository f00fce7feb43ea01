package scoring

// Modifier is one content-modifier category: any keyword hit adds Weight to the modifier sum
type Modifier struct {
	Category string   `yaml:"category"`
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Config holds the tunable scoring policy
type Config struct {
	MaxRecencyBoost float64 `yaml:"max_recency_boost"`
	DecayDays       float64 `yaml:"decay_days"`

	Modifiers []Modifier `yaml:"modifiers"`

	QuoteBoost          float64 `yaml:"quote_boost"`
	QuoteRatioThreshold float64 `yaml:"quote_ratio_threshold"`

	CommerceBoost    float64  `yaml:"commerce_boost"`
	CommerceKeywords []string `yaml:"commerce_keywords"`

	AmazonPositionWeight float64 `yaml:"amazon_position_weight"`
	AmazonVelocityWeight float64 `yaml:"amazon_velocity_weight"`
	AmazonCategorySize   int     `yaml:"amazon_category_size"`

	StretchSources  []string `yaml:"stretch_sources"`
	StretchDiscount float64  `yaml:"stretch_discount"`
}

// DefaultConfig returns the production scoring policy
func DefaultConfig() Config {
	return Config{
		MaxRecencyBoost: 1.3,
		DecayDays:       7,
		Modifiers: []Modifier{
			{
				Category: "money",
				Weight:   0.30,
				Keywords: []string{"$", "revenue", "profit", "income", "money", "mrr", "cash", "per month", "/mo", "paid"},
			},
			{
				Category: "time",
				Weight:   0.20,
				Keywords: []string{"overnight", "minutes", "hours", "in days", "in a week", "30 days", "fast", "quick", "instantly"},
			},
			{
				Category: "secrecy",
				Weight:   0.20,
				Keywords: []string{"secret", "nobody", "no one", "hidden", "little-known", "insider", "behind the scenes", "gatekeep"},
			},
			{
				Category: "controversy",
				Weight:   0.15,
				Keywords: []string{"unpopular opinion", "controversial", "overrated", "scam", "myth", "hot take", "truth about", "stop doing"},
			},
		},
		QuoteBoost:          1.3,
		QuoteRatioThreshold: 0.3,
		CommerceBoost:       1.5,
		CommerceKeywords: []string{
			"tiktok shop", "link in bio", "shop now", "use code", "discount code", "affiliate", "#ad", "#sponsored", "add to cart",
		},
		AmazonPositionWeight: 0.3,
		AmazonVelocityWeight: 0.7,
		AmazonCategorySize:   100,
		StretchSources:       []string{"search", "perplexity"},
		StretchDiscount:      0.8,
	}
}

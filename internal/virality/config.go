package virality

import "github.com/outlierlabs/digest-curator/internal/rules"

// Config holds the virality lexicons. Rule order is priority order for hook types.
type Config struct {
	HookTypes         rules.RuleSet `yaml:"hook_types"`
	AttentionElements rules.RuleSet `yaml:"attention_elements"`
	EmotionalTriggers rules.RuleSet `yaml:"emotional_triggers"`

	// Fallback hook type when no rule matches
	DefaultHookType string `yaml:"default_hook_type"`

	Separator        string `yaml:"separator"`
	FallbackNotes    string `yaml:"fallback_notes"`
	HighIntensityMin int    `yaml:"high_intensity_min"`
}

// DefaultConfig returns the production lexicons
func DefaultConfig() Config {
	return Config{
		HookTypes: rules.RuleSet{
			{Label: "question", Pattern: `\?|^(why|what|who|when|is|are|do|does|can|should|would)\b`},
			{Label: "number", Pattern: `^\W*\d|\b\d+\s*(ways|tips|steps|things|reasons|mistakes|lessons|products|tools)\b`},
			{Label: "controversy", Keywords: []string{"unpopular opinion", "controversial", "overrated", "hot take", "stop doing", "nobody talks about", "the truth about", "myth"}},
			{Label: "story", Keywords: []string{"i quit", "i started", "my first", "went from", "story", "journey", "when i", "years ago"}},
		},
		AttentionElements: rules.RuleSet{
			{Label: "money", Keywords: []string{"$", "revenue", "profit", "mrr", "income", "sales"}},
			{Label: "exclusivity", Keywords: []string{"secret", "exclusive", "insider", "nobody", "little-known", "hidden", "only"}},
			{Label: "speed", Keywords: []string{"overnight", "in days", "in a week", "fast", "quick", "instantly", "minutes", "hours"}},
			{Label: "specificity", Pattern: `\d`},
		},
		EmotionalTriggers: rules.RuleSet{
			{Label: "fear", Keywords: []string{"mistake", "risk", "lose", "lost", "fail", "warning", "avoid", "scam", "banned"}},
			{Label: "greed", Keywords: []string{"$", "profit", "revenue", "rich", "income", "money", "mrr", "earned"}},
			{Label: "curiosity", Keywords: []string{"secret", "why", "surprising", "nobody", "hidden", "truth", "?"}},
			{Label: "urgency", Keywords: []string{"right now", "today", "before it", "deadline", "last chance", "hurry", "ending soon"}},
			{Label: "fomo", Keywords: []string{"everyone", "trend", "viral", "missing out", "sold out", "waitlist", "all the rage"}},
			{Label: "hope", Keywords: []string{"finally", "possible", "dream", "success", "freedom", "changed my life", "anyone can"}},
		},
		DefaultHookType:  "statement",
		Separator:        " | ",
		FallbackNotes:    "No clear replication pattern identified",
		HighIntensityMin: 3,
	}
}

package selection

import "github.com/outlierlabs/digest-curator/internal/rules"

// Config holds the slot classification tables
type Config struct {
	Tactical  rules.RuleSet `yaml:"tactical"`
	Narrative rules.RuleSet `yaml:"narrative"`
	Quotable  rules.RuleSet `yaml:"quotable"`

	// Titles with at most this many words count as short and punchy
	QuoteMaxTitleWords int `yaml:"quote_max_title_words"`
	MinSources         int `yaml:"min_sources"`
}

// DefaultConfig returns the production slot classification tables
func DefaultConfig() Config {
	return Config{
		Tactical: rules.RuleSet{
			{Label: "how-to", Keywords: []string{"how to", "how i ", "how we ", "step-by-step", "step by step", "guide", "tutorial", "playbook"}},
			{Label: "strategy", Keywords: []string{"strategy", "strategies", "framework", "system", "template", "checklist"}},
			{Label: "steps", Keywords: []string{"steps", "step 1", "tips", "tip:", "hacks", "tactics"}},
			{Label: "result", Pattern: `\b(increased|doubled|tripled|grew|boosted|scaled|cut|reduced)\b`},
		},
		Narrative: rules.RuleSet{
			{Label: "case-study", Keywords: []string{"case study", "breakdown", "teardown", "behind the scenes"}},
			{Label: "story", Keywords: []string{"story", "my first", "i quit", "i started", "went from"}},
			{Label: "journey", Keywords: []string{"journey", "year one", "years in", "from zero", "from 0"}},
			{Label: "lesson", Keywords: []string{"lesson", "learned", "learnings", "what i wish"}},
			{Label: "failure", Keywords: []string{"failure", "failed", "mistake", "went wrong", "lost", "shut down"}},
		},
		Quotable: rules.RuleSet{
			{Label: "currency", Pattern: `[$€£]\s?\d`},
			{Label: "number", Pattern: `\d`},
			{Label: "quote", Keywords: []string{"\"", "“", "”", "said", "quote"}},
		},
		QuoteMaxTitleWords: 6,
		MinSources:         2,
	}
}

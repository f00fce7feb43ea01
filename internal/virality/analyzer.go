// Package virality annotates content with the structural reasons it may have spread.
package virality

import (
	"fmt"
	"strings"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/outlierlabs/digest-curator/internal/rules"
)

// Confidence tiers by outlier score
const (
	ConfidenceDefinite = "definite"
	ConfidenceLikely   = "likely"
	ConfidencePossible = "possible"
	ConfidenceUnclear  = "unclear"
)

// Intensity tiers by evidence count
const (
	IntensityHigh   = "high"
	IntensityMedium = "medium"
	IntensityLow    = "low"
)

// Analyzer produces virality annotations. It is stateless after construction.
type Analyzer struct {
	config    Config
	hooks     *rules.Matcher
	attention *rules.Matcher
	triggers  *rules.Matcher
}

// NewAnalyzer creates an analyzer for the given lexicons
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.DefaultHookType == "" {
		cfg.DefaultHookType = "statement"
	}
	if cfg.HighIntensityMin < 2 {
		cfg.HighIntensityMin = 3
	}
	return &Analyzer{
		config:    cfg,
		hooks:     cfg.HookTypes.Compile(),
		attention: cfg.AttentionElements.Compile(),
		triggers:  cfg.EmotionalTriggers.Compile(),
	}
}

// Annotate analyses the item's title and summary. Missing text is treated as empty.
func (a *Analyzer) Annotate(item models.ContentItem) models.Annotation {
	text := strings.TrimSpace(item.Text())

	annotation := models.Annotation{
		HookType:          a.HookType(item.Title),
		AttentionElements: a.attention.Labels(text),
		EmotionalTriggers: a.EmotionalTriggers(text),
		Confidence:        Confidence(item.OutlierScore),
	}
	if annotation.AttentionElements == nil {
		annotation.AttentionElements = []string{}
	}
	annotation.ReplicationNotes = a.replicationNotes(annotation)

	return annotation
}

// AnnotateAll returns copies of items with Virality set
func (a *Analyzer) AnnotateAll(items []models.ContentItem) []models.ContentItem {
	annotated := make([]models.ContentItem, len(items))
	for i, item := range items {
		annotation := a.Annotate(item)
		item.Virality = &annotation
		annotated[i] = item
	}
	return annotated
}

// HookType classifies the opening of a title; the first matching rule wins
func (a *Analyzer) HookType(title string) string {
	if label, ok := a.hooks.First(strings.TrimSpace(title)); ok {
		return label
	}
	return a.config.DefaultHookType
}

// EmotionalTriggers lists the triggers evidenced in text, in lexicon order
func (a *Analyzer) EmotionalTriggers(text string) []models.EmotionalTrigger {
	evidence := a.triggers.Evidence(text)
	triggers := []models.EmotionalTrigger{}
	for _, label := range a.triggers.Labels(text) {
		hits := evidence[label]
		if len(hits) == 0 {
			continue
		}
		triggers = append(triggers, models.EmotionalTrigger{
			Name:      label,
			Evidence:  hits,
			Intensity: a.intensity(len(hits)),
		})
	}
	return triggers
}

// Confidence bands an outlier score
func Confidence(score float64) string {
	switch {
	case score >= 10:
		return ConfidenceDefinite
	case score >= 5:
		return ConfidenceLikely
	case score >= 3:
		return ConfidencePossible
	default:
		return ConfidenceUnclear
	}
}

func (a *Analyzer) intensity(matches int) string {
	switch {
	case matches >= a.config.HighIntensityMin:
		return IntensityHigh
	case matches >= 2:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

func (a *Analyzer) replicationNotes(annotation models.Annotation) string {
	var parts []string

	if annotation.HookType != a.config.DefaultHookType {
		parts = append(parts, fmt.Sprintf("%s hook", annotation.HookType))
	}
	if len(annotation.AttentionElements) > 0 {
		parts = append(parts, "attention: "+strings.Join(annotation.AttentionElements, ", "))
	}
	if len(annotation.EmotionalTriggers) > 0 {
		names := make([]string, 0, len(annotation.EmotionalTriggers))
		for _, t := range annotation.EmotionalTriggers {
			names = append(names, fmt.Sprintf("%s (%s)", t.Name, t.Intensity))
		}
		parts = append(parts, "triggers: "+strings.Join(names, ", "))
	}

	if len(parts) == 0 {
		return a.config.FallbackNotes
	}
	return strings.Join(parts, a.config.Separator)
}

package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
)

// Slot names, shared with the digest's Sections map
const (
	SlotQuote     = "quote"
	SlotTactical  = "tactical"
	SlotNarrative = "narrative"
)

const systemPrompt = `You write short sections of a weekly newsletter for e-commerce operators.
The voice is direct and concrete: numbers over adjectives, no hype, no filler.
For each slot you are given, write one paragraph of at most 80 words:
- quote: a one-line hook pulled from or inspired by the item, then one sentence on why it matters.
- tactical: what the operator did and the steps a reader can copy.
- narrative: the story arc and the lesson.
When an item is marked "reframe", do not retell it as a story; find the angle that fits the slot.
Respond with a JSON object whose keys are the slot names you were given and whose values are the paragraphs.`

// Generator drafts prose for the filled slots of a selection
type Generator interface {
	DraftSections(ctx context.Context, selection models.ContentSelection) (map[string]string, error)
}

// Drafter drafts all slots of a selection in one completion
type Drafter struct {
	client Client
}

// Ensure Drafter implements Generator
var _ Generator = (*Drafter)(nil)

// NewDrafter creates a drafter on top of a text-generation client
func NewDrafter(client Client) *Drafter {
	return &Drafter{client: client}
}

// DraftSections returns one paragraph per filled slot, keyed by slot name. An empty selection
// makes no call and returns an empty map.
func (d *Drafter) DraftSections(ctx context.Context, selection models.ContentSelection) (map[string]string, error) {
	sections := make(map[string]string)

	prompt := BuildPrompt(selection)
	if prompt == "" {
		return sections, nil
	}

	content, err := d.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to draft sections: %w", err)
	}

	var parsed map[string]string
	content = cleanJSONResponse(content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}

	for _, slot := range filledSlots(selection) {
		text := strings.TrimSpace(parsed[slot.name])
		if text == "" {
			logrus.Warnf("Generation returned no text for the %s slot", slot.name)
			continue
		}
		sections[slot.name] = text
	}

	return sections, nil
}

type namedSlot struct {
	name string
	item *models.ContentItem
}

func filledSlots(selection models.ContentSelection) []namedSlot {
	var slots []namedSlot
	for _, slot := range []namedSlot{
		{SlotQuote, selection.Quote},
		{SlotTactical, selection.Tactical},
		{SlotNarrative, selection.Narrative},
	} {
		if slot.item != nil {
			slots = append(slots, slot)
		}
	}
	return slots
}

// BuildPrompt renders the filled slots as the user prompt. It is empty when no slot is filled.
func BuildPrompt(selection models.ContentSelection) string {
	slots := filledSlots(selection)
	if len(slots) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Draft these newsletter slots.\n")
	for _, slot := range slots {
		item := slot.item
		fmt.Fprintf(&b, "\n[%s]\n", slot.name)
		fmt.Fprintf(&b, "Title: %s\n", item.Title)
		fmt.Fprintf(&b, "Source: %s (outlier score %.2f)\n", item.Source, item.OutlierScore)
		if item.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
		}
		if item.URL != "" {
			fmt.Fprintf(&b, "URL: %s\n", item.URL)
		}
		if item.Virality != nil {
			fmt.Fprintf(&b, "Why it spread: %s\n", item.Virality.ReplicationNotes)
		}
		if item.DifferentAngleNeeded {
			b.WriteString("Note: reframe, this item is not a story\n")
		}
	}
	return b.String()
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Models sometimes wrap the object in prose
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

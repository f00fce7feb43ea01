package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	response string
	err      error
	calls    int
	system   string
	prompt   string
}

func (f *fakeClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	return f.response, f.err
}

func testSelection() models.ContentSelection {
	return models.ContentSelection{
		Quote: &models.ContentItem{Source: "twitter", Title: "$40k in 30 days", OutlierScore: 6.5},
		Tactical: &models.ContentItem{
			Source:       "reddit",
			Title:        "How I doubled AOV with bundles",
			Summary:      "Step by step bundle setup",
			URL:          "https://reddit.com/r/shopify/abc",
			OutlierScore: 4.25,
			Virality:     &models.Annotation{ReplicationNotes: "question hook | attention: money"},
		},
		Narrative: &models.ContentItem{
			Source:               "youtube",
			Title:                "Top 10 tools",
			OutlierScore:         3,
			DifferentAngleNeeded: true,
		},
		SourcesUsed: []string{"twitter", "reddit", "youtube"},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testSelection())

	assert.Contains(t, prompt, "[quote]\nTitle: $40k in 30 days\nSource: twitter (outlier score 6.50)\n")
	assert.Contains(t, prompt, "Summary: Step by step bundle setup\n")
	assert.Contains(t, prompt, "URL: https://reddit.com/r/shopify/abc\n")
	assert.Contains(t, prompt, "Why it spread: question hook | attention: money\n")
	assert.Contains(t, prompt, "[narrative]\nTitle: Top 10 tools\nSource: youtube (outlier score 3.00)\nNote: reframe")

	assert.Less(t, strings.Index(prompt, "[quote]"), strings.Index(prompt, "[tactical]"))
	assert.Less(t, strings.Index(prompt, "[tactical]"), strings.Index(prompt, "[narrative]"))

	assert.Empty(t, BuildPrompt(models.ContentSelection{}))
}

func TestDrafter_DraftSections(t *testing.T) {
	client := &fakeClient{response: "Here you go:\n```json\n{\"quote\": \" Hook. \", \"tactical\": \"Steps.\", \"narrative\": \"Story.\", \"extra\": \"ignored\"}\n```"}
	drafter := NewDrafter(client)

	sections, err := drafter.DraftSections(context.Background(), testSelection())
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, systemPrompt, client.system)
	assert.Equal(t, map[string]string{
		SlotQuote:     "Hook.",
		SlotTactical:  "Steps.",
		SlotNarrative: "Story.",
	}, sections)
}

func TestDrafter_MissingSlotTextIsOmitted(t *testing.T) {
	client := &fakeClient{response: `{"tactical": "Steps.", "narrative": ""}`}

	sections, err := NewDrafter(client).DraftSections(context.Background(), testSelection())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{SlotTactical: "Steps."}, sections)
}

func TestDrafter_EmptySelection(t *testing.T) {
	client := &fakeClient{}

	sections, err := NewDrafter(client).DraftSections(context.Background(), models.ContentSelection{})
	require.NoError(t, err)
	assert.Empty(t, sections)
	assert.Zero(t, client.calls)
}

func TestDrafter_Errors(t *testing.T) {
	boom := errors.New("overloaded")

	tests := []struct {
		name    string
		client  *fakeClient
		wantErr string
	}{
		{
			name:    "Client error is wrapped",
			client:  &fakeClient{err: boom},
			wantErr: "failed to draft sections",
		},
		{
			name:    "Unparseable response",
			client:  &fakeClient{response: "I cannot help with that"},
			wantErr: "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDrafter(tt.client).DraftSections(context.Background(), testSelection())
			assert.ErrorContains(t, err, tt.wantErr)
			if tt.client.err != nil {
				assert.ErrorIs(t, err, boom)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":"b"}`, want: `{"a":"b"}`},
		{in: "```json\n{\"a\":\"b\"}\n```", want: `{"a":"b"}`},
		{in: "Sure! {\"a\":\"b\"} Hope that helps.", want: `{"a":"b"}`},
		{in: "no json", want: "no json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanJSONResponse(tt.in))
	}
}

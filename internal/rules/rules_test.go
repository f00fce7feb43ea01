package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_FirstRespectsOrder(t *testing.T) {
	m := RuleSet{
		{Label: "question", Keywords: []string{"?"}},
		{Label: "number", Pattern: `\d`},
		{Label: "statement", Pattern: `.`},
	}.Compile()

	tests := []struct {
		text     string
		expected string
	}{
		{"Why did 3 stores fail?", "question"},
		{"3 stores that failed", "number"},
		{"Stores fail", "statement"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			label, ok := m.First(tt.text)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, label)
		})
	}

	_, ok := m.First("")
	assert.False(t, ok)
}

func TestMatcher_LabelsAndEvidence(t *testing.T) {
	m := RuleSet{
		{Label: "greed", Keywords: []string{"profit", "rich"}},
		{Label: "fear", Keywords: []string{"mistake"}},
		{Label: "hope", Keywords: []string{"finally"}},
	}.Compile()

	text := "The PROFIT mistake that made me rich"

	assert.Equal(t, []string{"greed", "fear"}, m.Labels(text))
	assert.Equal(t, map[string][]string{
		"greed": {"profit", "rich"},
		"fear":  {"mistake"},
	}, m.Evidence(text))
	assert.True(t, m.Any(text))
	assert.False(t, m.Any("nothing here"))
}

func TestCompile_InvalidPatternIgnored(t *testing.T) {
	m := RuleSet{{Label: "broken", Pattern: "(["}}.Compile()
	assert.False(t, m.Any("(["))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Link in BIO", []string{"link in bio"}))
	assert.False(t, ContainsAny("anything", []string{""}))
	assert.False(t, ContainsAny("anything", nil))
}

// Package rules holds the ordered keyword/pattern tables used by every text heuristic.
// Matching is case-insensitive and purely lexical: no stemming, no NLP.
package rules

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Rule labels text that contains any of its keywords or matches its pattern
type Rule struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Pattern  string   `yaml:"pattern,omitempty"`
}

// RuleSet is an ordered rule list; earlier rules win
type RuleSet []Rule

// Matcher is a compiled RuleSet
type Matcher struct {
	rules []compiledRule
}

type compiledRule struct {
	label    string
	keywords []string
	pattern  *regexp.Regexp
}

// Compile lowercases keywords and compiles patterns. Invalid patterns are logged and ignored.
func (rs RuleSet) Compile() *Matcher {
	m := &Matcher{rules: make([]compiledRule, 0, len(rs))}
	for _, r := range rs {
		cr := compiledRule{label: r.Label}
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(kw); kw != "" {
				cr.keywords = append(cr.keywords, kw)
			}
		}
		if r.Pattern != "" {
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				logrus.Warnf("Ignoring invalid pattern for rule %q: %v", r.Label, err)
			} else {
				cr.pattern = re
			}
		}
		m.rules = append(m.rules, cr)
	}
	return m
}

// First returns the label of the first rule matching text
func (m *Matcher) First(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range m.rules {
		if r.matches(lower) {
			return r.label, true
		}
	}
	return "", false
}

// Any reports whether any rule matches text
func (m *Matcher) Any(text string) bool {
	_, ok := m.First(text)
	return ok
}

// Labels returns every matching label in rule order
func (m *Matcher) Labels(text string) []string {
	lower := strings.ToLower(text)
	var labels []string
	for _, r := range m.rules {
		if r.matches(lower) {
			labels = append(labels, r.label)
		}
	}
	return labels
}

// Evidence returns, per label, the keywords found in text. Labels with no hit are absent.
func (m *Matcher) Evidence(text string) map[string][]string {
	lower := strings.ToLower(text)
	evidence := make(map[string][]string)
	for _, r := range m.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				evidence[r.label] = append(evidence[r.label], kw)
			}
		}
		if r.pattern != nil {
			if hit := r.pattern.FindString(lower); hit != "" {
				evidence[r.label] = append(evidence[r.label], hit)
			}
		}
	}
	return evidence
}

func (r compiledRule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return r.pattern != nil && r.pattern.MatchString(lower)
}

// ContainsAny reports whether text contains any keyword, case-insensitively
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

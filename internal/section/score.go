// Package section splits normalized documents into scored sections and
// packs them into byte-bounded excerpts.
package section

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// DefaultScore is assigned to sections whose title matches no rule.
const DefaultScore = 10

// Rule maps a heading-title pattern to a relevance score. Patterns are
// compared against normalized titles (lowercase, punctuation stripped,
// whitespace collapsed). A trailing '*' makes the pattern a prefix
// match; otherwise it matches anywhere in the title.
type Rule struct {
	Match string `yaml:"match"`
	Score int    `yaml:"score"`
}

// DefaultRules returns the built-in scoring table. Order is
// significant: the first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{Match: "install*", Score: 100},
		{Match: "quickstart", Score: 90},
		{Match: "getting started", Score: 90},
		{Match: "usage", Score: 80},
		{Match: "example*", Score: 80},
		{Match: "api reference", Score: 70},
		{Match: "reference", Score: 70},
		{Match: "configuration", Score: 50},
	}
}

// LoadRules reads a scoring table from a YAML file holding a bare list
// of {match, score} entries in priority order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring rules: %w", err)
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse scoring rules %s: %w", path, err)
	}

	for i, rule := range rules {
		if strings.TrimSpace(rule.Match) == "" {
			return nil, fmt.Errorf("scoring rules %s: rule %d has an empty match pattern", path, i)
		}
	}

	return rules, nil
}

// Score returns the relevance score for a section title, using the
// first rule that matches. Unmatched titles get DefaultScore.
func Score(title string, rules []Rule) int {
	normalized := normalizeTitle(title)
	for _, rule := range rules {
		if matchesRule(normalized, rule.Match) {
			return rule.Score
		}
	}
	return DefaultScore
}

func matchesRule(normalizedTitle, pattern string) bool {
	prefix := strings.HasSuffix(pattern, "*")
	pattern = normalizeTitle(strings.TrimSuffix(pattern, "*"))
	if pattern == "" {
		return false
	}

	if prefix {
		return strings.HasPrefix(normalizedTitle, pattern)
	}
	return strings.Contains(normalizedTitle, pattern)
}

// normalizeTitle lowercases a title, replaces punctuation with spaces,
// and collapses whitespace runs, so "Getting  Started!" and "getting
// started" compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

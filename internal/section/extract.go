package section

import (
	"strings"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// Extractor splits a normalized document into sections along its
// heading index and scores each section's title against a rule table.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor. With no rules the built-in table
// applies.
func NewExtractor(rules []Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Extract returns one section per heading, in document order. A
// document with no headings yields a single untitled section holding
// the full text. Text before the first heading is folded into the
// first section's body, so concatenating bodies in document order
// reconstructs the document minus its heading lines.
func (e *Extractor) Extract(doc *domain.NormalizedDocument) []domain.Section {
	if doc == nil {
		return []domain.Section{{Score: Score("", e.rules)}}
	}

	text := doc.PlainText
	if len(doc.Headings) == 0 {
		return []domain.Section{{
			Body:  text,
			Score: Score("", e.rules),
		}}
	}

	sections := make([]domain.Section, 0, len(doc.Headings))
	for i, heading := range doc.Headings {
		start := clamp(heading.Offset, 0, len(text))

		// The body starts after the heading line itself.
		bodyStart := len(text)
		if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
			bodyStart = start + nl + 1
		}

		bodyEnd := len(text)
		if i+1 < len(doc.Headings) {
			bodyEnd = clamp(doc.Headings[i+1].Offset, bodyStart, len(text))
		}

		body := text[bodyStart:bodyEnd]
		if i == 0 && start > 0 {
			body = text[:start] + body
		}

		sections = append(sections, domain.Section{
			Title:      heading.Title,
			Body:       body,
			Level:      heading.Level,
			Score:      Score(heading.Title, e.rules),
			OrderIndex: i,
		})
	}

	return sections
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

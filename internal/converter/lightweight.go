package converter

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// Pre-compiled patterns for flattening inline markup
var (
	headingRegex       = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	imageRegex         = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRegex          = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	boldAsterisksRegex = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicAsterisks    = regexp.MustCompile(`\*([^*]+)\*`)
	boldUnderscores    = regexp.MustCompile(`__([^_]+)__`)
	codeSpanRegex      = regexp.MustCompile("`([^`]*)`")
	listMarkerRegex    = regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+`)
	blockquoteRegex    = regexp.MustCompile(`^\s*>\s?`)
	horizontalRule     = regexp.MustCompile(`^[-*_]{3,}$`)
)

// normalizeLightweight converts markdown-like text into plain text and
// collects the heading index. Heading lines are kept in the output with
// their ATX markers so sections can be cut at heading boundaries; code
// fence contents pass through untouched; fence markers, frontmatter and
// horizontal rules are dropped.
//
// The walk never fails. Broken markup just flattens less.
func normalizeLightweight(text string) *domain.NormalizedDocument {
	text = stripFrontmatter(text)
	if strings.TrimSpace(text) == "" {
		return &domain.NormalizedDocument{PlainText: "", Headings: []domain.Heading{}}
	}

	var b strings.Builder
	b.Grow(len(text))
	headings := []domain.Heading{}

	inFence := false
	var fenceChar byte

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if inFence {
			if marker := fenceMarker(trimmed); marker == fenceChar {
				inFence = false
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}

		if marker := fenceMarker(trimmed); marker != 0 {
			inFence = true
			fenceChar = marker
			continue
		}

		// Indented code blocks are content; leave them verbatim
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}

		if m := headingRegex.FindStringSubmatch(trimmed); m != nil {
			level := len(m[1])
			title := flattenInline(strings.TrimSpace(m[2]))
			// Closed ATX form: "## Title ##"
			title = strings.TrimSpace(strings.TrimRight(title, "#"))
			if title != "" {
				headings = append(headings, domain.Heading{
					Title:  title,
					Offset: b.Len(),
					Level:  level,
				})
				b.WriteString(m[1])
				b.WriteByte(' ')
				b.WriteString(title)
				b.WriteByte('\n')
				continue
			}
		}

		if horizontalRule.MatchString(trimmed) {
			continue
		}

		line = blockquoteRegex.ReplaceAllString(line, "")
		line = listMarkerRegex.ReplaceAllString(line, "$1")
		b.WriteString(flattenInline(line))
		b.WriteByte('\n')
	}

	return &domain.NormalizedDocument{
		PlainText: b.String(),
		Headings:  headings,
	}
}

// fenceMarker reports the code fence delimiter a line opens or closes,
// or 0 if the line is not a fence.
func fenceMarker(trimmed string) byte {
	if strings.HasPrefix(trimmed, "```") {
		return '`'
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return '~'
	}
	return 0
}

// flattenInline removes inline markup from a line, keeping the text.
// Single-underscore emphasis is left alone on purpose: stripping it
// corrupts snake_case identifiers, which documentation is full of.
func flattenInline(line string) string {
	line = imageRegex.ReplaceAllString(line, "$1")
	line = linkRegex.ReplaceAllString(line, "$1")
	line = boldAsterisksRegex.ReplaceAllString(line, "$1")
	line = italicAsterisks.ReplaceAllString(line, "$1")
	line = boldUnderscores.ReplaceAllString(line, "$1")
	line = codeSpanRegex.ReplaceAllString(line, "$1")
	return line
}

// stripFrontmatter removes a leading YAML frontmatter block. The block
// must open with "---" on the first line, close with another "---", and
// parse as YAML; otherwise the text is returned unchanged.
func stripFrontmatter(text string) string {
	trimmed := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(trimmed, "---\n") && trimmed != "---" {
		return text
	}

	rest := strings.TrimPrefix(trimmed, "---")
	rest = strings.TrimPrefix(rest, "\n")

	lines := strings.Split(rest, "\n")
	closingIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			closingIdx = i
			break
		}
	}
	if closingIdx == -1 {
		return text
	}

	yamlContent := strings.Join(lines[:closingIdx], "\n")
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil || fm == nil {
		return text
	}

	return strings.Join(lines[closingIdx+1:], "\n")
}

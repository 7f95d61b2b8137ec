package converter

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// markupPipeline turns HTML into markdown: extract the main content,
// sanitize it, convert to markdown. The markdown then goes through the
// lightweight walk like any other markdown document.
type markupPipeline struct {
	extractor *ExtractContent
}

func newMarkupPipeline() *markupPipeline {
	return &markupPipeline{
		extractor: NewExtractContent(""),
	}
}

// ToMarkdown converts an HTML document to markdown. The second return
// value reports whether any of the conversion stages succeeded; when it
// is false the caller should fall back to treating the input as plain
// text.
func (p *markupPipeline) ToMarkdown(html, sourceURL string) (string, bool) {
	content, title, err := p.extractor.Extract(html, sourceURL)
	if err != nil {
		content = html
	}

	sanitizer := NewSanitizer(SanitizerOptions{
		BaseURL:          sourceURL,
		RemoveNavigation: true,
		RemoveComments:   true,
	})
	sanitized, err := sanitizer.Sanitize(content)
	if err != nil {
		sanitized = content
	}

	markdown, err := md.ConvertString(sanitized)
	if err != nil {
		// Last resort: text nodes only
		text, ok := htmlText(html)
		if !ok {
			return "", false
		}
		return text, true
	}

	markdown = cleanMarkdown(markdown)

	// Readability tends to swallow the page's own title heading, which
	// would leave the first section untitled. Put it back.
	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}

	return markdown, true
}

// cleanMarkdown collapses excessive blank lines left over by conversion
func cleanMarkdown(markdown string) string {
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(markdown) + "\n"
}

// htmlText extracts the concatenated text nodes of an HTML document
func htmlText(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(doc.Text()), true
}

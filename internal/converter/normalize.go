// Package converter normalizes raw documentation artifacts into plain
// text with a heading index.
package converter

import (
	"strings"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// Normalizer turns raw artifacts into normalized documents. It is a
// total function over its input domain: any byte sequence produces a
// document, falling back to plainer treatment when a richer parse
// fails. The same artifact always yields the same document.
type Normalizer struct {
	markup *markupPipeline
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{
		markup: newMarkupPipeline(),
	}
}

// Normalize converts a raw artifact into plain text plus a heading
// index. Offsets in the index are byte offsets into PlainText, pointing
// at the start of the heading line.
func (n *Normalizer) Normalize(artifact *domain.RawArtifact) *domain.NormalizedDocument {
	if artifact == nil {
		return &domain.NormalizedDocument{PlainText: "", Headings: []domain.Heading{}}
	}

	// Upstream bodies arrive in whatever charset the server picked;
	// everything downstream assumes UTF-8.
	body, err := ConvertToUTF8(artifact.Body)
	if err != nil {
		body = artifact.Body
	}
	text := normalizeNewlines(string(body))

	switch artifact.Format {
	case domain.FormatMarkup:
		markdown, ok := n.markup.ToMarkdown(text, artifact.OriginURL)
		if !ok {
			return plainDocument(text)
		}
		return normalizeLightweight(markdown)
	case domain.FormatLightweight:
		return normalizeLightweight(text)
	default:
		// FormatPlain and anything unrecognized
		return plainDocument(text)
	}
}

// plainDocument wraps already-plain text in a document with an empty
// heading index.
func plainDocument(text string) *domain.NormalizedDocument {
	return &domain.NormalizedDocument{
		PlainText: text,
		Headings:  []domain.Heading{},
	}
}

// normalizeNewlines rewrites CRLF and bare CR line endings to LF so
// byte offsets are stable across platforms.
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

package converter

import (
	"strings"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// DetectFormat maps an upstream content type and URL onto a document
// format. Unrecognized content falls back to plain, which the
// normalizer can always handle.
func DetectFormat(contentType, url string) domain.Format {
	if IsMarkdownContent(contentType, url) {
		return domain.FormatLightweight
	}
	if IsPlainTextContent(contentType, url) {
		return domain.FormatPlain
	}
	if IsHTMLContent(contentType) {
		return domain.FormatMarkup
	}
	return domain.FormatPlain
}

func IsMarkdownContent(contentType, url string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/markdown") ||
		strings.Contains(ct, "text/x-markdown") ||
		strings.Contains(ct, "application/markdown") {
		return true
	}

	lowerURL := stripQueryAndFragment(strings.ToLower(url))

	if strings.HasSuffix(lowerURL, ".md") ||
		strings.HasSuffix(lowerURL, ".mdx") ||
		strings.HasSuffix(lowerURL, ".markdown") ||
		strings.HasSuffix(lowerURL, ".mdown") ||
		strings.HasSuffix(lowerURL, ".rst") ||
		strings.HasSuffix(lowerURL, ".adoc") {
		return true
	}

	return false
}

// IsPlainTextContent checks if the content is plain text.
// Returns true for text/plain content type or .txt URL extension.
func IsPlainTextContent(contentType, url string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/plain") {
		return true
	}

	return strings.HasSuffix(stripQueryAndFragment(strings.ToLower(url)), ".txt")
}

// IsHTMLContent checks if the content type indicates HTML content.
// Returns true for empty content type (servers that omit it almost
// always serve HTML).
func IsHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml")
}

func stripQueryAndFragment(url string) string {
	if idx := strings.Index(url, "?"); idx != -1 {
		url = url[:idx]
	}
	if idx := strings.Index(url, "#"); idx != -1 {
		url = url[:idx]
	}
	return url
}

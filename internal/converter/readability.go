package converter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ExtractContent extracts the main content from HTML
type ExtractContent struct {
	selector string
}

// NewExtractContent creates a new content extractor. With an empty
// selector the readability algorithm picks the main content.
func NewExtractContent(selector string) *ExtractContent {
	return &ExtractContent{selector: selector}
}

// Extract extracts main content from HTML, returning the content HTML
// and the page title
func (e *ExtractContent) Extract(html, sourceURL string) (string, string, error) {
	// If a selector is provided, use it directly
	if e.selector != "" {
		return e.extractWithSelector(html, sourceURL)
	}

	// Otherwise, use readability algorithm
	return e.extractWithReadability(html, sourceURL)
}

// extractWithSelector extracts content using a CSS selector
func (e *ExtractContent) extractWithSelector(html, sourceURL string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	// Find the content element
	content := doc.Find(e.selector).First()
	if content.Length() == 0 {
		// Fallback to readability if selector doesn't match
		return e.extractWithReadability(html, sourceURL)
	}

	title := extractTitle(doc)

	contentHTML, err := content.Html()
	if err != nil {
		return "", "", err
	}

	return contentHTML, title, nil
}

// extractWithReadability extracts content using the readability algorithm
func (e *ExtractContent) extractWithReadability(html, sourceURL string) (string, string, error) {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil || parsedURL.Host == "" {
		parsedURL = &url.URL{Scheme: "https", Host: "example.com"}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		// If readability fails, try to extract the body
		return e.extractBody(html)
	}

	return article.Content, article.Title, nil
}

// extractBody extracts the body content as a fallback
func (e *ExtractContent) extractBody(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, "", nil
	}

	title := extractTitle(doc)

	body := doc.Find("body")
	if body.Length() == 0 {
		return html, title, nil
	}

	bodyHTML, err := body.Html()
	if err != nil {
		return html, title, nil
	}

	return bodyHTML, title, nil
}

// extractTitle extracts the page title
func extractTitle(doc *goquery.Document) string {
	// Try <title> tag
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		return title
	}

	// Try <h1> tag
	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	if h1 != "" {
		return h1
	}

	// Try og:title meta tag
	ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content")
	if exists && ogTitle != "" {
		return ogTitle
	}

	return ""
}

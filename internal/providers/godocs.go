package providers

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// GoDocs adapts pkg.go.dev. The site has no JSON API, so both content
// and search scrape its HTML. Metadata is deliberately not implemented;
// pkg.go.dev carries no registry fields beyond what the page shows.
type GoDocs struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	baseURL string
}

// NewGoDocs creates the pkg.go.dev adapter
func NewGoDocs(deps *Dependencies) *GoDocs {
	return &GoDocs{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithProvider("godocs"),
		baseURL: "https://pkg.go.dev",
	}
}

// Name returns the provider identifier
func (g *GoDocs) Name() string {
	return "godocs"
}

// SetBaseURL overrides the upstream endpoint (used for testing)
func (g *GoDocs) SetBaseURL(base string) {
	g.baseURL = strings.TrimRight(base, "/")
}

// FetchContent scrapes the package documentation page for an import
// path.
func (g *GoDocs) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	pageURL := fmt.Sprintf("%s/%s", g.baseURL, strings.TrimPrefix(strings.TrimSpace(subject), "/"))
	g.logger.Debug().Str("url", pageURL).Msg("Fetching pkg.go.dev documentation")

	resp, err := g.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, domain.Classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, domain.Classify(err)
	}

	title := strings.TrimSpace(doc.Find("h1.UnitHeader-title").First().Text())
	if title == "" {
		title = subject
	}

	content := doc.Find("div.Documentation-content").First()
	if content.Length() == 0 {
		// Pages without godoc (e.g. a repo root) still have a main area
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		return nil, fmt.Errorf("%w: no documentation content for %q on pkg.go.dev", domain.ErrNotFound, subject)
	}

	contentHTML, err := content.Html()
	if err != nil {
		return nil, domain.Classify(err)
	}

	// Re-wrap the extracted area so the page title survives conversion.
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>")
	b.WriteString(contentHTML)
	b.WriteString("</body></html>")

	return &domain.RawArtifact{
		Body:      []byte(b.String()),
		Format:    domain.FormatMarkup,
		OriginURL: resp.URL,
	}, nil
}

// Search scrapes the pkg.go.dev search results page
func (g *GoDocs) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	searchURL := fmt.Sprintf("%s/search?q=%s", g.baseURL, url.QueryEscape(query))
	resp, err := g.fetcher.Get(ctx, searchURL)
	if err != nil {
		return nil, domain.Classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, domain.Classify(err)
	}

	var hits []domain.SearchHit
	doc.Find(".SearchSnippet").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		anchor := block.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return true
		}

		hits = append(hits, domain.SearchHit{
			Title:   strings.Join(strings.Fields(anchor.Text()), " "),
			URL:     g.baseURL + href,
			Snippet: strings.TrimSpace(block.Find(".SearchSnippet-synopsis").First().Text()),
		})
		return len(hits) < limit
	})

	return hits, nil
}

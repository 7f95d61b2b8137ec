package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// Google adapts Google web search. Search scrapes result cards from
// the HTML page; SearchAPI uses the Custom Search JSON API when an
// API key and engine ID are configured.
type Google struct {
	fetcher   domain.Fetcher
	logger    *utils.Logger
	searchURL string
	apiURL    string
	apiKey    string
	cseID     string
}

// NewGoogle creates the Google adapter
func NewGoogle(deps *Dependencies) *Google {
	apiKey, cseID := "", ""
	if deps.Config != nil {
		apiKey = deps.Config.Providers.GoogleAPIKey
		cseID = deps.Config.Providers.GoogleCSEID
	}
	return &Google{
		fetcher:   deps.Fetcher,
		logger:    deps.Logger.WithProvider("google"),
		searchURL: "https://www.google.com/search",
		apiURL:    "https://www.googleapis.com/customsearch/v1",
		apiKey:    apiKey,
		cseID:     cseID,
	}
}

// Name returns the provider identifier
func (g *Google) Name() string {
	return "google"
}

// SetSearchURL overrides the scrape endpoint (used for testing)
func (g *Google) SetSearchURL(base string) {
	g.searchURL = strings.TrimRight(base, "/")
}

// SetAPIURL overrides the Custom Search endpoint (used for testing)
func (g *Google) SetAPIURL(base string) {
	g.apiURL = strings.TrimRight(base, "/")
}

// Search scrapes search result cards. Each card contributes its first
// anchor as the link and the whole card text as the snippet.
func (g *Google) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("%s?q=%s", g.searchURL, url.QueryEscape(query))
	g.logger.Debug().Str("query", query).Msg("Scraping search results")

	resp, err := g.fetcher.Get(ctx, endpoint)
	if err != nil {
		return nil, domain.Classify(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	hits := make([]domain.SearchHit, 0, limit)
	doc.Find("div.g").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		anchor := block.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return true
		}
		hits = append(hits, domain.SearchHit{
			Title:   strings.Join(strings.Fields(anchor.Text()), " "),
			URL:     href,
			Snippet: strings.Join(strings.Fields(block.Text()), " "),
		})
		return len(hits) < limit
	})

	return hits, nil
}

type googleAPIResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// HasAPICredentials reports whether the Custom Search API is usable
func (g *Google) HasAPICredentials() bool {
	return g.apiKey != "" && g.cseID != ""
}

// SearchAPI queries the Custom Search JSON API. The API caps page
// size at 10 results per request.
func (g *Google) SearchAPI(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if !g.HasAPICredentials() {
		return nil, fmt.Errorf("%w: google api key or engine id not configured", domain.ErrInvalidArgument)
	}
	limit = clampLimit(limit)

	num := limit
	if num > 10 {
		num = 10
	}
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))

	endpoint := g.apiURL + "?" + params.Encode()
	var payload googleAPIResponse
	if err := fetchJSON(ctx, g.fetcher, endpoint, nil, &payload); err != nil {
		return nil, domain.Classify(err)
	}

	hits := make([]domain.SearchHit, 0, len(payload.Items))
	for _, item := range payload.Items {
		hits = append(hits, domain.SearchHit{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/ratelimit"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// gateKeyCrates paces every crates.io request. The registry's crawler
// policy allows one request per second.
const gateKeyCrates = "crates"

// Crates adapts the crates.io registry API, with docs.rs as the
// fallback documentation source when a crate ships no readme.
type Crates struct {
	fetcher    domain.Fetcher
	gate       *ratelimit.Gate
	logger     *utils.Logger
	baseURL    string
	docsRSBase string
}

// NewCrates creates the crates.io adapter and registers its pace with
// the shared gate.
func NewCrates(deps *Dependencies) *Crates {
	rps := 1.0
	if deps.Config != nil && deps.Config.Providers.CratesRPS > 0 {
		rps = deps.Config.Providers.CratesRPS
	}
	deps.Gate.SetRate(gateKeyCrates, rps)

	return &Crates{
		fetcher:    deps.Fetcher,
		gate:       deps.Gate,
		logger:     deps.Logger.WithProvider("crates"),
		baseURL:    "https://crates.io",
		docsRSBase: "https://docs.rs",
	}
}

// Name returns the provider identifier
func (c *Crates) Name() string {
	return "crates"
}

// SetBaseURL overrides the registry endpoint (used for testing)
func (c *Crates) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// SetDocsRSBaseURL overrides the docs.rs endpoint (used for testing)
func (c *Crates) SetDocsRSBaseURL(base string) {
	c.docsRSBase = strings.TrimRight(base, "/")
}

type cratesResponse struct {
	Crate struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		Homepage         string `json:"homepage"`
		Documentation    string `json:"documentation"`
		Repository       string `json:"repository"`
		NewestVersion    string `json:"newest_version"`
		MaxStableVersion string `json:"max_stable_version"`
		Downloads        int64  `json:"downloads"`
	} `json:"crate"`
	Versions []struct {
		Num     string `json:"num"`
		License string `json:"license"`
	} `json:"versions"`
}

type cratesSearchResponse struct {
	Crates []struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		NewestVersion string `json:"newest_version"`
	} `json:"crates"`
}

// FetchMetadata resolves a crate on crates.io
func (c *Crates) FetchMetadata(ctx context.Context, subject string) (*domain.Metadata, error) {
	payload, err := c.fetchCrate(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	version := firstNonEmpty(payload.Crate.MaxStableVersion, payload.Crate.NewestVersion)
	meta := &domain.Metadata{
		Provider:    c.Name(),
		Name:        payload.Crate.Name,
		Version:     version,
		Summary:     payload.Crate.Description,
		Homepage:    payload.Crate.Homepage,
		DocsURL:     payload.Crate.Documentation,
		RepoURL:     payload.Crate.Repository,
		License:     c.licenseFor(payload, version),
		RetrievedAt: time.Now().UTC(),
	}
	if payload.Crate.Downloads > 0 {
		meta.Extra = map[string]string{"downloads": strconv.FormatInt(payload.Crate.Downloads, 10)}
	}

	return meta, nil
}

// FetchContent returns a crate's rendered readme from crates.io, or
// its docs.rs page when the crate ships no readme.
func (c *Crates) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	payload, err := c.fetchCrate(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	version := firstNonEmpty(payload.Crate.MaxStableVersion, payload.Crate.NewestVersion)
	if version == "" {
		return nil, fmt.Errorf("%w: crate %q has no published version", domain.ErrNotFound, subject)
	}

	readmeURL := fmt.Sprintf("%s/api/v1/crates/%s/%s/readme", c.baseURL, url.PathEscape(subject), url.PathEscape(version))
	if err := c.gate.Wait(ctx, gateKeyCrates); err != nil {
		return nil, domain.Classify(err)
	}
	resp, err := c.fetcher.Get(ctx, readmeURL)
	if err == nil {
		return &domain.RawArtifact{
			Body:      resp.Body,
			Format:    domain.FormatMarkup,
			OriginURL: fmt.Sprintf("%s/crates/%s", c.baseURL, url.PathEscape(subject)),
		}, nil
	}
	if !domain.IsNotFound(domain.Classify(err)) {
		return nil, domain.Classify(err)
	}

	// No readme on crates.io, fall back to the docs.rs landing page.
	docsURL := fmt.Sprintf("%s/%s", c.docsRSBase, url.PathEscape(subject))
	c.logger.Debug().Str("url", docsURL).Msg("Crate has no readme, trying docs.rs")

	resp, err = c.fetcher.Get(ctx, docsURL)
	if err != nil {
		return nil, domain.Classify(err)
	}

	return &domain.RawArtifact{
		Body:      resp.Body,
		Format:    domain.FormatMarkup,
		OriginURL: resp.URL,
	}, nil
}

// Search queries the crates.io search endpoint
func (c *Crates) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("%s/api/v1/crates?q=%s&per_page=%d", c.baseURL, url.QueryEscape(query), limit)
	if err := c.gate.Wait(ctx, gateKeyCrates); err != nil {
		return nil, domain.Classify(err)
	}

	var payload cratesSearchResponse
	if err := fetchJSON(ctx, c.fetcher, endpoint, nil, &payload); err != nil {
		return nil, domain.Classify(err)
	}

	hits := make([]domain.SearchHit, 0, len(payload.Crates))
	for _, crate := range payload.Crates {
		hits = append(hits, domain.SearchHit{
			Title:   crate.Name,
			URL:     fmt.Sprintf("%s/crates/%s", c.baseURL, url.PathEscape(crate.Name)),
			Snippet: crate.Description,
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

func (c *Crates) fetchCrate(ctx context.Context, subject string) (*cratesResponse, error) {
	if err := c.gate.Wait(ctx, gateKeyCrates); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/crates/%s", c.baseURL, url.PathEscape(subject))
	c.logger.Debug().Str("url", endpoint).Msg("Fetching crate data")

	var payload cratesResponse
	if err := fetchJSON(ctx, c.fetcher, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Crates) licenseFor(payload *cratesResponse, version string) string {
	for _, v := range payload.Versions {
		if v.Num == version {
			return v.License
		}
	}
	if len(payload.Versions) > 0 {
		return payload.Versions[0].License
	}
	return ""
}

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// NPM adapts the npm registry. Packuments carry the readme inline, so
// content needs no second round-trip.
type NPM struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	baseURL string
	siteURL string
}

// NewNPM creates the npm adapter
func NewNPM(deps *Dependencies) *NPM {
	return &NPM{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithProvider("npm"),
		baseURL: "https://registry.npmjs.org",
		siteURL: "https://www.npmjs.com",
	}
}

// Name returns the provider identifier
func (n *NPM) Name() string {
	return "npm"
}

// SetBaseURL overrides the registry endpoint (used for testing)
func (n *NPM) SetBaseURL(base string) {
	n.baseURL = strings.TrimRight(base, "/")
}

// npmFlexString tolerates registry fields that are either a bare
// string or an object with the value in a well-known key (license can
// be "MIT" or {"type": "MIT"}, repository can be a string or
// {"url": ...}).
type npmFlexString string

func (f *npmFlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = npmFlexString(s)
		return nil
	}

	var obj struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*f = npmFlexString(firstNonEmpty(obj.URL, obj.Type))
		return nil
	}

	*f = ""
	return nil
}

type npmPackument struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DistTags    map[string]string `json:"dist-tags"`
	Homepage    string            `json:"homepage"`
	License     npmFlexString     `json:"license"`
	Repository  npmFlexString     `json:"repository"`
	Readme      string            `json:"readme"`
}

type npmSearchResponse struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Links       struct {
				NPM      string `json:"npm"`
				Homepage string `json:"homepage"`
			} `json:"links"`
		} `json:"package"`
	} `json:"objects"`
}

// FetchMetadata resolves a package on the npm registry
func (n *NPM) FetchMetadata(ctx context.Context, subject string) (*domain.Metadata, error) {
	payload, err := n.fetchPackument(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	return &domain.Metadata{
		Provider:    n.Name(),
		Name:        payload.Name,
		Version:     payload.DistTags["latest"],
		Summary:     payload.Description,
		Homepage:    payload.Homepage,
		RepoURL:     cleanGitURL(string(payload.Repository)),
		License:     string(payload.License),
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// FetchContent returns the packument readme as a markdown artifact
func (n *NPM) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	payload, err := n.fetchPackument(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	if strings.TrimSpace(payload.Readme) == "" {
		return nil, fmt.Errorf("%w: package %q has no readme on npm", domain.ErrNotFound, subject)
	}

	return &domain.RawArtifact{
		Body:      []byte(payload.Readme),
		Format:    domain.FormatLightweight,
		OriginURL: fmt.Sprintf("%s/package/%s", n.siteURL, subject),
	}, nil
}

// Search queries the npm full-text search endpoint
func (n *NPM) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("%s/-/v1/search?text=%s&size=%d", n.baseURL, url.QueryEscape(query), limit)
	var payload npmSearchResponse
	if err := fetchJSON(ctx, n.fetcher, endpoint, nil, &payload); err != nil {
		return nil, domain.Classify(err)
	}

	hits := make([]domain.SearchHit, 0, len(payload.Objects))
	for _, obj := range payload.Objects {
		pkg := obj.Package
		hits = append(hits, domain.SearchHit{
			Title:   pkg.Name,
			URL:     firstNonEmpty(pkg.Links.NPM, pkg.Links.Homepage, fmt.Sprintf("%s/package/%s", n.siteURL, pkg.Name)),
			Snippet: pkg.Description,
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

func (n *NPM) fetchPackument(ctx context.Context, subject string) (*npmPackument, error) {
	// Scoped names ("@scope/pkg") must keep the slash escaped.
	endpoint := fmt.Sprintf("%s/%s", n.baseURL, url.PathEscape(subject))
	n.logger.Debug().Str("url", endpoint).Msg("Fetching npm packument")

	var payload npmPackument
	if err := fetchJSON(ctx, n.fetcher, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// cleanGitURL strips the git+ prefix and .git suffix npm uses in
// repository URLs.
func cleanGitURL(raw string) string {
	raw = strings.TrimPrefix(raw, "git+")
	return strings.TrimSuffix(raw, ".git")
}

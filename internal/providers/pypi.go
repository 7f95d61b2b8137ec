package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// PyPI adapts the PyPI JSON API. It resolves package metadata and
// serves the long description as documentation content.
type PyPI struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	baseURL string
}

// NewPyPI creates the PyPI adapter
func NewPyPI(deps *Dependencies) *PyPI {
	return &PyPI{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithProvider("pypi"),
		baseURL: "https://pypi.org",
	}
}

// Name returns the provider identifier
func (p *PyPI) Name() string {
	return "pypi"
}

// SetBaseURL overrides the upstream endpoint (used for testing)
func (p *PyPI) SetBaseURL(base string) {
	p.baseURL = strings.TrimRight(base, "/")
}

type pypiResponse struct {
	Info struct {
		Name                   string            `json:"name"`
		Version                string            `json:"version"`
		Summary                string            `json:"summary"`
		HomePage               string            `json:"home_page"`
		License                string            `json:"license"`
		RequiresPython         string            `json:"requires_python"`
		Description            string            `json:"description"`
		DescriptionContentType string            `json:"description_content_type"`
		ProjectURLs            map[string]string `json:"project_urls"`
	} `json:"info"`
}

// FetchMetadata resolves a package on PyPI
func (p *PyPI) FetchMetadata(ctx context.Context, subject string) (*domain.Metadata, error) {
	payload, err := p.fetch(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	info := payload.Info
	meta := &domain.Metadata{
		Provider:    p.Name(),
		Name:        info.Name,
		Version:     info.Version,
		Summary:     info.Summary,
		Homepage:    info.HomePage,
		DocsURL:     info.ProjectURLs["Documentation"],
		RepoURL:     firstNonEmpty(info.ProjectURLs["Source"], info.ProjectURLs["Repository"], info.ProjectURLs["Source Code"]),
		License:     info.License,
		RetrievedAt: time.Now().UTC(),
	}
	if meta.Homepage == "" {
		meta.Homepage = info.ProjectURLs["Homepage"]
	}
	if info.RequiresPython != "" {
		meta.Extra = map[string]string{"requires_python": info.RequiresPython}
	}

	return meta, nil
}

// FetchContent returns the package's long description as a raw
// artifact. The declared description content type decides the format;
// anything that is not markdown degrades to plain text.
func (p *PyPI) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	payload, err := p.fetch(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	description := payload.Info.Description
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: package %q has no description on pypi", domain.ErrNotFound, subject)
	}

	return &domain.RawArtifact{
		Body:      []byte(description),
		Format:    descriptionFormat(payload.Info.DescriptionContentType),
		OriginURL: fmt.Sprintf("%s/project/%s/", p.baseURL, url.PathEscape(subject)),
	}, nil
}

func (p *PyPI) fetch(ctx context.Context, subject string) (*pypiResponse, error) {
	endpoint := fmt.Sprintf("%s/pypi/%s/json", p.baseURL, url.PathEscape(subject))
	p.logger.Debug().Str("url", endpoint).Msg("Fetching PyPI package data")

	var payload pypiResponse
	if err := fetchJSON(ctx, p.fetcher, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func descriptionFormat(contentType string) domain.Format {
	if strings.Contains(strings.ToLower(contentType), "markdown") {
		return domain.FormatLightweight
	}
	return domain.FormatPlain
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

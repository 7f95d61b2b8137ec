package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

const githubAPIVersion = "2022-11-28"

// GitHub adapts the GitHub REST API for repository metadata, readme
// content, and repository/code search. A token raises the rate
// ceiling; its absence never disables the adapter.
type GitHub struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	baseURL string
	token   string
}

// NewGitHub creates the GitHub adapter
func NewGitHub(deps *Dependencies) *GitHub {
	token := ""
	if deps.Config != nil {
		token = deps.Config.Providers.GitHubToken
	}
	return &GitHub{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithProvider("github"),
		baseURL: "https://api.github.com",
		token:   token,
	}
}

// Name returns the provider identifier
func (g *GitHub) Name() string {
	return "github"
}

// SetBaseURL overrides the API endpoint (used for testing)
func (g *GitHub) SetBaseURL(base string) {
	g.baseURL = strings.TrimRight(base, "/")
}

type ghRepo struct {
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	HTMLURL       string `json:"html_url"`
	Homepage      string `json:"homepage"`
	Stars         int    `json:"stargazers_count"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`
	License       *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

type ghRepoSearchResponse struct {
	Items []ghRepo `json:"items"`
}

type ghCodeSearchResponse struct {
	Items []struct {
		Name       string `json:"name"`
		Path       string `json:"path"`
		HTMLURL    string `json:"html_url"`
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	} `json:"items"`
}

// FetchMetadata resolves a repository and returns its metadata. The
// subject is either "owner/repo" or a bare name resolved through
// repository search.
func (g *GitHub) FetchMetadata(ctx context.Context, subject string) (*domain.Metadata, error) {
	fullName, err := g.resolveSubject(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s", g.baseURL, fullName)
	var repo ghRepo
	if err := fetchJSON(ctx, g.fetcher, endpoint, g.headers(), &repo); err != nil {
		return nil, domain.Classify(err)
	}

	meta := &domain.Metadata{
		Provider:    g.Name(),
		Name:        repo.FullName,
		Summary:     repo.Description,
		Homepage:    repo.Homepage,
		RepoURL:     repo.HTMLURL,
		RetrievedAt: time.Now().UTC(),
		Extra: map[string]string{
			"stars": strconv.Itoa(repo.Stars),
		},
	}
	if repo.License != nil {
		meta.License = repo.License.SPDXID
	}
	if repo.Language != "" {
		meta.Extra["language"] = repo.Language
	}
	if repo.DefaultBranch != "" {
		meta.Extra["default_branch"] = repo.DefaultBranch
	}

	return meta, nil
}

// FetchContent returns the repository readme as a markdown artifact
func (g *GitHub) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	fullName, err := g.resolveSubject(ctx, subject)
	if err != nil {
		return nil, domain.Classify(err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/readme", g.baseURL, fullName)
	g.logger.Debug().Str("url", endpoint).Msg("Fetching repository readme")

	headers := g.headers()
	headers["Accept"] = "application/vnd.github.raw+json"

	resp, err := g.fetcher.GetWithOptions(ctx, endpoint, domain.RequestOptions{Headers: headers})
	if err != nil {
		return nil, domain.Classify(err)
	}

	return &domain.RawArtifact{
		Body:      resp.Body,
		Format:    domain.FormatLightweight,
		OriginURL: fmt.Sprintf("https://github.com/%s#readme", fullName),
	}, nil
}

// Search queries GitHub repository search
func (g *GitHub) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	items, err := g.searchRepos(ctx, query, limit)
	if err != nil {
		return nil, domain.Classify(err)
	}

	hits := make([]domain.SearchHit, 0, len(items))
	for _, item := range items {
		hits = append(hits, domain.SearchHit{
			Title:   item.FullName,
			URL:     item.HTMLURL,
			Snippet: item.Description,
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

// SearchCode queries GitHub code search, optionally scoped to one
// repository.
func (g *GitHub) SearchCode(ctx context.Context, query, repo string, limit int) ([]domain.SearchHit, error) {
	limit = clampLimit(limit)

	searchQuery := query
	if repo != "" {
		searchQuery = fmt.Sprintf("%s repo:%s", query, repo)
	}

	endpoint := fmt.Sprintf("%s/search/code?q=%s&per_page=%d", g.baseURL, url.QueryEscape(searchQuery), limit)
	var payload ghCodeSearchResponse
	if err := fetchJSON(ctx, g.fetcher, endpoint, g.headers(), &payload); err != nil {
		return nil, domain.Classify(err)
	}

	hits := make([]domain.SearchHit, 0, len(payload.Items))
	for _, item := range payload.Items {
		hits = append(hits, domain.SearchHit{
			Title:   item.Path,
			URL:     item.HTMLURL,
			Snippet: item.Repository.FullName,
		})
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

// resolveSubject turns a subject into "owner/repo". Bare names go
// through repository search and take the top hit.
func (g *GitHub) resolveSubject(ctx context.Context, subject string) (string, error) {
	if owner, repo, ok := utils.SplitOwnerRepo(subject); ok {
		return owner + "/" + repo, nil
	}

	items, err := g.searchRepos(ctx, subject, 1)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: no repository matches %q", domain.ErrNotFound, subject)
	}

	g.logger.Debug().Str("subject", subject).Str("resolved", items[0].FullName).Msg("Resolved subject via repository search")
	return items[0].FullName, nil
}

func (g *GitHub) searchRepos(ctx context.Context, query string, limit int) ([]ghRepo, error) {
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d", g.baseURL, url.QueryEscape(query), limit)

	var payload ghRepoSearchResponse
	if err := fetchJSON(ctx, g.fetcher, endpoint, g.headers(), &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (g *GitHub) headers() map[string]string {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": githubAPIVersion,
	}
	if g.token != "" {
		headers["Authorization"] = "token " + g.token
	}
	return headers
}

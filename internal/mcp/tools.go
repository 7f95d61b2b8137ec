package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// defaultSearchLimit caps hit counts when the caller does not ask for
// a specific number.
const defaultSearchLimit = 5

// SearchLibraryDocsInput is the input schema for search_library_docs.
type SearchLibraryDocsInput struct {
	LibraryName string `json:"library_name" jsonschema:"name of the library to find documentation for"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum results per source (default 5)"`
}

// FetchDocsInput is the input schema for fetch_docs.
type FetchDocsInput struct {
	Subject  string `json:"subject" jsonschema:"package, crate, module, or owner/repo to fetch documentation for"`
	Provider string `json:"provider,omitempty" jsonschema:"restrict the fetch to one provider (pypi, crates, npm, godocs, github)"`
	MaxBytes int    `json:"max_bytes,omitempty" jsonschema:"byte budget for the selected excerpt (default from config)"`
}

// PyPIMetadataInput is the input schema for pypi_metadata.
type PyPIMetadataInput struct {
	PackageName string `json:"package_name" jsonschema:"name of the PyPI package"`
}

// GoogleSearchInput is the input schema for google_search.
type GoogleSearchInput struct {
	Query  string `json:"query" jsonschema:"the search query"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of result cards (default 5)"`
	UseAPI bool   `json:"use_api,omitempty" jsonschema:"prefer the Custom Search JSON API over the HTML scrape"`
}

// GitHubRepoSearchInput is the input schema for github_repo_search.
type GitHubRepoSearchInput struct {
	Query    string  `json:"query" jsonschema:"repository search query"`
	Limit    int     `json:"limit,omitempty" jsonschema:"maximum number of repositories (default 5)"`
	Language *string `json:"language,omitempty" jsonschema:"language filter (default Python, empty string disables it)"`
}

// GitHubCodeSearchInput is the input schema for github_code_search.
type GitHubCodeSearchInput struct {
	Query string `json:"query" jsonschema:"code search query"`
	Repo  string `json:"repo,omitempty" jsonschema:"owner/name repository to scope the search to"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of code hits (default 5)"`
}

// apiSearcher is the extra capability the google adapter exposes for
// API-backed search.
type apiSearcher interface {
	SearchAPI(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_library_docs",
		Description: "Find docs for a library using registry metadata, GitHub repos, and Google search combined.",
	}, s.handleSearchLibraryDocs)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_docs",
		Description: "Fetch README or reference docs for a subject and return the highest-value sections within a byte budget. Queries every capable provider unless one is named.",
	}, s.handleFetchDocs)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pypi_metadata",
		Description: "Retrieve PyPI package metadata including documentation URLs when available.",
	}, s.handlePyPIMetadata)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "google_search",
		Description: "Run a Google search and return result cards. Supports the Custom Search API (GOOGLE_API_KEY/GOOGLE_CSE_ID) with HTML scrape fallback.",
	}, s.handleGoogleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github_repo_search",
		Description: "Search GitHub repositories relevant to a library or topic.",
	}, s.handleGitHubRepoSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github_code_search",
		Description: "Search GitHub code, optionally scoped to a repository.",
	}, s.handleGitHubCodeSearch)
}

func (s *Server) handleSearchLibraryDocs(ctx context.Context, _ *mcp.CallToolRequest, input SearchLibraryDocsInput) (*mcp.CallToolResult, any, error) {
	library := strings.TrimSpace(input.LibraryName)
	if library == "" {
		return nil, nil, domain.NewValidationError("library_name", "must not be empty")
	}

	result := s.service.Locate(ctx, library, orDefaultLimit(input.Limit))

	payload := map[string]any{"library": library}
	addOutcome(payload, result, "pypi", "pypi")
	addOutcome(payload, result, "github", "github_repos")
	addOutcome(payload, result, "google", "web")

	s.logger.Debug().
		Str("tool", "search_library_docs").
		Str("library", library).
		Int("failed", len(result.Failures())).
		Msg("Tool call complete")

	return s.encode(payload)
}

func (s *Server) handleFetchDocs(ctx context.Context, _ *mcp.CallToolRequest, input FetchDocsInput) (*mcp.CallToolResult, any, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, nil, domain.NewValidationError("subject", "must not be empty")
	}

	maxBytes := input.MaxBytes
	if maxBytes == 0 {
		maxBytes = s.config.Budget.MaxBytes
	}

	if input.Provider != "" {
		excerpt, err := s.service.FetchDocs(ctx, input.Provider, subject, maxBytes)
		if err != nil {
			return nil, nil, err
		}
		return s.encode(excerpt)
	}

	result, err := s.service.FetchAllDocs(ctx, subject, maxBytes)
	if err != nil {
		return nil, nil, err
	}

	payload := map[string]any{"subject": subject}
	for name, outcome := range result.Outcomes {
		if outcome.Failed() {
			payload[name+"_error"] = outcome.Err.Error()
			continue
		}
		payload[name] = outcome.Data
	}

	s.logger.Debug().
		Str("tool", "fetch_docs").
		Str("subject", subject).
		Int("max_bytes", maxBytes).
		Int("failed", len(result.Failures())).
		Msg("Tool call complete")

	return s.encode(payload)
}

func (s *Server) handlePyPIMetadata(ctx context.Context, _ *mcp.CallToolRequest, input PyPIMetadataInput) (*mcp.CallToolResult, any, error) {
	meta, err := s.service.FetchMetadata(ctx, "pypi", input.PackageName)
	if err != nil {
		return nil, nil, err
	}
	return s.encode(meta)
}

func (s *Server) handleGoogleSearch(ctx context.Context, _ *mcp.CallToolRequest, input GoogleSearchInput) (*mcp.CallToolResult, any, error) {
	provider, ok := s.registry.Get("google")
	if !ok {
		return nil, nil, domain.NewValidationError("provider", "google is not enabled")
	}
	searcher, ok := provider.(domain.Searcher)
	if !ok {
		return nil, nil, domain.NewValidationError("provider", "google does not support search")
	}

	limit := orDefaultLimit(input.Limit)

	var hits []domain.SearchHit
	var apiErr error
	if input.UseAPI {
		if api, isAPI := provider.(apiSearcher); isAPI {
			hits, apiErr = api.SearchAPI(ctx, input.Query, limit)
		}
	}

	if len(hits) == 0 {
		scraped, err := searcher.Search(ctx, input.Query, limit)
		if err != nil {
			return nil, nil, err
		}
		hits = scraped
		if apiErr != nil {
			// Surface the API failure as a trailing result card so the
			// agent sees both the fallback hits and the cause.
			hits = append(hits, domain.SearchHit{Title: "google-api-error", Snippet: apiErr.Error()})
		}
	}

	return s.encode(hits)
}

func (s *Server) handleGitHubRepoSearch(ctx context.Context, _ *mcp.CallToolRequest, input GitHubRepoSearchInput) (*mcp.CallToolResult, any, error) {
	searcher, err := s.searcher("github")
	if err != nil {
		return nil, nil, err
	}

	query := input.Query
	language := "Python"
	if input.Language != nil {
		language = *input.Language
	}
	if language != "" {
		query = fmt.Sprintf("%s language:%s", query, language)
	}

	hits, err := searcher.Search(ctx, query, orDefaultLimit(input.Limit))
	if err != nil {
		return nil, nil, err
	}
	return s.encode(hits)
}

func (s *Server) handleGitHubCodeSearch(ctx context.Context, _ *mcp.CallToolRequest, input GitHubCodeSearchInput) (*mcp.CallToolResult, any, error) {
	provider, ok := s.registry.Get("github")
	if !ok {
		return nil, nil, domain.NewValidationError("provider", "github is not enabled")
	}
	codeSearcher, ok := provider.(domain.CodeSearcher)
	if !ok {
		return nil, nil, domain.NewValidationError("provider", "github does not support code search")
	}

	hits, err := codeSearcher.SearchCode(ctx, input.Query, input.Repo, orDefaultLimit(input.Limit))
	if err != nil {
		return nil, nil, err
	}
	return s.encode(hits)
}

// addOutcome copies one provider's outcome onto the payload: data under
// key, failure under "<provider>_error". Providers that never ran (not
// enabled, capability missing) contribute nothing.
func addOutcome(payload map[string]any, result *domain.AggregateResult, provider, key string) {
	outcome, ok := result.Outcomes[provider]
	if !ok {
		return
	}
	if outcome.Failed() {
		payload[provider+"_error"] = outcome.Err.Error()
		return
	}
	payload[key] = outcome.Data
}

// searcher resolves a registered provider's search capability.
func (s *Server) searcher(name string) (domain.Searcher, error) {
	provider, ok := s.registry.Get(name)
	if !ok {
		return nil, domain.NewValidationError("provider", name+" is not enabled")
	}
	searcher, ok := provider.(domain.Searcher)
	if !ok {
		return nil, domain.NewValidationError("provider", name+" does not support search")
	}
	return searcher, nil
}

// encode serializes a tool payload into text content.
func (s *Server) encode(payload any) (*mcp.CallToolResult, any, error) {
	text, err := s.encoder.Encode(payload)
	if err != nil {
		return nil, nil, err
	}
	return textResult(text), nil, nil
}

func orDefaultLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

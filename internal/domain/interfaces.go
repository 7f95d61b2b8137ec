package domain

import (
	"context"
	"net/http"
)

// Provider identifies a documentation source. Concrete adapters
// additionally implement whichever capability interfaces below the
// source supports; callers discover capabilities by type assertion.
type Provider interface {
	// Name returns the provider identifier (e.g. "pypi", "github").
	Name() string
}

// MetadataFetcher is the capability to look up registry metadata for a
// subject.
type MetadataFetcher interface {
	Provider
	// FetchMetadata resolves subject at this source and returns its
	// registry metadata.
	FetchMetadata(ctx context.Context, subject string) (*Metadata, error)
}

// ContentFetcher is the capability to retrieve full documentation
// content for a subject. The adapter locates the right upstream
// resource itself (resolve-then-fetch) and must bound how much it
// reads; maxBytes is the caller's budget hint, not a hard response cap.
type ContentFetcher interface {
	Provider
	// FetchContent returns the raw documentation artifact for subject.
	FetchContent(ctx context.Context, subject string, maxBytes int) (*RawArtifact, error)
}

// Searcher is the capability to run a free-text search at this source.
type Searcher interface {
	Provider
	// Search returns up to limit hits, best first.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
}

// CodeSearcher is the capability to search source code at this source,
// optionally scoped to one repository.
type CodeSearcher interface {
	Provider
	// SearchCode returns up to limit code hits for query. A non-empty
	// repo ("owner/name") scopes the search to that repository.
	SearchCode(ctx context.Context, query, repo string, limit int) ([]SearchHit, error)
}

// RequestOptions are per-request knobs for the Fetcher. Zero values
// fall back to the client's configured defaults.
type RequestOptions struct {
	Headers     map[string]string
	MaxBodySize int64
}

// Fetcher is the transport seam between adapters and the network.
type Fetcher interface {
	// Get fetches a URL with default options.
	Get(ctx context.Context, url string) (*Response, error)
	// GetWithOptions fetches a URL with custom headers and limits.
	GetWithOptions(ctx context.Context, url string, opts RequestOptions) (*Response, error)
	// Close releases client resources.
	Close() error
}

// Response is an HTTP response with the body fully read (and bounded).
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
}

// Normalizer converts a raw artifact into the normalized plain-text
// form. Implementations are total: they never fail, degrading
// unrecognized input to plain text with an empty heading index.
type Normalizer interface {
	Normalize(artifact *RawArtifact) *NormalizedDocument
}

// Writer persists a selected excerpt for CLI use.
type Writer interface {
	Write(ctx context.Context, subject, provider string, result *SelectionResult, originURL string) (string, error)
}

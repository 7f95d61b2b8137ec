// Package providers implements the documentation source adapters. Each
// adapter translates one upstream registry or search API onto the
// capability interfaces in internal/domain and collapses every upstream
// fault onto the shared error taxonomy before it returns.
package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/ratelimit"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// Dependencies are the shared collaborators handed to every adapter.
// The Gate is the only cross-request state; adapters that pace their
// upstream hold it by reference.
type Dependencies struct {
	Fetcher domain.Fetcher
	Gate    *ratelimit.Gate
	Logger  *utils.Logger
	Config  *config.Config
}

// Registry holds the registered adapters in registration order. The
// zero value is an empty registry ready for Register.
type Registry struct {
	order     []string
	providers map[string]domain.Provider
}

// NewRegistry builds a registry with every adapter named in
// cfg.Providers.Enabled, in that order. Unknown names are rejected so a
// typo in configuration fails at startup rather than silently dropping
// a source.
func NewRegistry(deps *Dependencies) (*Registry, error) {
	r := &Registry{}

	for _, name := range deps.Config.Providers.Enabled {
		var p domain.Provider
		switch name {
		case "pypi":
			p = NewPyPI(deps)
		case "crates":
			p = NewCrates(deps)
		case "npm":
			p = NewNPM(deps)
		case "godocs":
			p = NewGoDocs(deps)
		case "github":
			p = NewGitHub(deps)
		case "google":
			p = NewGoogle(deps)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
		r.Register(p)
	}

	return r, nil
}

// Register adds an adapter. Re-registering a name replaces the adapter
// but keeps its original position.
func (r *Registry) Register(p domain.Provider) {
	if r.providers == nil {
		r.providers = make(map[string]domain.Provider)
	}
	name := p.Name()
	if _, ok := r.providers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (domain.Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered adapter names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// MetadataFetchers returns the adapters that can resolve metadata, in
// registration order.
func (r *Registry) MetadataFetchers() []domain.MetadataFetcher {
	var out []domain.MetadataFetcher
	for _, name := range r.order {
		if p, ok := r.providers[name].(domain.MetadataFetcher); ok {
			out = append(out, p)
		}
	}
	return out
}

// ContentFetchers returns the adapters that can fetch documentation
// content, in registration order.
func (r *Registry) ContentFetchers() []domain.ContentFetcher {
	var out []domain.ContentFetcher
	for _, name := range r.order {
		if p, ok := r.providers[name].(domain.ContentFetcher); ok {
			out = append(out, p)
		}
	}
	return out
}

// Searchers returns the adapters that support free-text search, in
// registration order.
func (r *Registry) Searchers() []domain.Searcher {
	var out []domain.Searcher
	for _, name := range r.order {
		if p, ok := r.providers[name].(domain.Searcher); ok {
			out = append(out, p)
		}
	}
	return out
}

// CodeSearchers returns the adapters that support code search, in
// registration order.
func (r *Registry) CodeSearchers() []domain.CodeSearcher {
	var out []domain.CodeSearcher
	for _, name := range r.order {
		if p, ok := r.providers[name].(domain.CodeSearcher); ok {
			out = append(out, p)
		}
	}
	return out
}

// fetchJSON fetches url and decodes the response body into v.
func fetchJSON(ctx context.Context, fetcher domain.Fetcher, url string, headers map[string]string, v any) error {
	resp, err := fetcher.GetWithOptions(ctx, url, domain.RequestOptions{Headers: headers})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// clampLimit keeps a caller-supplied result limit sane.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 5
	}
	if limit > 100 {
		return 100
	}
	return limit
}

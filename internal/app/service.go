package app

import (
	"context"
	"fmt"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/converter"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/providers"
	"github.com/ereli-sevenai/RTFD/internal/section"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// DocsExcerpt pairs a budgeted selection with its origin so callers can
// cite where the text came from.
type DocsExcerpt struct {
	Provider  string                  `json:"provider"`
	Subject   string                  `json:"subject"`
	OriginURL string                  `json:"origin_url,omitempty"`
	Selection *domain.SelectionResult `json:"selection"`
}

// Service exposes the aggregate documentation operations. It owns no
// per-request state; every call runs against fresh upstream data.
type Service struct {
	registry   *providers.Registry
	normalizer domain.Normalizer
	extractor  *section.Extractor
	aggregator *Aggregator
	config     *config.Config
	logger     *utils.Logger
}

// ServiceOptions contains the collaborators for a Service.
type ServiceOptions struct {
	Config   *config.Config
	Registry *providers.Registry
	Logger   *utils.Logger
}

// NewService creates the documentation service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("provider registry is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	rules, err := scoringRules(opts.Config)
	if err != nil {
		return nil, err
	}

	return &Service{
		registry:   opts.Registry,
		normalizer: converter.New(),
		extractor:  section.NewExtractor(rules),
		aggregator: NewAggregator(opts.Config, logger),
		config:     opts.Config,
		logger:     logger.WithComponent("service"),
	}, nil
}

// scoringRules resolves the section scoring table: inline config rules
// win, then a rules file, then the built-in table.
func scoringRules(cfg *config.Config) ([]section.Rule, error) {
	if len(cfg.Scoring.Rules) > 0 {
		rules := make([]section.Rule, len(cfg.Scoring.Rules))
		for i, r := range cfg.Scoring.Rules {
			rules[i] = section.Rule{Match: r.Match, Score: r.Score}
		}
		return rules, nil
	}
	if cfg.Scoring.File != "" {
		return section.LoadRules(cfg.Scoring.File)
	}
	return section.DefaultRules(), nil
}

// Locate looks a library up across the locating sources: registry
// metadata from pypi, repository search on github, and a web search on
// google. Sources that are disabled or lack the capability are left
// out; sources that fail record their failure.
func (s *Service) Locate(ctx context.Context, subject string, limit int) *domain.AggregateResult {
	var tasks []Task

	if p, ok := s.registry.Get("pypi"); ok {
		if fetcher, ok := p.(domain.MetadataFetcher); ok {
			tasks = append(tasks, Task{
				Provider: fetcher.Name(),
				Run: func(ctx context.Context) (any, error) {
					return fetcher.FetchMetadata(ctx, subject)
				},
			})
		}
	}

	if p, ok := s.registry.Get("github"); ok {
		if searcher, ok := p.(domain.Searcher); ok {
			query := fmt.Sprintf("%s python", subject)
			tasks = append(tasks, Task{
				Provider: searcher.Name(),
				Run: func(ctx context.Context) (any, error) {
					return searcher.Search(ctx, query, limit)
				},
			})
		}
	}

	if p, ok := s.registry.Get("google"); ok {
		if searcher, ok := p.(domain.Searcher); ok {
			query := fmt.Sprintf("%s python documentation", subject)
			tasks = append(tasks, Task{
				Provider: searcher.Name(),
				Run: func(ctx context.Context) (any, error) {
					return searcher.Search(ctx, query, limit)
				},
			})
		}
	}

	s.logger.Info().Str("subject", subject).Int("sources", len(tasks)).Msg("Locating library documentation")
	return s.aggregator.Collect(ctx, subject, tasks)
}

// SearchAll runs a free-text search on every provider that supports
// searching, one outcome per provider.
func (s *Service) SearchAll(ctx context.Context, query string, limit int) *domain.AggregateResult {
	searchers := s.registry.Searchers()
	tasks := make([]Task, 0, len(searchers))
	for _, searcher := range searchers {
		tasks = append(tasks, Task{
			Provider: searcher.Name(),
			Run: func(ctx context.Context) (any, error) {
				return searcher.Search(ctx, query, limit)
			},
		})
	}

	s.logger.Info().Str("query", query).Int("sources", len(tasks)).Msg("Searching all providers")
	return s.aggregator.Collect(ctx, query, tasks)
}

// FetchMetadata resolves registry metadata for a subject at one named
// provider.
func (s *Service) FetchMetadata(ctx context.Context, provider, subject string) (*domain.Metadata, error) {
	p, ok := s.registry.Get(provider)
	if !ok {
		return nil, domain.NewValidationError("provider", fmt.Sprintf("unknown provider %q", provider))
	}
	fetcher, ok := p.(domain.MetadataFetcher)
	if !ok {
		return nil, domain.NewValidationError("provider", fmt.Sprintf("provider %q does not serve metadata", provider))
	}
	return fetcher.FetchMetadata(ctx, subject)
}

// FetchDocs runs the full pipeline against one named provider: fetch
// the raw artifact, normalize it, extract sections, and select within
// the byte budget. Argument violations abort before any provider I/O.
func (s *Service) FetchDocs(ctx context.Context, provider, subject string, maxBytes int) (*DocsExcerpt, error) {
	if maxBytes <= 0 {
		return nil, domain.NewValidationError("max_bytes", fmt.Sprintf("must be positive, got %d", maxBytes))
	}

	p, ok := s.registry.Get(provider)
	if !ok {
		return nil, domain.NewValidationError("provider", fmt.Sprintf("unknown provider %q", provider))
	}
	fetcher, ok := p.(domain.ContentFetcher)
	if !ok {
		return nil, domain.NewValidationError("provider", fmt.Sprintf("provider %q does not serve documentation content", provider))
	}

	return s.fetchExcerpt(ctx, fetcher, subject, maxBytes)
}

// FetchAllDocs runs the documentation pipeline across every provider
// that serves content, one outcome per provider. The byte budget is
// validated once, before any fan-out.
func (s *Service) FetchAllDocs(ctx context.Context, subject string, maxBytes int) (*domain.AggregateResult, error) {
	if maxBytes <= 0 {
		return nil, domain.NewValidationError("max_bytes", fmt.Sprintf("must be positive, got %d", maxBytes))
	}

	fetchers := s.registry.ContentFetchers()
	tasks := make([]Task, 0, len(fetchers))
	for _, fetcher := range fetchers {
		tasks = append(tasks, Task{
			Provider: fetcher.Name(),
			Run: func(ctx context.Context) (any, error) {
				return s.fetchExcerpt(ctx, fetcher, subject, maxBytes)
			},
		})
	}

	s.logger.Info().Str("subject", subject).Int("sources", len(tasks)).Msg("Fetching documentation from all providers")
	return s.aggregator.Collect(ctx, subject, tasks), nil
}

// Providers returns the enabled provider names in registration order.
func (s *Service) Providers() []string {
	return s.registry.Names()
}

// SetProgress registers a callback invoked with the provider name after
// each fan-out task completes. The CLI uses it to drive a progress bar;
// pass nil to disable. Not safe to change while a fan-out is running.
func (s *Service) SetProgress(fn func(provider string)) {
	s.aggregator.progress = fn
}

func (s *Service) fetchExcerpt(ctx context.Context, fetcher domain.ContentFetcher, subject string, maxBytes int) (*DocsExcerpt, error) {
	artifact, err := fetcher.FetchContent(ctx, subject, maxBytes)
	if err != nil {
		return nil, err
	}

	doc := s.normalizer.Normalize(artifact)
	sections := s.extractor.Extract(doc)

	selection, err := section.Select(sections, maxBytes)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("provider", fetcher.Name()).
		Str("subject", subject).
		Int("sections", len(sections)).
		Int("selected", len(selection.Sections)).
		Int("bytes", selection.TotalBytes).
		Bool("truncated", selection.Truncated).
		Msg("Assembled documentation excerpt")

	return &DocsExcerpt{
		Provider:  fetcher.Name(),
		Subject:   subject,
		OriginURL: artifact.OriginURL,
		Selection: selection,
	}, nil
}

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/providers"
	"github.com/ereli-sevenai/RTFD/internal/section"
)

type stubMetadata struct {
	name        string
	meta        *domain.Metadata
	err         error
	lastSubject string
}

func (s *stubMetadata) Name() string { return s.name }

func (s *stubMetadata) FetchMetadata(ctx context.Context, subject string) (*domain.Metadata, error) {
	s.lastSubject = subject
	if s.err != nil {
		return nil, s.err
	}
	return s.meta, nil
}

type stubSearcher struct {
	name      string
	hits      []domain.SearchHit
	err       error
	lastQuery string
	lastLimit int
}

func (s *stubSearcher) Name() string { return s.name }

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	s.lastQuery = query
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

type stubContent struct {
	name     string
	artifact *domain.RawArtifact
	err      error
	calls    int
}

func (s *stubContent) Name() string { return s.name }

func (s *stubContent) FetchContent(ctx context.Context, subject string, maxBytes int) (*domain.RawArtifact, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func markdownArtifact(body string) *domain.RawArtifact {
	return &domain.RawArtifact{
		Body:      []byte(body),
		Format:    domain.FormatLightweight,
		OriginURL: "https://docs.example.com/readme",
	}
}

func newTestService(t *testing.T, reg *providers.Registry) *Service {
	t.Helper()
	svc, err := NewService(ServiceOptions{
		Config:   config.Default(),
		Registry: reg,
	})
	require.NoError(t, err)
	return svc
}

// TestNewService tests service construction
func TestNewService(t *testing.T) {
	t.Run("requires config", func(t *testing.T) {
		_, err := NewService(ServiceOptions{Registry: &providers.Registry{}})
		assert.Error(t, err)
	})

	t.Run("requires registry", func(t *testing.T) {
		_, err := NewService(ServiceOptions{Config: config.Default()})
		assert.Error(t, err)
	})

	t.Run("bad scoring file fails", func(t *testing.T) {
		cfg := config.Default()
		cfg.Scoring.File = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := NewService(ServiceOptions{Config: cfg, Registry: &providers.Registry{}})
		assert.Error(t, err)
	})
}

// TestScoringRules tests scoring table resolution order
func TestScoringRules(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rules, err := scoringRules(config.Default())
		require.NoError(t, err)
		assert.Equal(t, section.DefaultRules(), rules)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- match: changelog\n  score: 95\n"), 0o644))

		cfg := config.Default()
		cfg.Scoring.File = path

		rules, err := scoringRules(cfg)
		require.NoError(t, err)
		assert.Equal(t, []section.Rule{{Match: "changelog", Score: 95}}, rules)
	})

	t.Run("inline rules win over file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Scoring.File = filepath.Join(t.TempDir(), "ignored.yaml")
		cfg.Scoring.Rules = []config.ScoreRule{{Match: "faq", Score: 42}}

		rules, err := scoringRules(cfg)
		require.NoError(t, err)
		assert.Equal(t, []section.Rule{{Match: "faq", Score: 42}}, rules)
	})
}

// TestService_FetchDocs tests the full fetch-normalize-extract-select
// pipeline
func TestService_FetchDocs(t *testing.T) {
	const readme = "intro line\n# Installation\nrun make install\n\n# Changelog\nold news\n"

	t.Run("assembles ranked excerpt", func(t *testing.T) {
		stub := &stubContent{name: "npm", artifact: markdownArtifact(readme)}
		reg := &providers.Registry{}
		reg.Register(stub)
		svc := newTestService(t, reg)

		excerpt, err := svc.FetchDocs(context.Background(), "npm", "widget", 4096)
		require.NoError(t, err)

		assert.Equal(t, "npm", excerpt.Provider)
		assert.Equal(t, "widget", excerpt.Subject)
		assert.Equal(t, "https://docs.example.com/readme", excerpt.OriginURL)

		selection := excerpt.Selection
		require.NotNil(t, selection)
		require.Len(t, selection.Sections, 2)
		// Installation outranks the unmatched Changelog title.
		assert.Equal(t, "Installation", selection.Sections[0].Title)
		assert.Equal(t, "Changelog", selection.Sections[1].Title)
		assert.Contains(t, selection.Text, "# Installation\n\nintro line\nrun make install")
		assert.Equal(t, len(selection.Text), selection.TotalBytes)
		assert.False(t, selection.Truncated)
	})

	t.Run("tight budget drops lower-ranked sections", func(t *testing.T) {
		stub := &stubContent{name: "npm", artifact: markdownArtifact(readme)}
		reg := &providers.Registry{}
		reg.Register(stub)
		svc := newTestService(t, reg)

		wanted := "# Installation\n\nintro line\nrun make install"
		excerpt, err := svc.FetchDocs(context.Background(), "npm", "widget", len(wanted)+2)
		require.NoError(t, err)

		assert.Equal(t, wanted, excerpt.Selection.Text)
		require.Len(t, excerpt.Selection.Sections, 1)
		assert.False(t, excerpt.Selection.Truncated)
	})

	t.Run("invalid budget aborts before provider call", func(t *testing.T) {
		stub := &stubContent{name: "npm", artifact: markdownArtifact(readme)}
		reg := &providers.Registry{}
		reg.Register(stub)
		svc := newTestService(t, reg)

		_, err := svc.FetchDocs(context.Background(), "npm", "widget", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Zero(t, stub.calls)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newTestService(t, &providers.Registry{})

		_, err := svc.FetchDocs(context.Background(), "nope", "widget", 4096)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "nope")
	})

	t.Run("provider without content capability", func(t *testing.T) {
		reg := &providers.Registry{}
		reg.Register(&stubSearcher{name: "google"})
		svc := newTestService(t, reg)

		_, err := svc.FetchDocs(context.Background(), "google", "widget", 4096)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("provider failure passes through classified", func(t *testing.T) {
		stub := &stubContent{name: "npm", err: fmt.Errorf("%w: no readme", domain.ErrNotFound)}
		reg := &providers.Registry{}
		reg.Register(stub)
		svc := newTestService(t, reg)

		_, err := svc.FetchDocs(context.Background(), "npm", "widget", 4096)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// TestService_FetchAllDocs tests the content fan-out
func TestService_FetchAllDocs(t *testing.T) {
	const readme = "# Usage\ncall the thing\n"

	t.Run("one outcome per content provider", func(t *testing.T) {
		good := &stubContent{name: "alpha", artifact: markdownArtifact(readme)}
		bad := &stubContent{name: "beta", err: fmt.Errorf("%w: nothing there", domain.ErrNotFound)}
		reg := &providers.Registry{}
		reg.Register(good)
		reg.Register(bad)
		reg.Register(&stubSearcher{name: "search-only"})
		svc := newTestService(t, reg)

		result, err := svc.FetchAllDocs(context.Background(), "widget", 4096)
		require.NoError(t, err)

		// Search-only providers take no part in a content fan-out.
		assert.Equal(t, []string{"alpha", "beta"}, result.Providers)

		alpha := result.Outcomes["alpha"]
		require.False(t, alpha.Failed())
		excerpt, ok := alpha.Data.(*DocsExcerpt)
		require.True(t, ok)
		assert.Contains(t, excerpt.Selection.Text, "call the thing")

		assert.Equal(t, map[string]string{"beta": "not_found"}, result.Failures())
	})

	t.Run("invalid budget aborts before fan-out", func(t *testing.T) {
		good := &stubContent{name: "alpha", artifact: markdownArtifact(readme)}
		reg := &providers.Registry{}
		reg.Register(good)
		svc := newTestService(t, reg)

		_, err := svc.FetchAllDocs(context.Background(), "widget", -1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Zero(t, good.calls)
	})
}

// TestService_SetProgress tests the fan-out completion callback
func TestService_SetProgress(t *testing.T) {
	const readme = "# Usage\ncall the thing\n"

	good := &stubContent{name: "alpha", artifact: markdownArtifact(readme)}
	bad := &stubContent{name: "beta", err: fmt.Errorf("%w: nothing there", domain.ErrNotFound)}
	reg := &providers.Registry{}
	reg.Register(good)
	reg.Register(bad)
	svc := newTestService(t, reg)

	var mu sync.Mutex
	var done []string
	svc.SetProgress(func(provider string) {
		mu.Lock()
		done = append(done, provider)
		mu.Unlock()
	})

	_, err := svc.FetchAllDocs(context.Background(), "widget", 4096)
	require.NoError(t, err)

	// One tick per provider, success and failure alike.
	assert.ElementsMatch(t, []string{"alpha", "beta"}, done)

	svc.SetProgress(nil)
	_, err = svc.FetchAllDocs(context.Background(), "widget", 4096)
	require.NoError(t, err)

	mu.Lock()
	assert.Len(t, done, 2)
	mu.Unlock()
}

// TestService_Locate tests the locate fan-out and its query shapes
func TestService_Locate(t *testing.T) {
	pypi := &stubMetadata{name: "pypi", meta: &domain.Metadata{Provider: "pypi", Name: "flask"}}
	github := &stubSearcher{name: "github", hits: []domain.SearchHit{{Title: "pallets/flask"}}}
	google := &stubSearcher{name: "google", hits: []domain.SearchHit{{Title: "Flask docs"}}}

	reg := &providers.Registry{}
	reg.Register(pypi)
	reg.Register(github)
	reg.Register(google)
	svc := newTestService(t, reg)

	result := svc.Locate(context.Background(), "flask", 5)

	assert.Equal(t, []string{"pypi", "github", "google"}, result.Providers)
	assert.Empty(t, result.Failures())

	assert.Equal(t, "flask", pypi.lastSubject)
	assert.Equal(t, "flask python", github.lastQuery)
	assert.Equal(t, "flask python documentation", google.lastQuery)
	assert.Equal(t, 5, github.lastLimit)

	meta, ok := result.Outcomes["pypi"].Data.(*domain.Metadata)
	require.True(t, ok)
	assert.Equal(t, "flask", meta.Name)
}

// TestService_Locate_PartialRegistry tests locate with sources missing
func TestService_Locate_PartialRegistry(t *testing.T) {
	github := &stubSearcher{name: "github"}
	reg := &providers.Registry{}
	reg.Register(github)
	svc := newTestService(t, reg)

	result := svc.Locate(context.Background(), "flask", 5)

	assert.Equal(t, []string{"github"}, result.Providers)
	assert.Len(t, result.Outcomes, 1)
}

// TestService_SearchAll tests the search fan-out
func TestService_SearchAll(t *testing.T) {
	crates := &stubSearcher{name: "crates", hits: []domain.SearchHit{{Title: "serde"}}}
	npm := &stubSearcher{name: "npm", err: fmt.Errorf("%w: throttled", domain.ErrRateLimited)}
	content := &stubContent{name: "content-only"}

	reg := &providers.Registry{}
	reg.Register(crates)
	reg.Register(npm)
	reg.Register(content)
	svc := newTestService(t, reg)

	result := svc.SearchAll(context.Background(), "serialization", 3)

	assert.Equal(t, []string{"crates", "npm"}, result.Providers)
	assert.Equal(t, "serialization", crates.lastQuery)
	assert.Equal(t, 3, crates.lastLimit)

	hits, ok := result.Outcomes["crates"].Data.([]domain.SearchHit)
	require.True(t, ok)
	require.Len(t, hits, 1)
	assert.Equal(t, "serde", hits[0].Title)

	assert.Equal(t, map[string]string{"npm": "rate_limited"}, result.Failures())
}

// TestService_FetchMetadata tests single-provider metadata lookup
func TestService_FetchMetadata(t *testing.T) {
	t.Run("resolves", func(t *testing.T) {
		pypi := &stubMetadata{name: "pypi", meta: &domain.Metadata{Provider: "pypi", Name: "flask", Version: "3.0.0"}}
		reg := &providers.Registry{}
		reg.Register(pypi)
		svc := newTestService(t, reg)

		meta, err := svc.FetchMetadata(context.Background(), "pypi", "flask")
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", meta.Version)
		assert.Equal(t, "flask", pypi.lastSubject)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newTestService(t, &providers.Registry{})
		_, err := svc.FetchMetadata(context.Background(), "nope", "flask")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("provider without metadata capability", func(t *testing.T) {
		reg := &providers.Registry{}
		reg.Register(&stubSearcher{name: "google"})
		svc := newTestService(t, reg)

		_, err := svc.FetchMetadata(context.Background(), "google", "flask")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

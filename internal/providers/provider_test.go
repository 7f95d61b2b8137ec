package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ereli-sevenai/RTFD/internal/config"
	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/ratelimit"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// stubFetcher serves canned responses through a handler function and
// records every request it sees.
type stubFetcher struct {
	handler  func(url string) (*domain.Response, error)
	requests []string
	headers  []map[string]string
}

func (s *stubFetcher) Get(ctx context.Context, url string) (*domain.Response, error) {
	return s.GetWithOptions(ctx, url, domain.RequestOptions{})
}

func (s *stubFetcher) GetWithOptions(ctx context.Context, url string, opts domain.RequestOptions) (*domain.Response, error) {
	s.requests = append(s.requests, url)
	s.headers = append(s.headers, opts.Headers)
	if s.handler != nil {
		return s.handler(url)
	}
	return okResponse(url, "{}"), nil
}

func (s *stubFetcher) Close() error { return nil }

// lastHeaders returns the headers of the most recent request
func (s *stubFetcher) lastHeaders() map[string]string {
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

func okResponse(url, body string) *domain.Response {
	return &domain.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(body),
		Headers:    make(http.Header),
		URL:        url,
	}
}

func newTestDeps(f domain.Fetcher) *Dependencies {
	cfg := config.Default()
	// A high rate keeps the crates gate from pacing unit tests.
	cfg.Providers.CratesRPS = 1000
	return &Dependencies{
		Fetcher: f,
		Gate:    ratelimit.NewGate(),
		Logger:  utils.NewDefaultLogger(),
		Config:  cfg,
	}
}

// TestNewRegistry tests registry construction from configuration
func TestNewRegistry(t *testing.T) {
	t.Run("builds enabled providers in order", func(t *testing.T) {
		deps := newTestDeps(&stubFetcher{})
		reg, err := NewRegistry(deps)
		require.NoError(t, err)
		assert.Equal(t, []string{"pypi", "crates", "npm", "godocs", "github", "google"}, reg.Names())
	})

	t.Run("subset keeps configured order", func(t *testing.T) {
		deps := newTestDeps(&stubFetcher{})
		deps.Config.Providers.Enabled = []string{"npm", "pypi"}
		reg, err := NewRegistry(deps)
		require.NoError(t, err)
		assert.Equal(t, []string{"npm", "pypi"}, reg.Names())
	})

	t.Run("unknown provider name fails", func(t *testing.T) {
		deps := newTestDeps(&stubFetcher{})
		deps.Config.Providers.Enabled = []string{"pypi", "bogus"}
		_, err := NewRegistry(deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})
}

// TestRegistry_Register tests adapter registration
func TestRegistry_Register(t *testing.T) {
	deps := newTestDeps(&stubFetcher{})
	r := &Registry{}

	r.Register(NewPyPI(deps))
	r.Register(NewNPM(deps))
	assert.Equal(t, []string{"pypi", "npm"}, r.Names())

	p, ok := r.Get("pypi")
	require.True(t, ok)
	assert.Equal(t, "pypi", p.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	// Re-registering replaces the adapter but keeps its position.
	replacement := NewPyPI(deps)
	replacement.SetBaseURL("https://mirror.example.com")
	r.Register(replacement)
	assert.Equal(t, []string{"pypi", "npm"}, r.Names())
	p, _ = r.Get("pypi")
	assert.Same(t, replacement, p)
}

// TestRegistry_CapabilityFilters tests capability discovery by type
// assertion
func TestRegistry_CapabilityFilters(t *testing.T) {
	deps := newTestDeps(&stubFetcher{})
	reg, err := NewRegistry(deps)
	require.NoError(t, err)

	names := func(ps []domain.Provider) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name()
		}
		return out
	}

	var meta []domain.Provider
	for _, p := range reg.MetadataFetchers() {
		meta = append(meta, p)
	}
	assert.Equal(t, []string{"pypi", "crates", "npm", "github"}, names(meta))

	var content []domain.Provider
	for _, p := range reg.ContentFetchers() {
		content = append(content, p)
	}
	assert.Equal(t, []string{"pypi", "crates", "npm", "godocs", "github"}, names(content))

	var search []domain.Provider
	for _, p := range reg.Searchers() {
		search = append(search, p)
	}
	assert.Equal(t, []string{"crates", "npm", "godocs", "github", "google"}, names(search))

	var code []domain.Provider
	for _, p := range reg.CodeSearchers() {
		code = append(code, p)
	}
	assert.Equal(t, []string{"github"}, names(code))
}

// TestClampLimit tests result limit clamping
func TestClampLimit(t *testing.T) {
	assert.Equal(t, 5, clampLimit(0))
	assert.Equal(t, 5, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, 100, clampLimit(250))
}

// TestFetchJSON tests the shared JSON fetch helper
func TestFetchJSON(t *testing.T) {
	t.Run("decodes payload", func(t *testing.T) {
		stub := &stubFetcher{handler: func(url string) (*domain.Response, error) {
			return okResponse(url, `{"name": "serde"}`), nil
		}}
		var payload struct {
			Name string `json:"name"`
		}
		err := fetchJSON(context.Background(), stub, "https://example.com/api", nil, &payload)
		require.NoError(t, err)
		assert.Equal(t, "serde", payload.Name)
	})

	t.Run("malformed body fails with url context", func(t *testing.T) {
		stub := &stubFetcher{handler: func(url string) (*domain.Response, error) {
			return okResponse(url, "<html>"), nil
		}}
		var payload map[string]any
		err := fetchJSON(context.Background(), stub, "https://example.com/api", nil, &payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "https://example.com/api")
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		stub := &stubFetcher{handler: func(url string) (*domain.Response, error) {
			return nil, domain.NewFetchError(url, http.StatusNotFound, nil)
		}}
		var payload map[string]any
		err := fetchJSON(context.Background(), stub, "https://example.com/api", nil, &payload)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(domain.Classify(err)))
	})
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

// Client is a stealth HTTP client using tls-client
type Client struct {
	tlsClient   tls_client.HttpClient
	userAgent   string
	retrier     *Retrier
	maxBodySize int64
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	UserAgent   string
	ProxyURL    string
	MaxBodySize int64
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		UserAgent:   "",
		ProxyURL:    "",
		MaxBodySize: 10 << 20,
	}
}

// NewClient creates a new stealth HTTP client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 10 << 20
	}

	// Redirects are followed: registry endpoints routinely 30x to the
	// canonical package page.
	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(opts.Timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
	}

	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      opts.MaxRetries,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	})

	return &Client{
		tlsClient:   tlsClient,
		userAgent:   opts.UserAgent,
		retrier:     retrier,
		maxBodySize: opts.MaxBodySize,
	}, nil
}

// Get fetches content from a URL
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	return c.GetWithOptions(ctx, url, domain.RequestOptions{})
}

// GetWithOptions fetches content with custom headers and a per-request
// body size cap
func (c *Client) GetWithOptions(ctx context.Context, url string, opts domain.RequestOptions) (*domain.Response, error) {
	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doRequest(ctx, url, opts)
		return err
	})

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, targetURL string, opts domain.RequestOptions) (*domain.Response, error) {
	// Create request using fhttp (tls-client's http package)
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Apply stealth headers
	headers := StealthHeaders(c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Extra headers override the stealth defaults
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// Perform request
	resp, err := c.tlsClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{
			URL: targetURL,
			Err: fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	// Check for error status codes
	if resp.StatusCode >= 400 {
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        &domain.FetchError{URL: targetURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)},
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, &domain.FetchError{
			URL:        targetURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	// Bounded read. Upstream bodies never load more than the cap into
	// memory; anything past it is discarded.
	limit := c.maxBodySize
	if opts.MaxBodySize > 0 && opts.MaxBodySize < limit {
		limit = opts.MaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Decode zstd payloads; gzip/deflate/br are handled by the transport
	body, err = DecodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	// Convert fhttp.Header to http.Header
	httpHeaders := make(http.Header)
	for k, v := range resp.Header {
		httpHeaders[k] = v
	}

	// Report the post-redirect URL so callers can resolve relative links
	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     httpHeaders,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         finalURL,
	}, nil
}

// Close releases client resources
func (c *Client) Close() error {
	// TLS client doesn't have a Close method, but we keep this for interface compliance
	return nil
}

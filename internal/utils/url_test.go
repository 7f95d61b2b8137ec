package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "add https scheme",
			input:    "example.com",
			expected: "https://example.com/",
			wantErr:  false,
		},
		{
			name:     "normalize host to lowercase",
			input:    "https://EXAMPLE.COM",
			expected: "https://example.com/",
			wantErr:  false,
		},
		{
			name:     "remove default http port",
			input:    "http://example.com:80",
			expected: "http://example.com/",
			wantErr:  false,
		},
		{
			name:     "remove default https port",
			input:    "https://example.com:443",
			expected: "https://example.com/",
			wantErr:  false,
		},
		{
			name:     "keep non-default port",
			input:    "https://example.com:8443/docs",
			expected: "https://example.com:8443/docs",
			wantErr:  false,
		},
		{
			name:     "strip fragment",
			input:    "https://example.com/docs#install",
			expected: "https://example.com/docs",
			wantErr:  false,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bool
	}{
		{"https://example.com", true},
		{"http://example.com/path", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsHTTPURL(tt.input))
		})
	}
}

func TestGetDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain host",
			input:    "https://example.com/docs",
			expected: "example.com",
		},
		{
			name:     "host with port",
			input:    "https://example.com:8443/docs",
			expected: "example.com",
		},
		{
			name:     "uppercase host",
			input:    "https://EXAMPLE.com",
			expected: "example.com",
		},
		{
			name:     "invalid url",
			input:    "://bad",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, GetDomain(tt.input))
		})
	}
}

func TestSplitOwnerRepo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{
			name:      "owner slash repo",
			input:     "psf/requests",
			wantOwner: "psf",
			wantRepo:  "requests",
			wantOK:    true,
		},
		{
			name:      "surrounding whitespace",
			input:     "  golang/go  ",
			wantOwner: "golang",
			wantRepo:  "go",
			wantOK:    true,
		},
		{
			name:   "bare name",
			input:  "requests",
			wantOK: false,
		},
		{
			name:   "deep path",
			input:  "psf/requests/docs",
			wantOK: false,
		},
		{
			name:   "full url",
			input:  "https://github.com/psf/requests",
			wantOK: false,
		},
		{
			name:   "empty segment",
			input:  "psf/",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			owner, repo, ok := SplitOwnerRepo(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantOwner, owner)
				assert.Equal(t, tt.wantRepo, repo)
			}
		})
	}
}

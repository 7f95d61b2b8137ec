package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain name unchanged",
			input:    "requests",
			expected: "requests",
		},
		{
			name:     "invalid characters replaced with dashes",
			input:    `a<b>c:"d"|e?f*g`,
			expected: "a-b-c-d-e-f-g",
		},
		{
			name:     "path separators replaced",
			input:    "owner/repo",
			expected: "owner-repo",
		},
		{
			name:     "whitespace collapsed to single dash",
			input:    "getting   started",
			expected: "getting-started",
		},
		{
			name:     "windows reserved name prefixed",
			input:    "CON",
			expected: "_CON",
		},
		{
			name:     "empty becomes untitled",
			input:    "",
			expected: "untitled",
		},
		{
			name:     "dashes only becomes untitled",
			input:    "---",
			expected: "untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}

	t.Run("long name truncated", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", MaxFilenameLength+50)
		got := SanitizeFilename(long)
		assert.LessOrEqual(t, len(got), MaxFilenameLength)
	})
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories for a file path", func(t *testing.T) {
		t.Parallel()
		base := t.TempDir()
		file := filepath.Join(base, "a", "b", "doc.md")

		require.NoError(t, EnsureDir(file))

		info, err := os.Stat(filepath.Join(base, "a", "b"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing parent is fine", func(t *testing.T) {
		t.Parallel()
		base := t.TempDir()

		require.NoError(t, EnsureDir(filepath.Join(base, "doc.md")))
	})
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	t.Run("expands home prefix", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(home, "docs"), ExpandPath("~/docs"))
	})

	t.Run("bare tilde expands to home", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		assert.Equal(t, home, ExpandPath("~"))
	})

	t.Run("absolute path unchanged", func(t *testing.T) {
		assert.Equal(t, "/tmp/docs", ExpandPath("/tmp/docs"))
	})
}

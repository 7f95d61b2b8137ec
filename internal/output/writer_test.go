package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

func sampleSelection() *domain.SelectionResult {
	text := "# Installation\n\nrun make install"
	return &domain.SelectionResult{
		Text:       text,
		TotalBytes: len(text),
	}
}

func TestNewWriter(t *testing.T) {
	t.Run("keeps configured base dir", func(t *testing.T) {
		w := NewWriter(WriterOptions{BaseDir: "./test-output", Overwrite: true, DryRun: true})

		assert.Equal(t, "./test-output", w.baseDir)
		assert.True(t, w.overwrite)
		assert.True(t, w.dryRun)
	})

	t.Run("empty base dir uses default", func(t *testing.T) {
		w := NewWriter(WriterOptions{})

		assert.Equal(t, "./docs", w.BaseDir())
	})
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterOptions{BaseDir: dir})

	path, err := w.Write(context.Background(), "flask", "pypi", sampleSelection(), "https://pypi.org/project/flask/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flask", "pypi.md"), path)
	assert.True(t, w.Exists("flask", "pypi"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "subject: flask")
	assert.Contains(t, content, "provider: pypi")
	assert.Contains(t, content, "url: https://pypi.org/project/flask/")
	assert.Contains(t, content, "fetched_at:")
	assert.Contains(t, content, "bytes: 32")
	assert.NotContains(t, content, "truncated:")
	assert.True(t, strings.HasSuffix(content, "---\n\n# Installation\n\nrun make install\n"))
}

func TestWriter_Write_Truncated(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterOptions{BaseDir: dir})

	sel := &domain.SelectionResult{Text: "# Usage\n\ncall ap", TotalBytes: 16, Truncated: true}
	path, err := w.Write(context.Background(), "flask", "github", sel, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "truncated: true")
	assert.NotContains(t, string(data), "url:")
}

func TestWriter_Write_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterOptions{BaseDir: dir})
	path := w.Path("flask", "pypi")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	got, err := w.Write(context.Background(), "flask", "pypi", sampleSelection(), "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data), "existing file must be kept without overwrite")

	forced := NewWriter(WriterOptions{BaseDir: dir, Overwrite: true})
	_, err = forced.Write(context.Background(), "flask", "pypi", sampleSelection(), "")
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run make install")
}

func TestWriter_Write_DryRun(t *testing.T) {
	w := NewWriter(WriterOptions{BaseDir: t.TempDir(), DryRun: true})

	path, err := w.Write(context.Background(), "flask", "pypi", sampleSelection(), "")
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriter_Write_Errors(t *testing.T) {
	w := NewWriter(WriterOptions{BaseDir: t.TempDir()})

	_, err := w.Write(context.Background(), "flask", "pypi", nil, "")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Write(ctx, "flask", "pypi", sampleSelection(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriter_Path_SanitizesNames(t *testing.T) {
	w := NewWriter(WriterOptions{BaseDir: "/tmp/out"})

	assert.Equal(t, filepath.Join("/tmp/out", "@types-node", "npm.md"), w.Path("@types/node", "npm"))
}

func TestWriter_Stats(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterOptions{BaseDir: dir, Overwrite: true})

	_, err := w.Write(context.Background(), "flask", "pypi", sampleSelection(), "")
	require.NoError(t, err)
	_, err = w.Write(context.Background(), "flask", "github", sampleSelection(), "")
	require.NoError(t, err)

	count, size, err := w.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Positive(t, size)

	empty := NewWriter(WriterOptions{BaseDir: filepath.Join(dir, "missing")})
	count, size, err = empty.Stats()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)
}

package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// Writer persists selected excerpts as markdown files with YAML
// frontmatter, one file per subject/provider pair under the base
// directory.
type Writer struct {
	baseDir   string
	overwrite bool
	dryRun    bool
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	BaseDir   string
	Overwrite bool
	DryRun    bool
}

// NewWriter creates a new excerpt writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.BaseDir == "" {
		opts.BaseDir = "./docs"
	}

	return &Writer{
		baseDir:   utils.ExpandPath(opts.BaseDir),
		overwrite: opts.Overwrite,
		dryRun:    opts.DryRun,
	}
}

// Write saves one excerpt and returns the path it landed at. Existing
// files are kept unless the writer was created with Overwrite.
func (w *Writer) Write(ctx context.Context, subject, provider string, result *domain.SelectionResult, originURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("write excerpt: nil selection")
	}

	path := w.Path(subject, provider)

	if !w.overwrite {
		if _, err := os.Stat(path); err == nil {
			// File exists, skip
			return path, nil
		}
	}

	if w.dryRun {
		return path, nil
	}

	content, err := renderExcerpt(subject, provider, result, originURL)
	if err != nil {
		return "", err
	}

	if err := utils.EnsureDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// Path returns where the excerpt for a subject/provider pair lands.
func (w *Writer) Path(subject, provider string) string {
	return filepath.Join(w.baseDir, utils.SanitizeFilename(subject), utils.SanitizeFilename(provider)+".md")
}

// Exists reports whether an excerpt was already written.
func (w *Writer) Exists(subject, provider string) bool {
	_, err := os.Stat(w.Path(subject, provider))
	return err == nil
}

// BaseDir returns the writer's root directory.
func (w *Writer) BaseDir() string {
	return w.baseDir
}

// Stats returns the markdown file count and total size under the base
// directory. A missing directory counts as empty.
func (w *Writer) Stats() (int, int64, error) {
	var count int
	var size int64

	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		count++
		size += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, 0, nil
	}

	return count, size, err
}

// renderExcerpt prepends YAML frontmatter to the selected text.
func renderExcerpt(subject, provider string, result *domain.SelectionResult, originURL string) (string, error) {
	fm := domain.Frontmatter{
		Subject:   subject,
		Provider:  provider,
		URL:       originURL,
		FetchedAt: time.Now().UTC(),
		Truncated: result.Truncated,
		Bytes:     result.TotalBytes,
	}

	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	body := result.Text
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	return fmt.Sprintf("---\n%s---\n\n%s", string(data), body), nil
}

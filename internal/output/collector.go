package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ereli-sevenai/RTFD/internal/domain"
	"github.com/ereli-sevenai/RTFD/internal/utils"
)

// ExcerptRecord describes one written excerpt inside a run index.
type ExcerptRecord struct {
	Provider  string `json:"provider"`
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	Truncated bool   `json:"truncated,omitempty"`
	OriginURL string `json:"origin_url,omitempty"`
}

// RunIndex summarizes one docs run for tools that consume the output
// directory without re-reading every file.
type RunIndex struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Subject     string          `json:"subject"`
	Total       int             `json:"total_documents"`
	Documents   []ExcerptRecord `json:"documents"`
}

// IndexCollector accumulates written excerpts during a docs run and
// flushes an index.json next to them.
type IndexCollector struct {
	mu      sync.Mutex
	subject string
	dir     string
	enabled bool
	records []ExcerptRecord
}

// CollectorOptions configures an IndexCollector.
type CollectorOptions struct {
	BaseDir string
	Subject string
	Enabled bool
}

// NewIndexCollector creates a collector indexing the same subject
// directory the Writer fills.
func NewIndexCollector(opts CollectorOptions) *IndexCollector {
	return &IndexCollector{
		subject: opts.Subject,
		dir:     filepath.Join(utils.ExpandPath(opts.BaseDir), utils.SanitizeFilename(opts.Subject)),
		enabled: opts.Enabled,
	}
}

// Add records one written excerpt. Paths are stored relative to the
// index location.
func (c *IndexCollector) Add(provider, path string, result *domain.SelectionResult, originURL string) {
	if !c.enabled || result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rel, err := filepath.Rel(c.dir, path)
	if err != nil {
		rel = path
	}

	c.records = append(c.records, ExcerptRecord{
		Provider:  provider,
		Path:      filepath.ToSlash(rel),
		Bytes:     result.TotalBytes,
		Truncated: result.Truncated,
		OriginURL: originURL,
	})
}

// Count returns how many excerpts were recorded.
func (c *IndexCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Index returns a snapshot of the run index.
func (c *IndexCollector) Index() *RunIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildIndex()
}

// Flush writes index.json when at least one excerpt was recorded.
func (c *IndexCollector) Flush() error {
	if !c.enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(c.buildIndex(), "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(c.dir, "index.json"), data, 0644)
}

func (c *IndexCollector) buildIndex() *RunIndex {
	docs := make([]ExcerptRecord, len(c.records))
	copy(docs, c.records)

	return &RunIndex{
		GeneratedAt: time.Now().UTC(),
		Subject:     c.subject,
		Total:       len(docs),
		Documents:   docs,
	}
}

package domain

import "time"

// Format identifies the declared format of a raw documentation artifact.
type Format string

const (
	// FormatMarkup is structural hypertext markup (HTML).
	FormatMarkup Format = "markup"
	// FormatLightweight is line-based lightweight markup (Markdown).
	FormatLightweight Format = "lightweight"
	// FormatPlain is already-plain text with no recoverable structure.
	FormatPlain Format = "plain"
)

// RawArtifact is a documentation payload as delivered by a provider.
// It is owned by the adapter that fetched it until handed to the
// normalizer and is never mutated after creation.
type RawArtifact struct {
	Body      []byte
	Format    Format
	OriginURL string
}

// Heading is one entry of a normalized document's heading index.
// Offset is the byte offset of the heading line within PlainText.
type Heading struct {
	Title  string `json:"title"`
	Offset int    `json:"offset"`
	Level  int    `json:"level"`
}

// NormalizedDocument is the single plain-text representation every
// artifact is reduced to. Headings appear in document order.
type NormalizedDocument struct {
	PlainText string    `json:"plain_text"`
	Headings  []Heading `json:"headings,omitempty"`
}

// Section is a titled, contiguous span of a normalized document.
// OrderIndex is the section's position in the original document and
// breaks score ties (earlier wins). Body is excluded from JSON; a
// SelectionResult carries the selected text once, in Text.
type Section struct {
	Title      string `json:"title"`
	Body       string `json:"-"`
	Level      int    `json:"level"`
	Score      int    `json:"score"`
	OrderIndex int    `json:"order_index"`
}

// SelectionResult is a byte-bounded excerpt assembled from ranked
// sections. Text is the rendered excerpt; TotalBytes == len(Text).
// Truncated is set only when no whole section fit and the top section
// was hard-truncated instead.
type SelectionResult struct {
	Sections   []Section `json:"sections"`
	Text       string    `json:"text"`
	TotalBytes int       `json:"total_bytes"`
	Truncated  bool      `json:"truncated"`
}

// Metadata is uniform registry metadata for a package or repository.
type Metadata struct {
	Provider    string            `json:"provider"`
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Homepage    string            `json:"homepage,omitempty"`
	DocsURL     string            `json:"docs_url,omitempty"`
	RepoURL     string            `json:"repo_url,omitempty"`
	License     string            `json:"license,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// SearchHit is one result from a provider search.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ProviderOutcome is the tagged result of a single adapter invocation:
// Data on success, Err on failure. Failures never propagate past the
// adapter boundary as a pipeline-wide fault.
type ProviderOutcome struct {
	Provider string `json:"provider"`
	Data     any    `json:"data,omitempty"`
	Err      error  `json:"-"`
}

// Failed reports whether the invocation failed.
func (o ProviderOutcome) Failed() bool {
	return o.Err != nil
}

// ErrorReason returns the taxonomy token for a failed outcome, or ""
// for a success.
func (o ProviderOutcome) ErrorReason() string {
	if o.Err == nil {
		return ""
	}
	return Reason(o.Err)
}

// AggregateResult maps provider identity to outcome for one aggregator
// call. Providers preserves request order; Outcomes always holds one
// entry per requested provider, success or failure. Immutable after
// assembly and never persisted.
type AggregateResult struct {
	Subject   string                     `json:"subject"`
	Providers []string                   `json:"providers"`
	Outcomes  map[string]ProviderOutcome `json:"outcomes"`
}

// Succeeded returns the names of providers that produced a success, in
// request order.
func (r *AggregateResult) Succeeded() []string {
	var names []string
	for _, name := range r.Providers {
		if o, ok := r.Outcomes[name]; ok && !o.Failed() {
			names = append(names, name)
		}
	}
	return names
}

// Failures returns provider name → reason for every failed outcome.
func (r *AggregateResult) Failures() map[string]string {
	failures := make(map[string]string)
	for name, o := range r.Outcomes {
		if o.Failed() {
			failures[name] = o.ErrorReason()
		}
	}
	return failures
}

// Frontmatter is YAML frontmatter attached to excerpts written to disk.
type Frontmatter struct {
	Subject   string    `yaml:"subject"`
	Provider  string    `yaml:"provider"`
	URL       string    `yaml:"url,omitempty"`
	FetchedAt time.Time `yaml:"fetched_at"`
	Truncated bool      `yaml:"truncated,omitempty"`
	Bytes     int       `yaml:"bytes"`
}

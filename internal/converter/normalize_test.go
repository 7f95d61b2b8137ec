package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ereli-sevenai/RTFD/internal/domain"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := New()

	t.Run("lightweight markup", func(t *testing.T) {
		doc := n.Normalize(&domain.RawArtifact{
			Body:   []byte("# Install\n\npip install example\n"),
			Format: domain.FormatLightweight,
		})

		require.NotNil(t, doc)
		require.Len(t, doc.Headings, 1)
		assert.Equal(t, "Install", doc.Headings[0].Title)
		assert.Contains(t, doc.PlainText, "pip install example")
	})

	t.Run("markup", func(t *testing.T) {
		html := `<html><head><title>Example Library</title></head><body>
			<nav>skip me</nav>
			<article>
			<h2>Installation</h2>
			<p>Run the installer.</p>
			<h2>Usage</h2>
			<p>Import and call <code>run()</code>.</p>
			</article>
			</body></html>`

		doc := n.Normalize(&domain.RawArtifact{
			Body:      []byte(html),
			Format:    domain.FormatMarkup,
			OriginURL: "https://docs.example.com/lib",
		})

		require.NotNil(t, doc)
		assert.Contains(t, doc.PlainText, "Run the installer.")
		assert.NotContains(t, doc.PlainText, "skip me")

		var titles []string
		for _, h := range doc.Headings {
			titles = append(titles, h.Title)
		}
		assert.Contains(t, titles, "Installation")
		assert.Contains(t, titles, "Usage")
	})

	t.Run("plain text passes through", func(t *testing.T) {
		doc := n.Normalize(&domain.RawArtifact{
			Body:   []byte("just some text\n# not parsed as a heading\n"),
			Format: domain.FormatPlain,
		})

		require.NotNil(t, doc)
		assert.Empty(t, doc.Headings)
		assert.Contains(t, doc.PlainText, "# not parsed as a heading")
	})

	t.Run("unknown format is treated as plain", func(t *testing.T) {
		doc := n.Normalize(&domain.RawArtifact{
			Body:   []byte("content"),
			Format: domain.Format("unheard-of"),
		})

		require.NotNil(t, doc)
		assert.Equal(t, "content", doc.PlainText)
		assert.Empty(t, doc.Headings)
	})

	t.Run("nil artifact gives empty document", func(t *testing.T) {
		doc := n.Normalize(nil)

		require.NotNil(t, doc)
		assert.Equal(t, "", doc.PlainText)
		assert.Empty(t, doc.Headings)
	})

	t.Run("crlf endings are normalized", func(t *testing.T) {
		doc := n.Normalize(&domain.RawArtifact{
			Body:   []byte("# One\r\n\r\nbody\r\n"),
			Format: domain.FormatLightweight,
		})

		require.Len(t, doc.Headings, 1)
		assert.NotContains(t, doc.PlainText, "\r")
	})

	t.Run("invalid utf8 does not panic", func(t *testing.T) {
		doc := n.Normalize(&domain.RawArtifact{
			Body:   []byte{0xff, 0xfe, 0x00, 0x41, 'h', 'i'},
			Format: domain.FormatLightweight,
		})

		require.NotNil(t, doc)
	})
}

// Normalization is deterministic: the same artifact always produces the
// same document.
func TestNormalizer_Deterministic(t *testing.T) {
	n := New()

	artifacts := []*domain.RawArtifact{
		{Body: []byte("# A\n\ntext\n\n## B\n\nmore\n"), Format: domain.FormatLightweight},
		{Body: []byte("<html><body><h1>T</h1><p>p</p></body></html>"), Format: domain.FormatMarkup, OriginURL: "https://e.com"},
		{Body: []byte("plain\n"), Format: domain.FormatPlain},
	}

	for _, artifact := range artifacts {
		first := n.Normalize(artifact)
		second := n.Normalize(artifact)

		assert.Equal(t, first, second)
	}
}

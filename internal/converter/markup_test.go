package converter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkupPipeline_ToMarkdown(t *testing.T) {
	p := newMarkupPipeline()

	t.Run("converts headings and paragraphs", func(t *testing.T) {
		html := `<html><head><title>Widget Docs</title></head><body>
			<article>
			<h2>Getting Started</h2>
			<p>Install the <strong>widget</strong> package.</p>
			<pre><code>widget init</code></pre>
			</article>
			</body></html>`

		markdown, ok := p.ToMarkdown(html, "https://docs.example.com/widget")
		require.True(t, ok)

		assert.Contains(t, markdown, "## Getting Started")
		assert.Contains(t, markdown, "widget")
		assert.Contains(t, markdown, "widget init")
	})

	t.Run("page title becomes the top heading", func(t *testing.T) {
		html := `<html><head><title>Widget Docs</title></head><body>
			<p>Only a paragraph.</p>
			</body></html>`

		markdown, ok := p.ToMarkdown(html, "https://docs.example.com/widget")
		require.True(t, ok)

		assert.True(t, strings.HasPrefix(markdown, "# Widget Docs"), "got: %q", markdown)
	})

	t.Run("scripts and styles are removed", func(t *testing.T) {
		html := `<html><body>
			<script>alert("x")</script>
			<style>.a { color: red }</style>
			<p>visible text</p>
			</body></html>`

		markdown, ok := p.ToMarkdown(html, "")
		require.True(t, ok)

		assert.Contains(t, markdown, "visible text")
		assert.NotContains(t, markdown, "alert")
		assert.NotContains(t, markdown, "color: red")
	})

	t.Run("empty input still succeeds", func(t *testing.T) {
		_, ok := p.ToMarkdown("", "")
		assert.True(t, ok)
	})
}

func TestCleanMarkdown(t *testing.T) {
	input := "a\n\n\n\n\nb"

	assert.Equal(t, "a\n\nb\n", cleanMarkdown(input))
}
